package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"nearby/internal/config"
	"nearby/internal/domain/chat"
	"nearby/internal/realtime"
	"nearby/internal/server/handlers"
	geoService "nearby/internal/service/geo"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.ServerConfig,
	realtimeCfg realtime.Config,
	historyLimit int,
	registry *realtime.Registry,
	dispatcher chat.Dispatcher,
	discovery *geoService.DiscoveryService,
	log zerolog.Logger,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	chatHandler := handlers.NewChatHandler(dispatcher, historyLimit)
	discoverHandler := handlers.NewDiscoverHandler(discovery)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Discovery API
			r.Route("/discover", func(r chi.Router) {
				r.Get("/feed", discoverHandler.GetFeed)
				r.Get("/people", discoverHandler.GetPeople)
			})

			// Chat API
			r.Route("/chat", func(r chi.Router) {
				r.Post("/messages", chatHandler.SendMessage)
				r.Get("/messages/{partnerID}", chatHandler.GetHistory)
				r.Get("/groups/{groupID}/messages", chatHandler.GetGroupHistory)
				r.Get("/inbox", chatHandler.GetInbox)
				r.Post("/read", chatHandler.MarkRead)
				r.Get("/unread", chatHandler.GetUnreadCount)
			})
		})
	})

	// WebSocket endpoint for real-time chat delivery
	router.Get("/ws/chat", handlers.ChatWebSocketHandler(registry, dispatcher, realtimeCfg, log))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
