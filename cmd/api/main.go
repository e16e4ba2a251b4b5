package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"nearby/internal/adapter/storage"
	"nearby/internal/config"
	"nearby/internal/realtime"
	"nearby/internal/server"
	chatService "nearby/internal/service/chat"
	geoService "nearby/internal/service/geo"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.Environment == "development" {
		log = log.Level(zerolog.DebugLevel)
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	natsConn, err := initNATS(cfg.NATS, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer natsConn.Close()

	// Initialize storage adapters
	messageStore := storage.NewMessageStore(db)
	profileStore := storage.NewProfileStore(db)
	groupStore := storage.NewGroupStore(db)
	postStore := storage.NewPostStore(db)

	// Presence registry: one per process, injected everywhere that
	// registers connections or fans out
	registry := realtime.NewRegistry()

	// Initialize services
	discovery := geoService.NewDiscoveryService(
		profileStore,
		postStore,
		geoService.DiscoveryConfig{
			DefaultRadiusKm: cfg.Geo.DefaultRadiusKm,
			MinRadiusKm:     cfg.Geo.MinRadiusKm,
			MaxRadiusKm:     cfg.Geo.MaxRadiusKm,
			FeedLimit:       cfg.Geo.FeedLimit,
		},
		log,
	)

	dispatcher := chatService.NewDispatcher(
		messageStore,
		groupStore,
		profileStore,
		registry,
		natsConn,
		chatService.DispatcherConfig{
			MaxMessageLength: cfg.Chat.MaxMessageLength,
			PersistTimeout:   cfg.Chat.PersistTimeout,
			EventsTopic:      cfg.Chat.EventsTopic,
		},
		log,
	)

	realtimeCfg := realtime.Config{
		WriteWait:       cfg.Realtime.WriteWait,
		PingInterval:    cfg.Realtime.PingInterval,
		IdleTimeout:     time.Duration(cfg.Realtime.IdleMultiplier) * cfg.Realtime.PingInterval,
		DispatchTimeout: cfg.Chat.PersistTimeout,
		MaxMessageSize:  cfg.Realtime.MaxMessageSize,
		SendBuffer:      cfg.Realtime.SendBuffer,
	}

	// Initialize HTTP server
	httpServer := server.NewServer(
		cfg.Server,
		realtimeCfg,
		cfg.Chat.HistoryLimit,
		registry,
		dispatcher,
		discovery,
		log,
	)

	// Start HTTP server
	go func() {
		log.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Info().Msg("shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Close live realtime connections
	registry.Drain()

	log.Info().Msg("shutdown complete")
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, log zerolog.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
