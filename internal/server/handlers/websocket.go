package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"nearby/internal/domain/chat"
	"nearby/internal/realtime"
)

// upgrader is used to upgrade HTTP connections to WebSocket
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, this should be more restrictive
		return true
	},
}

// ChatWebSocketHandler performs the realtime handshake. The client
// identifies itself with a user_id query parameter; no further
// authentication of the realtime channel happens here. A handshake
// without a user id is rejected before any registry entry exists.
func ChatWebSocketHandler(registry *realtime.Registry, dispatcher chat.Dispatcher, config realtime.Config, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "Missing user ID", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := realtime.NewClient(userID, conn, registry, dispatcher, config, log)
		client.Run()

		log.Info().Str("user_id", userID).Msg("realtime connection opened")
	}
}
