package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearby/internal/realtime"
)

func wsURL(t *testing.T, server *httptest.Server, query string) string {
	t.Helper()
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/?" + query
}

func TestChatWebSocketHandler_RejectsMissingUserID(t *testing.T) {
	registry := realtime.NewRegistry()
	server := httptest.NewServer(ChatWebSocketHandler(registry, nil, realtime.DefaultConfig(), zerolog.Nop()))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, registry.ConnectionsFor(""))
}

func TestChatWebSocketHandler_RegistersAndAnswersPing(t *testing.T) {
	registry := realtime.NewRegistry()
	server := httptest.NewServer(ChatWebSocketHandler(registry, nil, realtime.DefaultConfig(), zerolog.Nop()))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(t, server, "user_id=alice"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return registry.Online("alice")
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame realtime.Frame
	require.NoError(t, json.Unmarshal(payload, &frame))
	assert.Equal(t, realtime.FrameTypePong, frame.Type)
}

func TestChatWebSocketHandler_DeliversEnqueuedFrames(t *testing.T) {
	registry := realtime.NewRegistry()
	server := httptest.NewServer(ChatWebSocketHandler(registry, nil, realtime.DefaultConfig(), zerolog.Nop()))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(t, server, "user_id=bob"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return registry.Online("bob")
	}, time.Second, 10*time.Millisecond)

	handles := registry.ConnectionsFor("bob")
	require.Len(t, handles, 1)
	require.True(t, handles[0].Enqueue([]byte(`{"type":"message","text":"hi"}`)))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"message","text":"hi"}`, string(payload))
}

func TestChatWebSocketHandler_ClosesSilentConnection(t *testing.T) {
	registry := realtime.NewRegistry()
	config := realtime.Config{
		WriteWait:      time.Second,
		PingInterval:   time.Hour, // no transport pings during the test
		IdleTimeout:    200 * time.Millisecond,
		MaxMessageSize: 1024,
		SendBuffer:     8,
	}
	server := httptest.NewServer(ChatWebSocketHandler(registry, nil, config, zerolog.Nop()))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(t, server, "user_id=dave"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return registry.Online("dave")
	}, time.Second, 10*time.Millisecond)

	// The client sends nothing; the read deadline expires and the
	// connection is torn down and unregistered.
	require.Eventually(t, func() bool {
		return !registry.Online("dave")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChatWebSocketHandler_UnregistersOnClose(t *testing.T) {
	registry := realtime.NewRegistry()
	server := httptest.NewServer(ChatWebSocketHandler(registry, nil, realtime.DefaultConfig(), zerolog.Nop()))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(t, server, "user_id=carol"), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return registry.Online("carol")
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return !registry.Online("carol")
	}, time.Second, 10*time.Millisecond)
}
