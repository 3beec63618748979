package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarcli/internal/config"
)

func wsTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		ServeWS(hub, conn, config.WebSocketConfig{}, "test-trace")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var event Event
	require.NoError(t, json.Unmarshal(payload, &event))
	return event
}

func TestHubWelcomesClient(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	defer hub.Stop()

	conn := dial(t, wsTestServer(t, hub))

	event := readEvent(t, conn)
	assert.Equal(t, TypeConnection, event.Type)
	assert.Equal(t, "test-trace", event.TraceID)
}

func TestHubBroadcastProgress(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	defer hub.Stop()

	conn := dial(t, wsTestServer(t, hub))
	readEvent(t, conn) // welcome

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastProgress(context.Background(), "ds-1", "imputing", 60, "filling gaps")

	event := readEvent(t, conn)
	assert.Equal(t, TypeCleaningProgress, event.Type)

	data, err := json.Marshal(event.Data)
	require.NoError(t, err)
	var progress ProgressData
	require.NoError(t, json.Unmarshal(data, &progress))
	assert.Equal(t, "ds-1", progress.DatasetID)
	assert.Equal(t, 60, progress.Progress)
}

func TestHubBroadcastError(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	defer hub.Stop()

	conn := dial(t, wsTestServer(t, hub))
	readEvent(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastError(context.Background(), "ds-1", "unsupported format")

	event := readEvent(t, conn)
	assert.Equal(t, TypeError, event.Type)
}

func TestHubStopDisconnectsClients(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()

	conn := dial(t, wsTestServer(t, hub))
	readEvent(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Stop()

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestStartIsIdempotent(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	hub.Start()
	hub.Stop()
}
