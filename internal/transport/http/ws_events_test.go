package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"solarcli/internal/charts"
	"solarcli/internal/cleaning"
	"solarcli/internal/websocket"
)

func TestSignificanceTestsBroadcastAnalysisComplete(t *testing.T) {
	logger := slog.Default()
	hub := websocket.NewHub(logger)
	hub.Start()
	defer hub.Stop()

	pipeline := cleaning.New(logger, cleaning.Config{})
	renderer := charts.NewRenderer(logger, charts.Options{})
	service := NewDatasetService(logger, pipeline, renderer, hub, t.TempDir())
	h := NewDashboardHandler(service, hub, testConfig(t), logger)

	router := chi.NewRouter()
	router.Mount("/api", h.Routes())
	router.Get("/ws", h.ServeWS)

	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	uploadFile(t, router, "benin.csv", sampleCSV(60, 100))
	uploadFile(t, router, "togo.csv", sampleCSV(60, 500))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tests?metric=GHI", nil))
	require.Equal(t, http.StatusOK, w.Code)

	// The uploads emit their own events first; read until the analysis
	// event arrives.
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err, "analysis event never arrived")

		var event websocket.Event
		require.NoError(t, json.Unmarshal(payload, &event))
		if event.Type != websocket.TypeAnalysisComplete {
			continue
		}

		data, err := json.Marshal(event.Data)
		require.NoError(t, err)
		var results TestResults
		require.NoError(t, json.Unmarshal(data, &results))
		require.Equal(t, "GHI", results.Metric)
		require.NotNil(t, results.ANOVA)
		return
	}
}
