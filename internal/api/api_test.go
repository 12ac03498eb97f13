package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notification-orchestrator/internal/config"
	"notification-orchestrator/internal/logging"
	"notification-orchestrator/internal/models"
	"notification-orchestrator/internal/services"
	"notification-orchestrator/internal/store/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *services.Service) {
	t.Helper()
	cfg, err := config.FromEnv(func(string) string { return "" })
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	logger := logging.Discard()
	svc := services.New(memstore.New(), logger, cfg, services.NewMetrics(reg))
	t.Cleanup(svc.Stop)
	return NewRouter(svc, logger, cfg, reg), svc
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func notificationBody(id, priority string) string {
	return `{
		"id": "` + id + `",
		"type": "auth_expired",
		"title": "Auth Expired for John Smith",
		"description": "Prior authorization expired yesterday.",
		"priority": "` + priority + `",
		"timestamp": "` + time.Now().Add(-time.Hour).UTC().Format(time.RFC3339) + `",
		"caseId": "case-` + id + `",
		"patientName": "John Smith",
		"metadata": {"payer": "Aetna", "daysUntilExpiration": -1, "caseValue": 32000, "denialRiskScore": 91}
	}`
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","subscribers":0}`, w.Body.String())
}

func TestGetFeeds_Empty(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/v0/feeds", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"direct":[],"watching":[],"ai_boost":[],"unreadCount":0}`, w.Body.String())
}

func TestNotificationLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/v0/notifications", notificationBody("n-1", "critical"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/v0/notifications/n-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "case-n-1", got.CaseID)
	assert.False(t, got.IsRead)

	w = do(r, http.MethodGet, "/api/v0/feeds", "")
	var feeds models.Feeds
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feeds))
	require.Len(t, feeds.Direct, 1)
	assert.Equal(t, "n-1", feeds.Direct[0].ID)
	assert.Equal(t, 1, feeds.UnreadCount)

	w = do(r, http.MethodPost, "/api/v0/notifications/n-1/read", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/api/v0/feeds", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feeds))
	assert.Zero(t, feeds.UnreadCount)

	w = do(r, http.MethodPost, "/api/v0/notifications/n-1/dismiss", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/api/v0/feeds", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feeds))
	assert.Empty(t, feeds.Direct)
	assert.Empty(t, feeds.AIBoost)

	w = do(r, http.MethodGet, "/api/v0/notifications", "")
	var all []models.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.True(t, all[0].IsDismissed)
}

func TestCreateNotification_MalformedMetadataIsAccepted(t *testing.T) {
	r, _ := newTestRouter(t)

	body := strings.Replace(notificationBody("n-1", "critical"), `"caseValue": 32000`, `"caseValue": "32000"`, 1)
	w := do(r, http.MethodPost, "/api/v0/notifications", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/v0/notifications/n-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Nil(t, got.Metadata)

	w = do(r, http.MethodGet, "/api/v0/feeds", "")
	var feeds models.Feeds
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feeds))
	require.Len(t, feeds.Direct, 1)
	assert.Equal(t, "n-1", feeds.Direct[0].ID)
}

func TestMarkAllRead(t *testing.T) {
	r, svc := newTestRouter(t)
	for _, id := range []string{"n-1", "n-2"} {
		w := do(r, http.MethodPost, "/api/v0/notifications", notificationBody(id, "medium"))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := do(r, http.MethodPost, "/api/v0/notifications/read-all", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	for _, n := range all {
		assert.True(t, n.IsRead, n.ID)
	}
}

func TestErrorMapping(t *testing.T) {
	r, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v0/notifications", notificationBody("n-1", "high")).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown id", http.MethodGet, "/api/v0/notifications/missing", "", http.StatusNotFound},
		{"read unknown", http.MethodPost, "/api/v0/notifications/missing/read", "", http.StatusNotFound},
		{"dismiss unknown", http.MethodPost, "/api/v0/notifications/missing/dismiss", "", http.StatusNotFound},
		{"malformed body", http.MethodPost, "/api/v0/notifications", `{"id":`, http.StatusBadRequest},
		{"invalid priority", http.MethodPost, "/api/v0/notifications", notificationBody("n-2", "urgent"), http.StatusBadRequest},
		{"duplicate", http.MethodPost, "/api/v0/notifications", notificationBody("n-1", "high"), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	do(r, http.MethodGet, "/api/v0/feeds", "")

	w := do(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `orchestrator_runs_total{result="ok"} 1`)
}

func TestSubscribe(t *testing.T) {
	r, svc := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v0/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() models.Feeds {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		var feeds models.Feeds
		require.NoError(t, json.Unmarshal(payload, &feeds))
		return feeds
	}

	initial := read()
	assert.NotNil(t, initial.Direct)
	assert.Empty(t, initial.Direct)

	var n models.Notification
	require.NoError(t, json.Unmarshal([]byte(notificationBody("n-1", "critical")), &n))
	_, err = svc.Ingest(context.Background(), n)
	require.NoError(t, err)

	pushed := read()
	require.Len(t, pushed.Direct, 1)
	assert.Equal(t, "n-1", pushed.Direct[0].ID)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return svc.WebSockets().Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
