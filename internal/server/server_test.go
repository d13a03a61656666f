package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/HoneyDrunkStudios/gridkernel/grid"
	"github.com/HoneyDrunkStudios/gridkernel/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func doJSON(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealthReportsStage(t *testing.T) {
	s := newTestServer(t)

	w, body := doJSON(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "starting", body["stage"])
	assert.Equal(t, "grid-node", body["node"])
	assert.NotEmpty(t, body["instance"])
}

func TestReadinessFollowsLifecycle(t *testing.T) {
	s := newTestServer(t)

	w, _ := doJSON(t, s, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	require.NoError(t, s.Node().Advance(grid.StageReady))

	w, body := doJSON(t, s, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["stage"])
}

func TestContextEchoesIncomingIdentity(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/context", nil)
	req.Header.Set("X-Correlation-ID", "ABC123")
	req.Header.Set("X-Baggage-tenant", "acme")

	w, body := doJSON(t, s, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ABC123", body["correlationId"])
	assert.Equal(t, "", body["causationId"])
	assert.Equal(t, "grid-node", body["nodeId"])

	baggage, ok := body["baggage"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "acme", baggage["tenant"])
}

func TestContextSynthesizesRoot(t *testing.T) {
	s := newTestServer(t)

	w, body := doJSON(t, s, httptest.NewRequest(http.MethodGet, "/v1/context", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["correlationId"])
	assert.Equal(t, body["correlationId"], w.Header().Get("X-Correlation-ID"))
}

func TestFanoutDerivesChildrenFromOneParent(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/fanout", nil)
	req.Header.Set("X-Correlation-ID", "PARENT-1")

	w, body := doJSON(t, s, req)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "PARENT-1", body["parent"])

	branches, ok := body["branches"].([]interface{})
	require.True(t, ok)
	require.Len(t, branches, 2)

	seen := map[string]bool{}
	for _, raw := range branches {
		branch, ok := raw.(map[string]interface{})
		require.True(t, ok)

		assert.Equal(t, "PARENT-1", branch["causationId"])
		corr, _ := branch["correlationId"].(string)
		assert.NotEmpty(t, corr)
		assert.NotEqual(t, "PARENT-1", corr)
		assert.False(t, seen[corr], "branch correlation ids must be distinct")
		seen[corr] = true
	}
}

func TestRelayPropagatesToDownstream(t *testing.T) {
	var gotCorrelation, gotCausation string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCorrelation = r.Header.Get("X-Correlation-ID")
		gotCausation = r.Header.Get("X-Causation-ID")
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	}))
	defer upstream.Close()

	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/relay?url="+upstream.URL, nil)
	req.Header.Set("X-Correlation-ID", "RELAY-1")

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.NotEmpty(t, gotCorrelation)
	assert.NotEqual(t, "RELAY-1", gotCorrelation, "downstream call must carry a derived child id")
	assert.Equal(t, "RELAY-1", gotCausation)
}

func TestRelayRequiresURL(t *testing.T) {
	s := newTestServer(t)

	w, body := doJSON(t, s, httptest.NewRequest(http.MethodGet, "/v1/relay", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errMsg, _ := body["error"].(string)
	assert.True(t, strings.Contains(errMsg, "url"))
}

func TestMetricsEndpointServesNodeRegistry(t *testing.T) {
	s := newTestServer(t)

	// Drive one request through the middleware so counters exist.
	s.Router().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/context", nil))

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "grid_operations_total")
}
