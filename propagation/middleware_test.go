package propagation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HoneyDrunkStudios/gridkernel/grid"
	"github.com/HoneyDrunkStudios/gridkernel/id"
	"github.com/HoneyDrunkStudios/gridkernel/operation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type middlewareSink struct {
	events []operation.Event
}

func (s *middlewareSink) OperationCompleted(e operation.Event) {
	s.events = append(s.events, e)
}

func newTestRouter(t *testing.T, sink operation.Sink, handler gin.HandlerFunc) (*gin.Engine, *Propagator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	p := NewHTTP(propTestNode(t))
	router := gin.New()
	router.Use(HTTPMiddleware(p, operation.NewFactory(sink)))
	router.GET("/work", handler)
	return router, p
}

func TestHTTPMiddlewareMakesContextAmbient(t *testing.T) {
	sink := &middlewareSink{}
	var observed *grid.Context

	router, _ := newTestRouter(t, sink, func(c *gin.Context) {
		observed = grid.Current(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/work", nil)
	req.Header.Set("X-Correlation-ID", "ABC")
	req.Header.Set("X-Baggage-tenant", "t1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.NotNil(t, observed)
	assert.Equal(t, id.CorrelationID("ABC"), observed.CorrelationID())
	tenant, _ := observed.Baggage().Get("tenant")
	assert.Equal(t, "t1", tenant)

	// correlation id echoed back to the caller
	assert.Equal(t, "ABC", rec.Header().Get("X-Correlation-ID"))
}

func TestHTTPMiddlewareTracksOperation(t *testing.T) {
	sink := &middlewareSink{}
	router, _ := newTestRouter(t, sink, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/work", nil)
	req.Header.Set("X-Correlation-ID", "ABC")
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, sink.events, 1)
	e := sink.events[0]
	assert.Equal(t, "GET /work", e.OperationName)
	assert.Equal(t, id.CorrelationID("ABC"), e.CorrelationID)
	assert.True(t, e.Success)
	assert.Equal(t, int64(http.StatusOK), e.Metadata["http.status"].Any())
}

func TestHTTPMiddlewareFailsOperationOnHandlerError(t *testing.T) {
	sink := &middlewareSink{}
	router, _ := newTestRouter(t, sink, func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusInternalServerError)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/work", nil))

	require.Len(t, sink.events, 1)
	assert.False(t, sink.events[0].Success)
	assert.Contains(t, sink.events[0].ErrorMessage, "boom")
}

func TestHTTPMiddlewareSynthesizesRoot(t *testing.T) {
	sink := &middlewareSink{}
	var observed *grid.Context

	router, _ := newTestRouter(t, sink, func(c *gin.Context) {
		observed = grid.Current(c.Request.Context())
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/work", nil))

	require.NotNil(t, observed)
	assert.True(t, observed.IsRoot())
	assert.True(t, id.IsValid(observed.CorrelationID().String()))
	assert.Equal(t, observed.CorrelationID().String(), rec.Header().Get("X-Correlation-ID"))
}
