package routes

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/pingpong-league/handlers"
)

func newRouter(t *testing.T, opts Options) *chi.Mux {
	t.Helper()
	router := chi.NewRouter()
	SetupRoutes(router, opts, handlers.NewRoomHandler(nil), handlers.NewTournamentHandler(nil))
	return router
}

func TestHealthz(t *testing.T) {
	router := newRouter(t, Options{Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestClientRequestIDReachesLogs(t *testing.T) {
	var buf bytes.Buffer
	router := newRouter(t, Options{Logger: zerolog.New(&buf)})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "court-7-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "court-7-42", rec.Header().Get("X-Request-Id"))
	assert.Contains(t, buf.String(), `"request_id":"court-7-42"`)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"request_id"`)))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "routes_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	router := newRouter(t, Options{Logger: zerolog.Nop(), Gatherer: reg})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "routes_test_total 1")
}

func TestMetricsDisabledWithoutGatherer(t *testing.T) {
	router := newRouter(t, Options{Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newRouter(t, Options{Logger: zerolog.Nop(), CORSOrigins: []string{"https://league.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/rooms", nil)
	req.Header.Set("Origin", "https://league.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://league.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestInvalidRoomIDNeverReachesService(t *testing.T) {
	router := newRouter(t, Options{Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/nope", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
