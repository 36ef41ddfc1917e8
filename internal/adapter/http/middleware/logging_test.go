package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	var ctxLogged bool
	h := Logging(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		ctxLogged = true
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"id":"g1"}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/goals", nil)
	req.Header.Set(OwnerHeader, "user-1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, ctxLogged)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inside, done map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inside))
	require.NoError(t, json.Unmarshal(lines[1], &done))
	assert.Equal(t, "user-1", inside["owner_id"])
	assert.Equal(t, "request completed", done["message"])
	assert.Equal(t, float64(http.StatusAccepted), done["status"])
	assert.Equal(t, "/api/v1/goals", done["path"])
	assert.Equal(t, float64(11), done["bytes"])
	assert.Equal(t, "info", done["level"])
}

func TestLoggingMiddleware_ImplicitOKAndServerErrors(t *testing.T) {
	var buf bytes.Buffer
	logging := Logging(zerolog.New(&buf))

	logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ready", nil))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var ok, failed map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &ok))
	require.NoError(t, json.Unmarshal(lines[1], &failed))
	assert.Equal(t, float64(http.StatusOK), ok["status"])
	assert.Equal(t, float64(http.StatusServiceUnavailable), failed["status"])
	assert.Equal(t, "warn", failed["level"])
}
