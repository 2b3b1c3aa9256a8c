package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareInstallsLogger(t *testing.T) {
	logger := New(DefaultConfig())

	var seen *Logger
	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, seen)
	assert.Same(t, logger, seen)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Info("fallback logger works") })
}

func TestContextLoggerCarriesAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Handler:   slog.NewTextHandler(&buf, nil),
		Component: ComponentHTTP,
	})

	ctx := context.WithValue(context.Background(), LoggerContextKey, logger.With(FieldRequestID, "req_abc"))
	FromContext(ctx).Info("hello")

	out := buf.String()
	assert.Contains(t, out, FieldRequestID+"=req_abc")
	assert.Contains(t, out, FieldComponent+"="+ComponentHTTP)
}
