package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		expectedLevel zapcore.Level
	}{
		{name: "success logs info", status: http.StatusOK, expectedLevel: zapcore.InfoLevel},
		{name: "client error logs warn", status: http.StatusBadRequest, expectedLevel: zapcore.WarnLevel},
		{name: "server error logs error", status: http.StatusInternalServerError, expectedLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			logger := zap.New(core)

			var seenRequestID string
			handler := chimw.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenRequestID = GetRequestIDFromContext(r.Context())
				LoggerFromContext(r.Context(), zap.NewNop()).Debug("inside handler")
				w.WriteHeader(tt.status)
			})))

			req := httptest.NewRequest(http.MethodPost, "/ask", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			require.NotEmpty(t, seenRequestID)

			entries := logs.All()
			require.Len(t, entries, 2)
			assert.Equal(t, "inside handler", entries[0].Message)
			assert.Equal(t, seenRequestID, entries[0].ContextMap()["request_id"])

			completed := entries[1]
			assert.Equal(t, "request completed", completed.Message)
			assert.Equal(t, tt.expectedLevel, completed.Level)
			fields := completed.ContextMap()
			assert.Equal(t, "/ask", fields["path"])
			assert.Equal(t, int64(tt.status), fields["status"])
		})
	}
}

func TestRequestLogger_ImplicitOK(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(http.StatusOK), logs.All()[0].ContextMap()["status"])
	assert.NotContains(t, logs.All()[0].ContextMap(), "request_id")
}

func TestLoggerFromContext(t *testing.T) {
	fallback := zap.NewNop()
	assert.Same(t, fallback, LoggerFromContext(context.Background(), fallback))

	scoped := zap.NewExample()
	ctx := WithLogger(context.Background(), scoped)
	assert.Same(t, scoped, LoggerFromContext(ctx, fallback))
}

func TestGetRequestIDFromContext(t *testing.T) {
	assert.Empty(t, GetRequestIDFromContext(context.Background()))

	ctx := context.WithValue(context.Background(), chimw.RequestIDKey, "req-1")
	assert.Equal(t, "req-1", GetRequestIDFromContext(ctx))
}
