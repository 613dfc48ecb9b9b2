package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"phalanx/pkg/logger"
)

func loggedRequest(t *testing.T, path string, status int) string {
	t.Helper()
	var buf bytes.Buffer
	log := &logger.Logger{Logger: zerolog.New(&buf)}

	handler := Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return buf.String()
}

func TestLoggerRequestFields(t *testing.T) {
	out := loggedRequest(t, "/api/v1/messages/analyze", http.StatusOK)
	for _, want := range []string{`"level":"info"`, `"method":"GET"`, `"path":"/api/v1/messages/analyze"`, `"status":200`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}

func TestLoggerHealthProbesAtDebug(t *testing.T) {
	for _, path := range []string{"/health", "/ready"} {
		out := loggedRequest(t, path, http.StatusOK)
		if !strings.Contains(out, `"level":"debug"`) {
			t.Errorf("%s logged at %s, want debug", path, out)
		}
	}
}

func TestLoggerServerErrorsAtError(t *testing.T) {
	out := loggedRequest(t, "/api/v1/url/check", http.StatusInternalServerError)
	if !strings.Contains(out, `"level":"error"`) {
		t.Errorf("5xx logged at %s, want error", out)
	}
}
