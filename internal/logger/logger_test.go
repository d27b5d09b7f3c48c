package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CustomWriter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})
	log.Info("boat created")

	assert.Contains(t, buf.String(), "boat created")
	assert.Contains(t, buf.String(), `"level":"INFO"`)
}

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		json        bool
	}{
		{name: "production uses json", environment: "production", json: true},
		{name: "development uses pretty", environment: "development"},
		{name: "unset uses pretty", environment: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Level: slog.LevelInfo, Environment: tt.environment, Writer: &buf})
			log.Info("test")

			if tt.json {
				assert.Contains(t, buf.String(), `"msg":"test"`)
			} else {
				assert.Contains(t, buf.String(), "INF")
				assert.NotContains(t, buf.String(), `"msg"`)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestPrettyHandler_LevelFilteringAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	log := slog.New(h).With("component", "relationship")
	log.Warn("rollback failed", "load_id", 7, "took", 2*time.Second)

	out := buf.String()
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "rollback failed")
	assert.Contains(t, out, "component=relationship")
	assert.Contains(t, out, "load_id=7")
	assert.Contains(t, out, "took=2s")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestPrettyHandler_WithGroupEmptyName(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, nil)
	assert.Same(t, h, h.WithGroup(""))
	assert.NotSame(t, h, h.WithGroup("store"))
}

func TestPrettyHandler_GroupsAndQuoting(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil)).WithGroup("store").With("backend", "badger")
	log.Info("opened", slog.Group("path", "dir", "/var/lib/boat yard"), slog.Group("empty"))

	out := buf.String()
	assert.Contains(t, out, "store.backend=badger")
	assert.Contains(t, out, `store.path.dir="/var/lib/boat yard"`)
	assert.NotContains(t, out, "empty")
}

func TestRedaction(t *testing.T) {
	for _, format := range []string{formatJSON, formatPretty} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Level: slog.LevelInfo, Format: format, Writer: &buf})

			log.Component("login").Info("callback",
				"code", "4/0AX4XfWg",
				"ID_Token", "eyJhbGciOi",
				"state", "kept",
			)

			out := buf.String()
			assert.NotContains(t, out, "4/0AX4XfWg")
			assert.NotContains(t, out, "eyJhbGciOi")
			assert.Contains(t, out, Redacted)
			assert.Contains(t, out, "kept")
		})
	}
}

func TestLogger_ComponentAndWithError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	log.Component("oauth").Info("exchange")
	log.WithError(errors.New("boom")).Error("failed")

	out := buf.String()
	assert.Contains(t, out, `"component":"oauth"`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log.Logger))
	r.Get("/boats", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boats", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"level":"WARN"`)
	assert.Contains(t, lines[0], `"status":401`)
	assert.Contains(t, lines[0], `"path":"/boats"`)
	assert.Contains(t, lines[1], `"level":"INFO"`)
	assert.Contains(t, lines[1], `"status":200`)
	assert.Contains(t, lines[1], `"bytes":2`)
	assert.NotContains(t, lines[1], `"request_id":""`)
}
