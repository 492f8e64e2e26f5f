package websocket

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/welldanyogia/seatea-inbox/internal/logger"
)

func TestNewSecureUpgrader_ValidOrigin(t *testing.T) {
	upgrader := NewSecureUpgrader([]string{"http://localhost:3000", "http://example.com"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	assert.True(t, upgrader.CheckOrigin(req))
}

func TestNewSecureUpgrader_InvalidOriginIsLogged(t *testing.T) {
	var buf bytes.Buffer
	secLogger := logger.NewSecurityLoggerWithHandler(slog.NewJSONHandler(&buf, nil))
	upgrader := NewSecureUpgrader([]string{"http://localhost:3000"}, secLogger)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://malicious.com")

	assert.False(t, upgrader.CheckOrigin(req))
	assert.Contains(t, buf.String(), "invalid_origin")
	assert.Contains(t, buf.String(), "http://malicious.com")
}

func TestNewSecureUpgrader_EmptyOrigin(t *testing.T) {
	upgrader := NewSecureUpgrader([]string{"http://localhost:3000"}, nil)

	// Same-origin requests have empty Origin header
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)

	assert.True(t, upgrader.CheckOrigin(req))
}

func TestNewSecureUpgrader_DefaultOrigin(t *testing.T) {
	upgrader := NewSecureUpgrader(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	assert.True(t, upgrader.CheckOrigin(req))
}

func TestNewSecureUpgrader_BlankEntriesFallBackToDefault(t *testing.T) {
	upgrader := NewSecureUpgrader([]string{"", " ", ""}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	assert.True(t, upgrader.CheckOrigin(req))
}

func TestNewSecureUpgrader_MultipleOrigins(t *testing.T) {
	upgrader := NewSecureUpgrader([]string{" http://localhost:3000", "http://example.com ", "http://app.example.com"}, nil)

	tests := []struct {
		origin   string
		expected bool
	}{
		{"http://localhost:3000", true},
		{"http://example.com", true},
		{"http://app.example.com", true},
		{"http://other.com", false},
		{"HTTP://LOCALHOST:3000", false},
		{"http://localhost:3000/some/path", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			req.Header.Set("Origin", tt.origin)

			assert.Equal(t, tt.expected, upgrader.CheckOrigin(req))
		})
	}
}

func TestNewSecureUpgrader_BufferSizes(t *testing.T) {
	upgrader := NewSecureUpgrader(nil, nil)

	assert.Equal(t, 1024, upgrader.ReadBufferSize)
	assert.Equal(t, 1024, upgrader.WriteBufferSize)
}
