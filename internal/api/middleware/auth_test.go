package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/welldanyogia/seatea-inbox/internal/logger"
)

type stubTokens map[string]uint

func (s stubTokens) Parse(token string) (uint, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, errors.New("token is expired")
}

func serveAuth(t *testing.T, header string, secLogger *logger.SecurityLogger) (*httptest.ResponseRecorder, uint) {
	t.Helper()
	var seen uint

	e := echo.New()
	e.GET("/api/messages/unread-count", func(c echo.Context) error {
		seen = UserID(c)
		return c.String(http.StatusOK, "success")
	}, JWTAuth(stubTokens{"good": 7}, secLogger))

	req := httptest.NewRequest(http.MethodGet, "/api/messages/unread-count", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	rec, seen := serveAuth(t, "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
	assert.Zero(t, seen)
}

func TestJWTAuth_WrongScheme(t *testing.T) {
	rec, _ := serveAuth(t, "Basic Zm9vOmJhcg==", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serveAuth(t, "Bearer ", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuth_InvalidTokenIsLoggedWithoutToken(t *testing.T) {
	var buf bytes.Buffer
	secLogger := logger.NewSecurityLoggerWithHandler(slog.NewJSONHandler(&buf, nil))

	rec, _ := serveAuth(t, "Bearer leaked-credential", secLogger)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, buf.String(), "token_rejected")
	assert.NotContains(t, buf.String(), "leaked-credential")
}

func TestJWTAuth_ValidToken(t *testing.T) {
	rec, seen := serveAuth(t, "Bearer good", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(7), seen)
}

func TestJWTAuth_SchemeIsCaseInsensitive(t *testing.T) {
	rec, seen := serveAuth(t, "bearer good", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(7), seen)
}

func TestUserID_OutsideAuth(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Zero(t, UserID(c))
}
