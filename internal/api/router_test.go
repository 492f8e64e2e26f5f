package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/welldanyogia/seatea-inbox/internal/auth"
	"github.com/welldanyogia/seatea-inbox/internal/database"
	"github.com/welldanyogia/seatea-inbox/internal/models"
	"github.com/welldanyogia/seatea-inbox/internal/repository"
	"github.com/welldanyogia/seatea-inbox/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testStack struct {
	router *echo.Echo
	tokens *auth.Manager
	users  []*models.User
}

func setupRouter(t *testing.T) *testStack {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every pooled connection to :memory: would be a separate database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { database.Close(db) })

	userRepo := repository.NewUserRepository(db)
	users := []*models.User{
		{Name: "Ayesha", Email: "ayesha@example.com", Role: models.RoleTourist},
		{Name: "Nimal", Email: "nimal@example.com", Role: models.RoleGuide},
	}
	for _, u := range users {
		require.NoError(t, userRepo.Create(context.Background(), u))
	}

	tokens, err := auth.NewManager("router-test-secret-that-is-long-enough")
	require.NoError(t, err)

	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	service := services.NewMessageService(services.MessageServiceConfig{
		Users:    userRepo,
		Messages: repository.NewMessageRepository(db),
		Logger:   log,
	})

	router := NewRouter(&RouterConfig{
		DB:        db,
		Service:   service,
		Tokens:    tokens,
		Logger:    log,
		RateLimit: 1000,
		RateBurst: 1000,
	})
	return &testStack{router: router, tokens: tokens, users: users}
}

func (s *testStack) do(t *testing.T, method, path string, as *models.User, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if as != nil {
		token, err := s.tokens.Issue(as.ID, time.Hour)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) {
	t.Helper()
	env := struct {
		Success bool        `json:"success"`
		Data    interface{} `json:"data"`
	}{Data: data}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success, rec.Body.String())
}

func TestRouter_HealthAndMetricsArePublic(t *testing.T) {
	s := setupRouter(t)

	rec := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = s.do(t, http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "inbox_http_requests_total")
}

func TestRouter_APIRequiresToken(t *testing.T) {
	s := setupRouter(t)

	for _, path := range []string{
		"/api/messages/conversations",
		"/api/messages/unread-count",
		"/api/messages/conversations/2",
	} {
		rec := s.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
	}
}

func TestRouter_ConversationFlow(t *testing.T) {
	s := setupRouter(t)
	ayesha, nimal := s.users[0], s.users[1]

	rec := s.do(t, http.MethodPost, "/api/messages", ayesha, fmt.Sprintf(`{"receiverId":%d,"message":"Hello Nimal"}`, nimal.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var unread models.UnreadCount
	decodeData(t, s.do(t, http.MethodGet, "/api/messages/unread-count", nimal, ""), &unread)
	assert.Equal(t, int64(1), unread.UnreadCount)

	var conversations []models.ConversationSummary
	decodeData(t, s.do(t, http.MethodGet, "/api/messages/conversations", nimal, ""), &conversations)
	require.Len(t, conversations, 1)
	assert.Equal(t, ayesha.ID, conversations[0].PartnerID)
	assert.Equal(t, "Hello Nimal", conversations[0].LastMessagePreview)
	assert.Equal(t, int64(1), conversations[0].UnreadCount)

	var page models.MessagePage
	decodeData(t, s.do(t, http.MethodGet, fmt.Sprintf("/api/messages/conversations/%d?page=0&size=20", ayesha.ID), nimal, ""), &page)
	assert.Equal(t, int64(1), page.TotalElements)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Ayesha", page.Content[0].SenderName)

	rec = s.do(t, http.MethodPut, fmt.Sprintf("/api/messages/conversations/%d/read", ayesha.ID), nimal, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"updated":1}}`, rec.Body.String())

	decodeData(t, s.do(t, http.MethodGet, "/api/messages/unread-count", nimal, ""), &unread)
	assert.Equal(t, int64(0), unread.UnreadCount)
}

func TestRouter_SendValidation(t *testing.T) {
	s := setupRouter(t)
	ayesha, nimal := s.users[0], s.users[1]

	rec := s.do(t, http.MethodPost, "/api/messages", ayesha, fmt.Sprintf(`{"receiverId":%d,"message":"   "}`, nimal.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	long := strings.Repeat("a", 5001)
	rec = s.do(t, http.MethodPost, "/api/messages", ayesha, fmt.Sprintf(`{"receiverId":%d,"message":"%s"}`, nimal.ID, long))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/messages", ayesha, fmt.Sprintf(`{"receiverId":%d,"message":"hi"}`, ayesha.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/messages", ayesha, `{"receiverId":999,"message":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_WebsocketRouteDisabledWithoutHub(t *testing.T) {
	s := setupRouter(t)

	rec := s.do(t, http.MethodGet, "/ws?token=x", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
