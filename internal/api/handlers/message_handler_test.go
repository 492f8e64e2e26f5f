package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/welldanyogia/seatea-inbox/internal/api/middleware"
	"github.com/welldanyogia/seatea-inbox/internal/api/response"
	apperrors "github.com/welldanyogia/seatea-inbox/internal/errors"
	"github.com/welldanyogia/seatea-inbox/internal/mocks"
	"github.com/welldanyogia/seatea-inbox/internal/models"
)

const currentUser = uint(1)

// MessageHandlerTestSuite is the test suite for MessageHandler
type MessageHandlerTestSuite struct {
	suite.Suite
	echo        *echo.Echo
	handler     *MessageHandler
	mockService *mocks.MockMessageService
}

// SetupTest runs before each test
func (s *MessageHandlerTestSuite) SetupTest() {
	s.echo = echo.New()
	s.mockService = new(mocks.MockMessageService)
	s.handler = NewMessageHandler(s.mockService)
}

// TearDownTest runs after each test
func (s *MessageHandlerTestSuite) TearDownTest() {
	s.mockService.AssertExpectations(s.T())
}

// TestMessageHandlerTestSuite runs the test suite
func TestMessageHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(MessageHandlerTestSuite))
}

// createContext builds a context as if JWTAuth had authenticated currentUser
func (s *MessageHandlerTestSuite) createContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	c.Set(middleware.ContextKeyUserID, currentUser)
	return c, rec
}

func (s *MessageHandlerTestSuite) decode(rec *httptest.ResponseRecorder, data interface{}) response.APIResponse {
	env := response.APIResponse{Data: data}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func (s *MessageHandlerTestSuite) decodeError(rec *httptest.ResponseRecorder) response.ErrorResponse {
	var env response.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// ==================== Conversations ====================

func (s *MessageHandlerTestSuite) TestConversations_Success() {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	conversations := []models.ConversationSummary{
		{PartnerID: 2, PartnerName: "Nimal", PartnerRole: "GUIDE", LastMessagePreview: "See you", LastMessageAt: at, UnreadCount: 2},
		{PartnerID: 3, PartnerName: "Ayesha", LastMessagePreview: "Thanks", LastMessageAt: at.Add(-time.Hour)},
	}
	s.mockService.On("Conversations", mock.Anything, currentUser).Return(conversations, nil)

	c, rec := s.createContext(http.MethodGet, "/api/messages/conversations", "")
	s.Require().NoError(s.handler.Conversations(c))

	s.Equal(http.StatusOK, rec.Code)
	var got []models.ConversationSummary
	env := s.decode(rec, &got)
	s.True(env.Success)
	s.Require().Len(got, 2)
	s.Equal(uint(2), got[0].PartnerID)
	s.Equal(int64(2), got[0].UnreadCount)
}

func (s *MessageHandlerTestSuite) TestConversations_InternalErrorIsHidden() {
	s.mockService.On("Conversations", mock.Anything, currentUser).
		Return(nil, errors.New("failed to list conversations: pq: connection refused"))

	c, rec := s.createContext(http.MethodGet, "/api/messages/conversations", "")
	s.Require().NoError(s.handler.Conversations(c))

	s.Equal(http.StatusInternalServerError, rec.Code)
	env := s.decodeError(rec)
	s.False(env.Success)
	s.Equal(apperrors.CodeInternalError, env.Code)
	s.NotContains(rec.Body.String(), "pq:")
	s.NotNil(c.Get(middleware.ContextKeyError))
}

// ==================== UnreadCount ====================

func (s *MessageHandlerTestSuite) TestUnreadCount_Success() {
	s.mockService.On("UnreadCount", mock.Anything, currentUser).Return(int64(7), nil)

	c, rec := s.createContext(http.MethodGet, "/api/messages/unread-count", "")
	s.Require().NoError(s.handler.UnreadCount(c))

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"success":true,"data":{"unreadCount":7}}`, rec.Body.String())
}

// ==================== Messages ====================

func (s *MessageHandlerTestSuite) TestMessages_DefaultsPageAndSize() {
	page := models.NewMessagePage([]models.MessageView{{ID: 10, SenderID: 2, SenderName: "Nimal", Message: "hi"}}, 1, 0, 20)
	s.mockService.On("Messages", mock.Anything, currentUser, uint(2), 0, 20).Return(page, nil)

	c, rec := s.createContext(http.MethodGet, "/api/messages/conversations/2", "")
	c.SetParamNames("partner_id")
	c.SetParamValues("2")
	s.Require().NoError(s.handler.Messages(c))

	s.Equal(http.StatusOK, rec.Code)
	var got models.MessagePage
	s.decode(rec, &got)
	s.Equal(int64(1), got.TotalElements)
	s.Equal(1, got.TotalPages)
	s.Require().Len(got.Content, 1)
	s.Equal("hi", got.Content[0].Message)
}

func (s *MessageHandlerTestSuite) TestMessages_PassesPagination() {
	s.mockService.On("Messages", mock.Anything, currentUser, uint(2), 3, 10).
		Return(models.NewMessagePage(nil, 35, 3, 10), nil)

	c, rec := s.createContext(http.MethodGet, "/api/messages/conversations/2?page=3&size=10", "")
	c.SetParamNames("partner_id")
	c.SetParamValues("2")
	s.Require().NoError(s.handler.Messages(c))

	s.Equal(http.StatusOK, rec.Code)
}

func (s *MessageHandlerTestSuite) TestMessages_InvalidParams() {
	tests := []struct {
		name    string
		partner string
		query   string
	}{
		{"non numeric partner", "abc", ""},
		{"zero partner", "0", ""},
		{"negative page", "2", "?page=-1"},
		{"bad page", "2", "?page=x"},
		{"zero size", "2", "?size=0"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			c, rec := s.createContext(http.MethodGet, "/api/messages/conversations/"+tt.partner+tt.query, "")
			c.SetParamNames("partner_id")
			c.SetParamValues(tt.partner)
			s.Require().NoError(s.handler.Messages(c))

			s.Equal(http.StatusBadRequest, rec.Code)
			s.Equal(apperrors.CodeInvalidInput, s.decodeError(rec).Code)
		})
	}
}

func (s *MessageHandlerTestSuite) TestMessages_UnknownPartner() {
	s.mockService.On("Messages", mock.Anything, currentUser, uint(99), 0, 20).Return(nil, apperrors.ErrUserNotFound)

	c, rec := s.createContext(http.MethodGet, "/api/messages/conversations/99", "")
	c.SetParamNames("partner_id")
	c.SetParamValues("99")
	s.Require().NoError(s.handler.Messages(c))

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(apperrors.CodeNotFound, s.decodeError(rec).Code)
}

// ==================== Send ====================

func (s *MessageHandlerTestSuite) TestSend_Created() {
	req := &models.SendMessageRequest{ReceiverID: 2, Message: "Is the Ella tour on?"}
	view := &models.MessageView{ID: 11, SenderID: currentUser, SenderName: "Ayesha", ReceiverID: 2, Message: req.Message}
	s.mockService.On("Send", mock.Anything, currentUser, req).Return(view, nil)

	c, rec := s.createContext(http.MethodPost, "/api/messages", `{"receiverId":2,"message":"Is the Ella tour on?"}`)
	s.Require().NoError(s.handler.Send(c))

	s.Equal(http.StatusCreated, rec.Code)
	var got models.MessageView
	env := s.decode(rec, &got)
	s.True(env.Success)
	s.Equal(uint(11), got.ID)
	s.Equal("Ayesha", got.SenderName)
}

func (s *MessageHandlerTestSuite) TestSend_MalformedBody() {
	c, rec := s.createContext(http.MethodPost, "/api/messages", `{"receiverId":`)
	s.Require().NoError(s.handler.Send(c))

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *MessageHandlerTestSuite) TestSend_ValidationErrors() {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"too long", apperrors.ErrMessageTooLong, http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"empty", apperrors.ErrEmptyMessage, http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"self", apperrors.ErrSelfMessage, http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"unknown receiver", apperrors.ErrUserNotFound, http.StatusNotFound, apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.mockService.ExpectedCalls = nil
			s.mockService.On("Send", mock.Anything, currentUser, mock.Anything).Return(nil, tt.err).Once()

			c, rec := s.createContext(http.MethodPost, "/api/messages", `{"receiverId":2,"message":"x"}`)
			s.Require().NoError(s.handler.Send(c))

			s.Equal(tt.status, rec.Code)
			env := s.decodeError(rec)
			s.Equal(tt.code, env.Code)
			s.Equal(tt.err.Error(), env.Error)
		})
	}
}

// ==================== MarkRead ====================

func (s *MessageHandlerTestSuite) TestMarkRead_Success() {
	s.mockService.On("MarkRead", mock.Anything, currentUser, uint(2)).Return(int64(4), nil)

	c, rec := s.createContext(http.MethodPut, "/api/messages/conversations/2/read", "")
	c.SetParamNames("partner_id")
	c.SetParamValues("2")
	s.Require().NoError(s.handler.MarkRead(c))

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"success":true,"data":{"updated":4}}`, rec.Body.String())
}

func (s *MessageHandlerTestSuite) TestMarkRead_InvalidPartner() {
	c, rec := s.createContext(http.MethodPut, "/api/messages/conversations/x/read", "")
	c.SetParamNames("partner_id")
	c.SetParamValues("x")
	s.Require().NoError(s.handler.MarkRead(c))

	s.Equal(http.StatusBadRequest, rec.Code)
}
