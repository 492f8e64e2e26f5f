package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/seatea-inbox/internal/models"
)

// MockMessageService implements services.MessageService
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) Send(ctx context.Context, senderID uint, req *models.SendMessageRequest) (*models.MessageView, error) {
	args := m.Called(ctx, senderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MessageView), args.Error(1)
}

func (m *MockMessageService) Conversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConversationSummary), args.Error(1)
}

func (m *MockMessageService) Messages(ctx context.Context, userID, partnerID uint, page, size int) (*models.MessagePage, error) {
	args := m.Called(ctx, userID, partnerID, page, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MessagePage), args.Error(1)
}

func (m *MockMessageService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageService) MarkRead(ctx context.Context, userID, partnerID uint) (int64, error) {
	args := m.Called(ctx, userID, partnerID)
	return args.Get(0).(int64), args.Error(1)
}
