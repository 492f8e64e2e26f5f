// Package mocks holds testify mocks of the inbox's collaborators.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/seatea-inbox/internal/models"
)

// MockUserRepository implements repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockMessageRepository implements repository.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) GetView(ctx context.Context, id uint) (*models.MessageView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MessageView), args.Error(1)
}

func (m *MockMessageRepository) ListConversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConversationSummary), args.Error(1)
}

func (m *MockMessageRepository) ListBetween(ctx context.Context, userID, partnerID uint, page, size int) ([]models.MessageView, int64, error) {
	args := m.Called(ctx, userID, partnerID, page, size)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.MessageView), args.Get(1).(int64), args.Error(2)
}

func (m *MockMessageRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageRepository) MarkConversationRead(ctx context.Context, userID, partnerID uint) (int64, error) {
	args := m.Called(ctx, userID, partnerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageRepository) ExistsBetween(ctx context.Context, userID, partnerID uint) (bool, error) {
	args := m.Called(ctx, userID, partnerID)
	return args.Bool(0), args.Error(1)
}
