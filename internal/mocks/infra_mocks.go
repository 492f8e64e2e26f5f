package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/seatea-inbox/internal/models"
	"github.com/welldanyogia/seatea-inbox/internal/websocket"
)

// MockUnreadCache implements cache.UnreadCache
type MockUnreadCache struct {
	mock.Mock
}

func (m *MockUnreadCache) Get(ctx context.Context, userID uint) (int64, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockUnreadCache) Set(ctx context.Context, userID uint, count int64) error {
	args := m.Called(ctx, userID, count)
	return args.Error(0)
}

func (m *MockUnreadCache) Invalidate(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// PublishedEvent records one event pushed through RecordingPublisher
type PublishedEvent struct {
	UserID  uint
	Type    websocket.EventType
	Payload interface{}
}

// RecordingPublisher implements websocket.Publisher and keeps every event
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

func (p *RecordingPublisher) PublishToUser(userID uint, eventType websocket.EventType, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, PublishedEvent{UserID: userID, Type: eventType, Payload: payload})
}

// For returns the events published to userID in order
func (p *RecordingPublisher) For(userID uint) []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []PublishedEvent
	for _, e := range p.Events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// MockNotifier implements notify.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) FirstContact(ctx context.Context, sender, receiver *models.User, body string) error {
	args := m.Called(ctx, sender, receiver, body)
	return args.Error(0)
}
