package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/welldanyogia/seatea-inbox/internal/cache"
	apperrors "github.com/welldanyogia/seatea-inbox/internal/errors"
	"github.com/welldanyogia/seatea-inbox/internal/metrics"
	"github.com/welldanyogia/seatea-inbox/internal/models"
	"github.com/welldanyogia/seatea-inbox/internal/notify"
	"github.com/welldanyogia/seatea-inbox/internal/repository"
	"github.com/welldanyogia/seatea-inbox/internal/validator"
	"github.com/welldanyogia/seatea-inbox/internal/websocket"
)

// MessageService defines the direct messaging operations behind the inbox API
type MessageService interface {
	// Send validates and stores a message from senderID, then notifies the receiver
	Send(ctx context.Context, senderID uint, req *models.SendMessageRequest) (*models.MessageView, error)

	// Conversations lists one summary per partner, most recently active first
	Conversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error)

	// Messages returns one page of the conversation with partnerID, newest first
	Messages(ctx context.Context, userID, partnerID uint, page, size int) (*models.MessagePage, error)

	// UnreadCount returns the total number of unread messages addressed to userID
	UnreadCount(ctx context.Context, userID uint) (int64, error)

	// MarkRead marks every message from partnerID to userID as read
	MarkRead(ctx context.Context, userID, partnerID uint) (int64, error)
}

// MessageServiceConfig holds the collaborators of the message service.
// Cache, Publisher and Notifier are optional.
type MessageServiceConfig struct {
	Users     repository.UserRepository
	Messages  repository.MessageRepository
	Cache     cache.UnreadCache
	Publisher websocket.Publisher
	Notifier  notify.Notifier
	Logger    *slog.Logger
}

// messageService implements MessageService
type messageService struct {
	users     repository.UserRepository
	messages  repository.MessageRepository
	cache     cache.UnreadCache
	publisher websocket.Publisher
	notifier  notify.Notifier
	logger    *slog.Logger
}

// NewMessageService creates a new MessageService instance
func NewMessageService(cfg MessageServiceConfig) MessageService {
	s := &messageService{
		users:     cfg.Users,
		messages:  cfg.Messages,
		cache:     cfg.Cache,
		publisher: cfg.Publisher,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.notifier == nil {
		s.notifier = notify.Noop{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Send stores a message and fans out the side effects. Only persistence
// failures are returned; cache, push and email failures are logged.
func (s *messageService) Send(ctx context.Context, senderID uint, req *models.SendMessageRequest) (*models.MessageView, error) {
	if req == nil || req.ReceiverID == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrInvalidInput, "receiverId is required", apperrors.CodeInvalidInput)
	}
	if req.ReceiverID == senderID {
		return nil, apperrors.ErrSelfMessage
	}

	body, err := validator.ValidateMessageBody(validator.SanitizeMessage(req.Message))
	if err != nil {
		return nil, mapBodyError(err)
	}

	sender, err := s.lookupUser(ctx, senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.lookupUser(ctx, req.ReceiverID)
	if err != nil {
		return nil, err
	}

	existed, err := s.messages.ExistsBetween(ctx, senderID, receiver.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check conversation: %w", err)
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiver.ID,
		Body:       body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	metrics.MessagesSent.Inc()

	view := &models.MessageView{
		ID:         msg.ID,
		SenderID:   senderID,
		SenderName: sender.Name,
		ReceiverID: receiver.ID,
		Message:    msg.Body,
		IsRead:     false,
		CreatedAt:  msg.CreatedAt,
	}

	s.logger.Info("message sent",
		slog.Uint64("message_id", uint64(msg.ID)),
		slog.Uint64("sender_id", uint64(senderID)),
		slog.Uint64("receiver_id", uint64(receiver.ID)))

	s.invalidate(ctx, receiver.ID)
	if s.publisher != nil {
		s.publisher.PublishToUser(receiver.ID, websocket.EventNewMessage, view)
		s.publishUnread(ctx, receiver.ID)
	}

	if !existed {
		if err := s.notifier.FirstContact(ctx, sender, receiver, body); err != nil {
			metrics.Notifications.WithLabelValues("failed").Inc()
			s.logger.Warn("first contact notification failed",
				slog.Uint64("receiver_id", uint64(receiver.ID)),
				slog.Any("error", err))
		} else {
			metrics.Notifications.WithLabelValues("sent").Inc()
		}
	}

	return view, nil
}

// Conversations lists the user's conversations
func (s *messageService) Conversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	conversations, err := s.messages.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	if conversations == nil {
		conversations = []models.ConversationSummary{}
	}
	return conversations, nil
}

// Messages returns a page of the conversation between userID and partnerID
func (s *messageService) Messages(ctx context.Context, userID, partnerID uint, page, size int) (*models.MessagePage, error) {
	if partnerID == userID {
		return nil, apperrors.ErrSelfMessage
	}
	if _, err := s.lookupUser(ctx, partnerID); err != nil {
		return nil, err
	}

	page, size = validator.ValidatePage(page, size)

	content, total, err := s.messages.ListBetween(ctx, userID, partnerID, page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return models.NewMessagePage(content, total, page, size), nil
}

// UnreadCount reads through the unread cache
func (s *messageService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	count, ok, err := s.cache.Get(ctx, userID)
	switch {
	case err != nil:
		metrics.UnreadCacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("unread cache lookup failed", slog.Any("error", err))
	case ok:
		metrics.UnreadCacheLookups.WithLabelValues("hit").Inc()
		return count, nil
	default:
		metrics.UnreadCacheLookups.WithLabelValues("miss").Inc()
	}

	count, err = s.messages.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}

	if err := s.cache.Set(ctx, userID, count); err != nil {
		s.logger.Warn("unread cache store failed", slog.Any("error", err))
	}
	return count, nil
}

// MarkRead marks the partner's messages to userID as read
func (s *messageService) MarkRead(ctx context.Context, userID, partnerID uint) (int64, error) {
	if partnerID == userID {
		return 0, apperrors.ErrSelfMessage
	}
	if _, err := s.lookupUser(ctx, partnerID); err != nil {
		return 0, err
	}

	updated, err := s.messages.MarkConversationRead(ctx, userID, partnerID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark conversation read: %w", err)
	}

	if updated > 0 {
		metrics.ConversationsRead.Inc()
		s.invalidate(ctx, userID)
		if s.publisher != nil {
			s.publishUnread(ctx, userID)
		}
	}
	return updated, nil
}

func (s *messageService) lookupUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *messageService) invalidate(ctx context.Context, userID uint) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("unread cache invalidation failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.Any("error", err))
	}
}

func (s *messageService) publishUnread(ctx context.Context, userID uint) {
	count, err := s.UnreadCount(ctx, userID)
	if err != nil {
		s.logger.Warn("unread count push skipped", slog.Any("error", err))
		return
	}
	s.publisher.PublishToUser(userID, websocket.EventUnreadCount, websocket.UnreadCountPayload{UnreadCount: count})
}

func mapBodyError(err error) error {
	switch {
	case errors.Is(err, validator.ErrEmptyInput):
		return apperrors.ErrEmptyMessage
	case errors.Is(err, validator.ErrInputTooLong):
		return apperrors.ErrMessageTooLong
	default:
		return apperrors.NewAppError(apperrors.ErrInvalidInput, err.Error(), apperrors.CodeInvalidInput)
	}
}
