package repository

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/welldanyogia/seatea-inbox/internal/models"
	"gorm.io/gorm"
)

// PreviewLength is the maximum number of characters in a conversation preview
const PreviewLength = 100

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetView(ctx context.Context, id uint) (*models.MessageView, error)
	ListConversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error)
	ListBetween(ctx context.Context, userID, partnerID uint, page, size int) ([]models.MessageView, int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	MarkConversationRead(ctx context.Context, userID, partnerID uint) (int64, error)
	ExistsBetween(ctx context.Context, userID, partnerID uint) (bool, error)
}

// messageRepository implements MessageRepository using GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create creates a new message
func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	result := r.db.WithContext(ctx).Create(message)
	if result.Error != nil {
		return fmt.Errorf("failed to create message: %w", result.Error)
	}
	return nil
}

const messageViewColumns = `
	m.id,
	m.sender_id,
	COALESCE(u.name, '') AS sender_name,
	m.receiver_id,
	m.message,
	m.is_read,
	m.created_at`

// GetView retrieves a single message joined with its sender's name
func (r *messageRepository) GetView(ctx context.Context, id uint) (*models.MessageView, error) {
	var views []models.MessageView

	query := `SELECT` + messageViewColumns + `
		FROM messages m
		LEFT JOIN users u ON u.id = m.sender_id
		WHERE m.id = ?`

	if err := r.db.WithContext(ctx).Raw(query, id).Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	if len(views) == 0 {
		return nil, ErrNotFound
	}
	return &views[0], nil
}

// ListConversations returns one summary per partner the user has exchanged
// messages with, most recently active first
func (r *messageRepository) ListConversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	var results []models.ConversationSummary

	query := `
		SELECT
			p.id AS partner_id,
			p.name AS partner_name,
			p.email AS partner_email,
			p.role AS partner_role,
			lm.message AS last_message_preview,
			lm.created_at AS last_message_at,
			COALESCE((SELECT COUNT(*) FROM messages un
				WHERE un.sender_id = p.id AND un.receiver_id = ? AND un.is_read = ?), 0) AS unread_count
		FROM (
			SELECT
				CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS partner_id,
				MAX(id) AS last_id
			FROM messages
			WHERE sender_id = ? OR receiver_id = ?
			GROUP BY CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END
		) c
		JOIN users p ON p.id = c.partner_id
		JOIN messages lm ON lm.id = c.last_id
		ORDER BY lm.id DESC
	`

	if err := r.db.WithContext(ctx).Raw(query, userID, false, userID, userID, userID, userID).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	for i := range results {
		results[i].LastMessagePreview = truncatePreview(results[i].LastMessagePreview)
	}
	if results == nil {
		results = []models.ConversationSummary{}
	}
	return results, nil
}

// ListBetween retrieves one page of messages exchanged by two users, newest first
func (r *messageRepository) ListBetween(ctx context.Context, userID, partnerID uint, page, size int) ([]models.MessageView, int64, error) {
	var total int64

	pair := "(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)"
	if err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where(pair, userID, partnerID, partnerID, userID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var results []models.MessageView

	query := `SELECT` + messageViewColumns + `
		FROM messages m
		LEFT JOIN users u ON u.id = m.sender_id
		WHERE (m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?)
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ? OFFSET ?
	`

	if err := r.db.WithContext(ctx).Raw(query, userID, partnerID, partnerID, userID, size, page*size).Scan(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}

	return results, total, nil
}

// CountUnread counts messages addressed to the user that are not yet read
func (r *messageRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Message{}).Where("receiver_id = ? AND is_read = ?", userID, false).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", result.Error)
	}
	return count, nil
}

// MarkConversationRead marks every message the partner sent to the user as read.
// Returns the number of messages that changed state.
func (r *messageRepository) MarkConversationRead(ctx context.Context, userID, partnerID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", partnerID, userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark conversation as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ExistsBetween reports whether the two users have exchanged any message
func (r *messageRepository) ExistsBetween(ctx context.Context, userID, partnerID uint) (bool, error) {
	var message models.Message
	result := r.db.WithContext(ctx).
		Select("id").
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userID, partnerID, partnerID, userID).
		Take(&message)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check conversation: %w", result.Error)
	}
	return true, nil
}

// truncatePreview shortens text to PreviewLength characters
func truncatePreview(text string) string {
	if utf8.RuneCountInString(text) <= PreviewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:PreviewLength]) + "..."
}
