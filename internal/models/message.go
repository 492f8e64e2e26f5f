package models

import (
	"time"
)

// MaxMessageLength is the maximum number of characters in a message body
const MaxMessageLength = 5000

// Message represents a single direct message between two users
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"not null;index:idx_messages_pair,priority:1" json:"senderId"`
	ReceiverID uint      `gorm:"not null;index:idx_messages_pair,priority:2;index:idx_messages_unread,priority:1" json:"receiverId"`
	Body       string    `gorm:"column:message;type:text;not null" json:"message"`
	IsRead     bool      `gorm:"default:false;index:idx_messages_unread,priority:2" json:"isRead"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"createdAt"`

	// Relationships
	Sender   User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"-"`
	Receiver User `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// MessageView is the API representation of a message with the sender's display name
type MessageView struct {
	ID         uint      `json:"id"`
	SenderID   uint      `json:"senderId"`
	SenderName string    `json:"senderName"`
	ReceiverID uint      `json:"receiverId"`
	Message    string    `json:"message"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MessagePage is one page of a conversation, newest first
type MessagePage struct {
	Content       []MessageView `json:"content"`
	TotalElements int64         `json:"totalElements"`
	TotalPages    int           `json:"totalPages"`
	Number        int           `json:"number"`
	Size          int           `json:"size"`
}

// NewMessagePage builds a page and derives the page count from the total
func NewMessagePage(content []MessageView, total int64, page, size int) *MessagePage {
	if content == nil {
		content = []MessageView{}
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return &MessagePage{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Number:        page,
		Size:          size,
	}
}

// SendMessageRequest is the request body for sending a message
type SendMessageRequest struct {
	ReceiverID uint   `json:"receiverId"`
	Message    string `json:"message"`
}
