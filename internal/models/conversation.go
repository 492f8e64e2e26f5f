package models

import (
	"time"
)

// ConversationSummary is the server-aggregated view of all messages between
// the current user and one partner
type ConversationSummary struct {
	PartnerID          uint      `json:"partnerId"`
	PartnerName        string    `json:"partnerName,omitempty"`
	PartnerEmail       string    `json:"partnerEmail,omitempty"`
	PartnerRole        string    `json:"partnerRole,omitempty"`
	LastMessagePreview string    `json:"lastMessagePreview"`
	LastMessageAt      time.Time `json:"lastMessageAt"`
	UnreadCount        int64     `json:"unreadCount"`
}

// UnreadCount is the response body of the unread-count endpoint
type UnreadCount struct {
	UnreadCount int64 `json:"unreadCount"`
}
