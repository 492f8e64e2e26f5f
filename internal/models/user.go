package models

import (
	"time"
)

// User roles
const (
	RoleTourist = "TOURIST"
	RoleGuide   = "GUIDE"
	RoleAdmin   = "ADMIN"
)

// User represents a marketplace account that can send and receive messages
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Role      string    `gorm:"size:20;default:TOURIST" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}
