package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a user or message lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEntry is returned when a user email is already registered.
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// uniqueViolationMarkers are the driver messages for a unique index hit
// when gorm error translation is off. 23505 is the postgres SQLSTATE.
var uniqueViolationMarkers = []string{"duplicate key", "UNIQUE constraint", "23505"}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, marker := range uniqueViolationMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
