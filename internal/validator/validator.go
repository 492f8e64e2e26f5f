// Package validator provides input validation and sanitization functions
// for the inbox API.
package validator

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/welldanyogia/seatea-inbox/internal/models"
)

// Validation errors
var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrInputTooLong     = errors.New("input exceeds maximum length")
	ErrInvalidCharacter = errors.New("input contains invalid characters")
	ErrEmptyInput       = errors.New("input cannot be empty")
)

// ValidateEmail validates email address format according to RFC 5322.
// Returns nil if valid, or an appropriate error.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if email == "" {
		return ErrEmptyInput
	}

	// RFC 5321 specifies max email length of 254 characters
	if utf8.RuneCountInString(email) > 254 {
		return ErrInputTooLong
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateMessageBody checks a message body after trimming.
// Returns the trimmed body when it is between 1 and MaxMessageLength characters.
func ValidateMessageBody(body string) (string, error) {
	body = strings.TrimSpace(body)

	if body == "" {
		return "", ErrEmptyInput
	}
	if utf8.RuneCountInString(body) > models.MaxMessageLength {
		return "", ErrInputTooLong
	}
	if !utf8.ValidString(body) {
		return "", ErrInvalidCharacter
	}

	return body, nil
}

// Pagination constants
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 10000
)

// ValidatePage validates and sanitizes page-based pagination parameters.
// Returns sanitized page and size values.
func ValidatePage(page, size int) (int, int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	if page < 0 {
		page = 0
	}
	// keeps page*size well inside the OFFSET range
	if page > MaxPage {
		page = MaxPage
	}

	return page, size
}

// SanitizeMessage removes control characters other than newlines and tabs
// and trims surrounding whitespace.
func SanitizeMessage(input string) string {
	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, input)

	return strings.TrimSpace(input)
}

// SanitizeString removes potentially dangerous characters and enforces length limits.
// Removes control characters and trims whitespace.
func SanitizeString(input string, maxLength int) string {
	// Remove control characters (ASCII 0-31 and 127)
	input = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, input)

	input = strings.TrimSpace(input)

	if maxLength > 0 && utf8.RuneCountInString(input) > maxLength {
		runes := []rune(input)
		input = string(runes[:maxLength])
	}

	return input
}
