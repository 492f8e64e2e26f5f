// Package smtp accepts email replies to inbox notifications and posts them
// into the conversation they were minted for.
package smtp

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/welldanyogia/seatea-inbox/internal/logger"
	"github.com/welldanyogia/seatea-inbox/internal/models"
	"github.com/welldanyogia/seatea-inbox/internal/notify"
)

// Security limits
const (
	DefaultMaxMessageSize = 1024 * 1024 // 1 MB, replies are short text
	DefaultMaxRecipients  = 1
	DefaultReadTimeout    = 60 * time.Second
	DefaultWriteTimeout   = 60 * time.Second
	DefaultMaxLineLength  = 2000
)

// MessageSender is the part of the message service the ingest needs
type MessageSender interface {
	Send(ctx context.Context, senderID uint, req *models.SendMessageRequest) (*models.MessageView, error)
}

// Backend implements the go-smtp Backend interface
type Backend struct {
	replies   *notify.ReplyAddresses
	sender    MessageSender
	timeout   time.Duration
	logger    *slog.Logger
	secLogger *logger.SecurityLogger
}

// BackendConfig holds configuration for the SMTP backend
type BackendConfig struct {
	Replies *notify.ReplyAddresses
	Sender  MessageSender
	// Timeout bounds the Send call made for each accepted reply.
	Timeout time.Duration
	Logger  *slog.Logger
	// SecLogger records mail sent to forged reply addresses (optional)
	SecLogger *logger.SecurityLogger
}

// NewBackend creates a new SMTP backend
func NewBackend(cfg *BackendConfig) *Backend {
	b := &Backend{
		replies:   cfg.Replies,
		sender:    cfg.Sender,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
		secLogger: cfg.SecLogger,
	}
	if b.timeout <= 0 {
		b.timeout = 10 * time.Second
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// NewSession creates a new SMTP session
func (b *Backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	remote := c.Conn().RemoteAddr().String()
	b.logger.Debug("new SMTP connection", slog.String("remote_addr", remote))

	s := NewSession(b)
	if host, _, err := net.SplitHostPort(remote); err == nil {
		s.remoteIP = host
	}
	return s, nil
}

// ServerConfig holds security configuration for the SMTP server
type ServerConfig struct {
	Addr           string
	Domain         string
	MaxMessageSize int64
	MaxRecipients  int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	TLSConfig      *tls.Config
}

// NewSecureServer creates a new SMTP server with security settings
func NewSecureServer(backend *Backend, cfg *ServerConfig) *smtp.Server {
	s := smtp.NewServer(backend)

	s.Addr = cfg.Addr
	s.Domain = cfg.Domain

	if cfg.MaxMessageSize > 0 {
		s.MaxMessageBytes = cfg.MaxMessageSize
	} else {
		s.MaxMessageBytes = DefaultMaxMessageSize
	}

	if cfg.MaxRecipients > 0 {
		s.MaxRecipients = cfg.MaxRecipients
	} else {
		s.MaxRecipients = DefaultMaxRecipients
	}

	if cfg.ReadTimeout > 0 {
		s.ReadTimeout = cfg.ReadTimeout
	} else {
		s.ReadTimeout = DefaultReadTimeout
	}

	if cfg.WriteTimeout > 0 {
		s.WriteTimeout = cfg.WriteTimeout
	} else {
		s.WriteTimeout = DefaultWriteTimeout
	}

	if cfg.TLSConfig != nil {
		s.TLSConfig = cfg.TLSConfig
	}

	s.MaxLineLength = DefaultMaxLineLength

	return s
}
