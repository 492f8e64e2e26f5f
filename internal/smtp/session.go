package smtp

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/emersion/go-smtp"
	apperrors "github.com/welldanyogia/seatea-inbox/internal/errors"
	"github.com/welldanyogia/seatea-inbox/internal/models"
)

// replyTarget is one accepted RCPT: who is replying, and to whom
type replyTarget struct {
	replierID uint
	partnerID uint
}

// Session implements the go-smtp Session interface
type Session struct {
	backend  *Backend
	remoteIP string
	from     string
	target   *replyTarget
}

// NewSession creates a new SMTP session
func NewSession(backend *Backend) *Session {
	return &Session{backend: backend}
}

// Mail handles the MAIL FROM command
func (s *Session) Mail(from string, opts *smtp.MailOptions) error {
	s.from = from
	s.backend.logger.Debug("MAIL FROM", slog.String("from", from))
	return nil
}

// Rcpt accepts only signed reply addresses
func (s *Session) Rcpt(to string, opts *smtp.RcptOptions) error {
	if s.backend.replies == nil {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "Replies are not accepted",
		}
	}
	// a reply belongs to exactly one conversation
	if s.target != nil {
		return &smtp.SMTPError{
			Code:         452,
			EnhancedCode: smtp.EnhancedCode{4, 5, 3},
			Message:      "Too many recipients",
		}
	}

	replierID, partnerID, err := s.backend.replies.Parse(to)
	if err != nil {
		if s.backend.secLogger != nil {
			s.backend.secLogger.SuspiciousActivity(s.remoteIP, "smtp:rcpt", "invalid reply address")
		}
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "Unknown reply address",
		}
	}

	s.target = &replyTarget{replierID: replierID, partnerID: partnerID}
	s.backend.logger.Debug("RCPT TO",
		slog.Uint64("replier_id", uint64(replierID)),
		slog.Uint64("partner_id", uint64(partnerID)))
	return nil
}

// Data receives the reply and posts its new text as a message
func (s *Session) Data(r io.Reader) error {
	if s.target == nil {
		return &smtp.SMTPError{
			Code:         503,
			EnhancedCode: smtp.EnhancedCode{5, 5, 1},
			Message:      "No recipients specified",
		}
	}

	reply, err := ParseReply(r)
	if err != nil {
		s.backend.logger.Warn("failed to parse reply", slog.Any("error", err))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Failed to parse email",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.backend.timeout)
	defer cancel()

	view, err := s.backend.sender.Send(ctx, s.target.replierID, &models.SendMessageRequest{
		ReceiverID: s.target.partnerID,
		Message:    reply.Body,
	})
	if err != nil {
		s.backend.logger.Warn("reply rejected",
			slog.Uint64("replier_id", uint64(s.target.replierID)),
			slog.Uint64("partner_id", uint64(s.target.partnerID)),
			slog.Any("error", err))
		return replyError(err)
	}

	s.backend.logger.Info("email reply posted",
		slog.Uint64("message_id", uint64(view.ID)),
		slog.Uint64("sender_id", uint64(s.target.replierID)),
		slog.Uint64("receiver_id", uint64(s.target.partnerID)))
	return nil
}

// Reset resets the session state
func (s *Session) Reset() {
	s.from = ""
	s.target = nil
}

// Logout handles the end of the session
func (s *Session) Logout() error {
	return nil
}

func replyError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, apperrors.ErrEmptyMessage),
		errors.Is(err, apperrors.ErrMessageTooLong),
		errors.Is(err, apperrors.ErrSelfMessage),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.As(err, &appErr) && errors.Is(appErr.Err, apperrors.ErrInvalidInput):
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Reply rejected: " + err.Error(),
		}
	default:
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Temporary error",
		}
	}
}
