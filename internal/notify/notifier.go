// Package notify emails a user the first time someone writes to them.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-smtp"
	"github.com/jhillyerd/enmime"
	"github.com/welldanyogia/seatea-inbox/internal/models"
	"github.com/welldanyogia/seatea-inbox/internal/validator"
)

const (
	siteName       = "Sea & Tea"
	previewRunes   = 280
	maxNameRunes   = 100
	defaultSubject = "New message on " + siteName
)

// Notifier is told about the first message between a pair of users.
type Notifier interface {
	FirstContact(ctx context.Context, sender, receiver *models.User, body string) error
}

// Noop drops every notification.
type Noop struct{}

func (Noop) FirstContact(context.Context, *models.User, *models.User, string) error { return nil }

// SendFunc delivers a raw RFC 5322 message.
type SendFunc func(addr, from string, to []string, r io.Reader) error

func smtpSend(addr, from string, to []string, r io.Reader) error {
	return smtp.SendMail(addr, nil, from, to, r)
}

// EmailConfig configures an EmailNotifier.
type EmailConfig struct {
	SMTPAddr string
	From     string
	BaseURL  string
	Replies  *ReplyAddresses
	Logger   *slog.Logger
	Send     SendFunc
}

// EmailNotifier builds MIME mail with enmime and relays it over SMTP.
type EmailNotifier struct {
	addr    string
	from    string
	baseURL string
	replies *ReplyAddresses
	logger  *slog.Logger
	send    SendFunc
}

func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	n := &EmailNotifier{
		addr:    cfg.SMTPAddr,
		from:    cfg.From,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		replies: cfg.Replies,
		logger:  cfg.Logger,
		send:    cfg.Send,
	}
	if n.send == nil {
		n.send = smtpSend
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	return n
}

// FirstContact emails receiver a preview of body with a link to the conversation.
func (n *EmailNotifier) FirstContact(ctx context.Context, sender, receiver *models.User, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validator.ValidateEmail(receiver.Email); err != nil {
		return fmt.Errorf("receiver %d email %q: %w", receiver.ID, receiver.Email, err)
	}

	part, err := n.Build(sender, receiver, body)
	if err != nil {
		return fmt.Errorf("build notification: %w", err)
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	if err := n.send(n.addr, n.from, []string{receiver.Email}, &buf); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	n.logger.Info("first contact notification sent",
		slog.Uint64("sender_id", uint64(sender.ID)),
		slog.Uint64("receiver_id", uint64(receiver.ID)))
	return nil
}

// Build returns the MIME tree for a first-contact email.
func (n *EmailNotifier) Build(sender, receiver *models.User, body string) (*enmime.Part, error) {
	preview := previewOf(body)
	link := n.conversationLink(sender)
	name := validator.SanitizeString(sender.Name, maxNameRunes)

	text := fmt.Sprintf("%s sent you a message on %s:\n\n%s\n\nOpen the conversation: %s\n",
		name, siteName, preview, link)
	htmlBody := fmt.Sprintf(
		"<p><strong>%s</strong> sent you a message on %s:</p><blockquote>%s</blockquote><p><a href=\"%s\">Open the conversation</a></p>",
		html.EscapeString(name), html.EscapeString(siteName),
		strings.ReplaceAll(html.EscapeString(preview), "\n", "<br>"), html.EscapeString(link))

	b := enmime.Builder().
		From(siteName, n.from).
		To(receiver.Name, receiver.Email).
		Subject(fmt.Sprintf("%s from %s", defaultSubject, name)).
		Text([]byte(text)).
		HTML([]byte(htmlBody))

	if n.replies != nil {
		b = b.ReplyTo(name, n.replies.Address(receiver.ID, sender.ID))
	}

	return b.Build()
}

// conversationLink deep-links the receiver into the inbox with the sender preselected.
func (n *EmailNotifier) conversationLink(sender *models.User) string {
	q := url.Values{}
	q.Set("partnerId", strconv.FormatUint(uint64(sender.ID), 10))
	q.Set("partnerName", sender.Name)
	return n.baseURL + "/inbox?" + q.Encode()
}

func previewOf(body string) string {
	if utf8.RuneCountInString(body) <= previewRunes {
		return body
	}
	r := []rune(body)
	return string(r[:previewRunes]) + "..."
}
