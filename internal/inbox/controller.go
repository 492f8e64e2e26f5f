// Package inbox holds the state of the messaging screen: the conversation
// list, the open thread with its pages, the compose draft and the unread
// total mirrored into the window title.
//
// Operations block on the network without holding the controller lock, so a
// UI can run them on goroutines. Every completion is checked against the
// selection generation and the closed flag before it touches state.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/welldanyogia/seatea-inbox/internal/client"
	"github.com/welldanyogia/seatea-inbox/internal/models"
)

const (
	// PageSize is the number of messages fetched per page
	PageSize = 20
	// MaxMessageLength is the longest message, in characters, that may be sent
	MaxMessageLength = 5000

	siteName = "Sea & Tea"
)

// Guard errors returned by operations that did nothing
var (
	ErrClosed         = errors.New("inbox closed")
	ErrNoSelection    = errors.New("no conversation selected")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = fmt.Errorf("message exceeds %d characters", MaxMessageLength)
	ErrSendInFlight   = errors.New("a message is already being sent")
	ErrLoadInFlight   = errors.New("messages are already loading")
	ErrLastPage       = errors.New("no older messages")
	// ErrStale is returned when a response arrived for a selection that is no longer open
	ErrStale = errors.New("response no longer relevant")
)

// API is the REST collaborator the controller drives
type API interface {
	ListConversations(ctx context.Context) ([]models.ConversationSummary, error)
	UnreadCount(ctx context.Context) (int64, error)
	ListMessages(ctx context.Context, partnerID uint, page, size int) (*models.MessagePage, error)
	SendMessage(ctx context.Context, receiverID uint, text string) (*models.MessageView, error)
	MarkRead(ctx context.Context, partnerID uint) error
}

// ThreadState is the state of the open conversation thread
type ThreadState int

const (
	StateNoSelection ThreadState = iota
	StateLoading
	StateLoaded
	StateLoadingMore
	StateSending
	StateError
)

func (s ThreadState) String() string {
	switch s {
	case StateNoSelection:
		return "no_selection"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateLoadingMore:
		return "loading_more"
	case StateSending:
		return "sending"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Messages is the loaded part of the open thread. Content is newest first;
// older pages are appended.
type Messages struct {
	Content       []models.MessageView
	TotalElements int64
	TotalPages    int
	CurrentPage   int
}

// HasMore reports whether an older page exists
func (m Messages) HasMore() bool {
	return m.CurrentPage < m.TotalPages-1
}

// Snapshot is a copy of the controller state for rendering
type Snapshot struct {
	Conversations []models.ConversationSummary
	Selected      Conversation
	Messages      Messages
	UnreadTotal   int64
	State         ThreadState
	Error         string
	Draft         string
	Sending       bool
	Title         string
}

// Options configures a Controller
type Options struct {
	Logger *slog.Logger
	// TitleSink receives every window title change, including the reset on
	// Close. It runs under the controller lock and must not call back into it.
	TitleSink func(string)
}

// Controller is the single authority for inbox state
type Controller struct {
	api    API
	logger *slog.Logger
	sink   func(string)

	mu            sync.Mutex
	conversations []models.ConversationSummary
	selected      Conversation
	messages      Messages
	unreadTotal   int64
	state         ThreadState
	listErr       string
	threadErr     string
	draft         string
	title         string

	// generation changes whenever the selection does
	generation  uint64
	sending     bool
	loadingMore bool
	closed      bool
}

// NewController creates a Controller over api
func NewController(api API, opts Options) *Controller {
	c := &Controller{
		api:    api,
		logger: opts.Logger,
		sink:   opts.TitleSink,
		state:  StateNoSelection,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Mount loads the conversation list and, when nav holds a deep-link payload,
// opens that partner's conversation. The payload is consumed exactly once.
func (c *Controller) Mount(ctx context.Context, nav *Navigation) error {
	start := nav.Take()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.setTitleLocked()
	c.mu.Unlock()

	loadErr := c.LoadConversations(ctx)
	if start == nil || start.PartnerID == 0 {
		return loadErr
	}

	c.mu.Lock()
	var match *models.ConversationSummary
	for i := range c.conversations {
		if c.conversations[i].PartnerID == start.PartnerID {
			found := c.conversations[i]
			match = &found
			break
		}
	}
	c.mu.Unlock()

	if match != nil {
		if err := c.SelectConversation(ctx, Real(*match)); err != nil && loadErr == nil {
			return err
		}
		return loadErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.generation++
	c.selected = Pending(start.partner())
	c.messages = Messages{Content: []models.MessageView{}}
	c.state = StateLoaded
	c.loadingMore = false
	return loadErr
}

// LoadConversations replaces the conversation list and the unread total.
// On failure the existing list is kept and an error is shown.
func (c *Controller) LoadConversations(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}

	conversations, err := c.api.ListConversations(ctx)
	if err == nil {
		var total int64
		total, err = c.api.UnreadCount(ctx)
		if err == nil {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.closed {
				return ErrClosed
			}
			c.applyConversationsLocked(conversations, total)
			return nil
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.listErr = errorText("Failed to load conversations", err)
	return err
}

// SelectConversation opens conv and loads its first page
func (c *Controller) SelectConversation(ctx context.Context, conv Conversation) error {
	if conv == nil {
		return ErrNoSelection
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.generation++
	gen := c.generation
	c.selected = conv
	c.messages = Messages{}
	c.state = StateLoading
	c.threadErr = ""
	c.loadingMore = false
	c.mu.Unlock()

	return c.fetchPage(ctx, gen, conv.PartnerID(), 0, true)
}

// LoadMessages fetches page of the open conversation with partnerID. Page 0
// replaces the loaded messages; later pages are appended and share the
// in-flight guard with LoadMoreMessages. A successful load marks the
// conversation read.
func (c *Controller) LoadMessages(ctx context.Context, partnerID uint, page int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.selected == nil || c.selected.PartnerID() != partnerID {
		c.mu.Unlock()
		return ErrNoSelection
	}
	if page > 0 && c.loadingMore {
		c.mu.Unlock()
		return ErrLoadInFlight
	}
	gen := c.generation
	if page <= 0 {
		page = 0
		c.state = StateLoading
	} else {
		c.loadingMore = true
		c.state = StateLoadingMore
	}
	c.mu.Unlock()

	return c.fetchPage(ctx, gen, partnerID, page, true)
}

// LoadMoreMessages appends the next older page of the open conversation
func (c *Controller) LoadMoreMessages(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.selected == nil:
		c.mu.Unlock()
		return ErrNoSelection
	case c.loadingMore || c.state == StateLoading:
		c.mu.Unlock()
		return ErrLoadInFlight
	case !c.messages.HasMore():
		c.mu.Unlock()
		return ErrLastPage
	}
	gen := c.generation
	partnerID := c.selected.PartnerID()
	next := c.messages.CurrentPage + 1
	c.loadingMore = true
	c.state = StateLoadingMore
	c.mu.Unlock()

	return c.fetchPage(ctx, gen, partnerID, next, false)
}

// SendMessage sends text to the open conversation with partnerID. Empty
// text, a missing selection or a send already in flight make it a no-op.
func (c *Controller) SendMessage(ctx context.Context, partnerID uint, text string) error {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case text == "":
		c.mu.Unlock()
		return ErrEmptyMessage
	case c.selected == nil || c.selected.PartnerID() != partnerID:
		c.mu.Unlock()
		return ErrNoSelection
	case c.sending:
		c.mu.Unlock()
		return ErrSendInFlight
	case utf8.RuneCountInString(text) > MaxMessageLength:
		c.threadErr = fmt.Sprintf("Message must be %d characters or fewer", MaxMessageLength)
		c.mu.Unlock()
		return ErrMessageTooLong
	}
	gen := c.generation
	c.sending = true
	c.state = StateSending
	c.threadErr = ""
	c.mu.Unlock()

	_, err := c.api.SendMessage(ctx, partnerID, text)

	c.mu.Lock()
	c.sending = false
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		if gen == c.generation {
			c.state = StateError
			c.threadErr = errorText("Failed to send message", err)
		}
		c.mu.Unlock()
		return err
	}
	current := gen == c.generation
	if current {
		c.draft = ""
		c.state = StateLoading
	}
	c.mu.Unlock()

	// The sent message is shown from the reload, not appended locally.
	if current {
		if err := c.fetchPage(ctx, gen, partnerID, 0, true); err != nil && !errors.Is(err, ErrStale) {
			c.logger.Warn("reload after send failed", slog.Any("error", err))
		}
	}
	if err := c.LoadConversations(ctx); err != nil {
		c.logger.Warn("conversation reload after send failed", slog.Any("error", err))
	}
	return nil
}

// SetDraft stores the compose text
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

// Draft returns the compose text
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Title returns the current window title
func (c *Controller) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.titleLocked()
}

func (c *Controller) titleLocked() string {
	if c.title == "" {
		return titleFor(c.unreadTotal)
	}
	return c.title
}

// Close detaches the controller. Later completions are ignored and the
// window title is reset.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.generation++
	c.selected = nil
	c.state = StateNoSelection
	c.setTitle(siteName)
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	conversations := make([]models.ConversationSummary, len(c.conversations))
	copy(conversations, c.conversations)
	messages := c.messages
	messages.Content = make([]models.MessageView, len(c.messages.Content))
	copy(messages.Content, c.messages.Content)

	return Snapshot{
		Conversations: conversations,
		Selected:      c.selected,
		Messages:      messages,
		UnreadTotal:   c.unreadTotal,
		State:         c.state,
		Error:         c.errorLocked(),
		Draft:         c.draft,
		Sending:       c.sending,
		Title:         c.titleLocked(),
	}
}

// fetchPage loads one page and applies it if the selection is unchanged
func (c *Controller) fetchPage(ctx context.Context, gen uint64, partnerID uint, page int, markRead bool) error {
	result, err := c.api.ListMessages(ctx, partnerID, page, PageSize)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if gen != c.generation {
		c.mu.Unlock()
		return ErrStale
	}
	if page > 0 {
		c.loadingMore = false
	}
	if err != nil {
		c.state = StateError
		c.threadErr = errorText("Failed to load messages", err)
		c.mu.Unlock()
		return err
	}

	if page == 0 {
		content := make([]models.MessageView, 0, len(result.Content))
		c.messages = Messages{Content: append(content, result.Content...)}
	} else {
		c.messages.Content = append(c.messages.Content, result.Content...)
	}
	c.messages.TotalElements = result.TotalElements
	c.messages.TotalPages = result.TotalPages
	c.messages.CurrentPage = page
	c.state = StateLoaded
	c.threadErr = ""
	c.mu.Unlock()

	if markRead {
		c.markRead(ctx, partnerID)
	}
	return nil
}

// markRead confirms the partner's messages as read. Failures are only logged.
func (c *Controller) markRead(ctx context.Context, partnerID uint) {
	if err := c.api.MarkRead(ctx, partnerID); err != nil {
		c.logger.Debug("mark read failed",
			slog.Uint64("partner_id", uint64(partnerID)),
			slog.Any("error", err))
		return
	}

	total, err := c.api.UnreadCount(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	for i := range c.conversations {
		if c.conversations[i].PartnerID == partnerID {
			c.conversations[i].UnreadCount = 0
		}
	}
	if rc, ok := c.selected.(RealConversation); ok && rc.Summary.PartnerID == partnerID {
		rc.Summary.UnreadCount = 0
		c.selected = rc
	}

	if err != nil {
		c.logger.Debug("unread count refresh failed", slog.Any("error", err))
		return
	}
	c.unreadTotal = total
	c.setTitleLocked()
}

// applyConversationsLocked installs a fresh list and reconciles the selection with it
func (c *Controller) applyConversationsLocked(conversations []models.ConversationSummary, total int64) {
	if conversations == nil {
		conversations = []models.ConversationSummary{}
	}
	c.conversations = conversations
	c.unreadTotal = total
	c.listErr = ""

	if c.selected != nil {
		id := c.selected.PartnerID()
		for _, conv := range conversations {
			if conv.PartnerID == id {
				c.selected = Real(conv)
				break
			}
		}
	}
	c.setTitleLocked()
}

// errorLocked prefers the thread error over the list error
func (c *Controller) errorLocked() string {
	if c.threadErr != "" {
		return c.threadErr
	}
	return c.listErr
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) setTitleLocked() {
	c.setTitle(titleFor(c.unreadTotal))
}

func (c *Controller) setTitle(title string) {
	if title == c.title {
		return
	}
	c.title = title
	if c.sink != nil {
		c.sink(title)
	}
}

func titleFor(unread int64) string {
	if unread > 0 {
		return fmt.Sprintf("Inbox (%d) – %s", unread, siteName)
	}
	return "Inbox – " + siteName
}

// errorText turns err into the inline error shown to the user
func errorText(prefix string, err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Status < 500 {
		return prefix + ": " + apiErr.Message
	}
	return prefix
}
