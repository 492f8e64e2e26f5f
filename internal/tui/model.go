// Package tui is the terminal front end of the inbox. It renders controller
// snapshots and runs every controller operation as a tea.Cmd.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/welldanyogia/seatea-inbox/internal/badge"
	"github.com/welldanyogia/seatea-inbox/internal/client"
	"github.com/welldanyogia/seatea-inbox/internal/inbox"
)

const requestTimeout = 15 * time.Second

type focusArea int

const (
	focusList focusArea = iota
	focusCompose
)

// Options configures the inbox UI
type Options struct {
	Controller *inbox.Controller
	// Navigation carries an optional deep-link payload consumed on mount
	Navigation *inbox.Navigation
	Badge      *badge.Poller
	Logger     *slog.Logger
	Now        func() time.Time
}

type mountedMsg struct{ err error }

type listLoadedMsg struct{ err error }

type threadLoadedMsg struct {
	err   error
	older bool
}

type sentMsg struct{ err error }

type badgeMsg struct{ count int64 }

// Model is the bubbletea model of the inbox screen
type Model struct {
	ctrl   *inbox.Controller
	nav    *inbox.Navigation
	badge  *badge.Poller
	logger *slog.Logger
	now    func() time.Time

	keys     keyMap
	help     help.Model
	input    textarea.Model
	viewport viewport.Model

	snap       inbox.Snapshot
	cursor     int
	focus      focusArea
	notice     string
	title      string
	badgeCount int64
	width      int
	height     int
	quitting   bool
}

// New creates the inbox model
func New(opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	input := textarea.New()
	input.Placeholder = "Write a message…"
	input.CharLimit = inbox.MaxMessageLength
	input.ShowLineNumbers = false
	input.SetHeight(3)

	return &Model{
		ctrl:     opts.Controller,
		nav:      opts.Navigation,
		badge:    opts.Badge,
		logger:   opts.Logger,
		now:      opts.Now,
		keys:     defaultKeyMap(),
		help:     help.New(),
		input:    input,
		viewport: viewport.New(0, 0),
	}
}

// Run starts the UI and blocks until the user quits or ctx is done
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.Badge != nil {
		go opts.Badge.Run(ctx)
	}

	m := New(opts)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	m.ctrl.Close()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.mountCmd(), m.waitForBadge(), m.syncTitle())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refresh(true)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case mountedMsg:
		m.noteError(msg.err)
		m.refresh(true)
		m.followSelection()
		return m, m.syncTitle()

	case listLoadedMsg:
		m.noteError(msg.err)
		m.refresh(false)
		return m, m.syncTitle()

	case threadLoadedMsg:
		m.noteError(msg.err)
		m.refresh(!msg.older)
		if msg.older {
			m.viewport.GotoTop()
		}
		m.triggerBadge()
		return m, m.syncTitle()

	case sentMsg:
		if msg.err == nil {
			m.input.Reset()
		}
		m.noteError(msg.err)
		m.refresh(true)
		m.triggerBadge()
		return m, m.syncTitle()

	case badgeMsg:
		m.badgeCount = msg.count
		return m, m.waitForBadge()
	}

	if m.focus == focusCompose {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m.quit()
	}

	if m.focus == focusCompose {
		switch {
		case key.Matches(msg, m.keys.Focus), msg.Type == tea.KeyEsc:
			m.focus = focusList
			m.input.Blur()
			return nil
		case key.Matches(msg, m.keys.Send):
			return m.sendCmd()
		case key.Matches(msg, m.keys.Older):
			return m.olderCmd()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.ctrl.SetDraft(m.input.Value())
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snap.Conversations)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		return m.openCmd()
	case key.Matches(msg, m.keys.Focus):
		m.focus = focusCompose
		return m.input.Focus()
	case key.Matches(msg, m.keys.Send):
		return m.sendCmd()
	case key.Matches(msg, m.keys.Older):
		return m.olderCmd()
	case key.Matches(msg, m.keys.Reload):
		return m.reloadCmd()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) mountCmd() tea.Cmd {
	ctrl, nav := m.ctrl, m.nav
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return mountedMsg{err: ctrl.Mount(ctx, nav)}
	}
}

func (m *Model) openCmd() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.snap.Conversations) {
		return nil
	}
	conv := inbox.Real(m.snap.Conversations[m.cursor])
	m.notice = ""
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return threadLoadedMsg{err: ctrl.SelectConversation(ctx, conv)}
	}
}

func (m *Model) olderCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return threadLoadedMsg{err: ctrl.LoadMoreMessages(ctx), older: true}
	}
}

func (m *Model) sendCmd() tea.Cmd {
	if m.snap.Selected == nil {
		m.notice = "Select a conversation first"
		return nil
	}
	partnerID := m.snap.Selected.PartnerID()
	text := m.input.Value()
	m.ctrl.SetDraft(text)
	m.notice = ""

	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return sentMsg{err: ctrl.SendMessage(ctx, partnerID, text)}
	}
}

func (m *Model) reloadCmd() tea.Cmd {
	m.notice = ""
	m.triggerBadge()

	var partnerID uint
	if sel := m.snap.Selected; sel != nil && !inbox.IsPending(sel) {
		partnerID = sel.PartnerID()
	}
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := ctrl.LoadConversations(ctx)
		if partnerID != 0 {
			if threadErr := ctrl.LoadMessages(ctx, partnerID, 0); threadErr != nil && err == nil {
				err = threadErr
			}
		}
		return listLoadedMsg{err: err}
	}
}

func (m *Model) waitForBadge() tea.Cmd {
	if m.badge == nil {
		return nil
	}
	updates := m.badge.Updates()
	return func() tea.Msg {
		return badgeMsg{count: <-updates}
	}
}

func (m *Model) triggerBadge() {
	if m.badge != nil {
		m.badge.Trigger()
	}
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.ctrl.Close()
	m.title = m.ctrl.Title()
	m.logger.Info("inbox closed")
	return tea.Sequence(tea.SetWindowTitle(m.title), tea.Quit)
}

// syncTitle emits a window title change when the controller's title moved
func (m *Model) syncTitle() tea.Cmd {
	title := m.ctrl.Title()
	if title == m.title {
		return nil
	}
	m.title = title
	return tea.SetWindowTitle(title)
}

// noteError turns guard errors into a status notice. API failures are
// already part of the snapshot.
func (m *Model) noteError(err error) {
	switch {
	case err == nil, errors.Is(err, inbox.ErrStale), errors.Is(err, inbox.ErrClosed):
	case errors.Is(err, inbox.ErrEmptyMessage):
		m.notice = "Type a message first"
	case errors.Is(err, inbox.ErrNoSelection):
		m.notice = "Select a conversation first"
	case errors.Is(err, inbox.ErrSendInFlight), errors.Is(err, inbox.ErrLoadInFlight):
		m.notice = "Please wait…"
	case errors.Is(err, inbox.ErrLastPage):
		m.notice = "No older messages"
	case client.IsUnauthorized(err):
		m.notice = "Session expired: get a new token with `inbox token`"
	default:
		m.logger.Debug("inbox operation failed", slog.Any("error", err))
	}
}

// refresh copies controller state into the model and rebuilds the thread
func (m *Model) refresh(toBottom bool) {
	m.snap = m.ctrl.Snapshot()
	if m.cursor >= len(m.snap.Conversations) {
		m.cursor = len(m.snap.Conversations) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.viewport.SetContent(m.renderThread())
	if toBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) followSelection() {
	sel := m.snap.Selected
	if sel == nil {
		return
	}
	for i, c := range m.snap.Conversations {
		if c.PartnerID == sel.PartnerID() {
			m.cursor = i
			return
		}
	}
}

func (m *Model) resize() {
	listW := listWidth(m.width)
	threadW := m.width - listW - 1
	if threadW < 10 {
		threadW = 10
	}
	m.input.SetWidth(threadW)
	m.help.Width = m.width

	// header, partner line, status, help and the compose box
	chrome := 4 + m.input.Height() + 2
	m.viewport.Width = threadW
	m.viewport.Height = max(m.height-chrome, 1)
}

func listWidth(total int) int {
	return min(32, max(total/3, 16))
}
