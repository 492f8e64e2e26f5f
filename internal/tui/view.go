package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/welldanyogia/seatea-inbox/internal/badge"
	"github.com/welldanyogia/seatea-inbox/internal/inbox"
	"github.com/welldanyogia/seatea-inbox/internal/models"
)

var (
	accentColor = lipgloss.Color("30")
	mutedColor  = lipgloss.Color("242")
	errorColor  = lipgloss.Color("196")
	unreadColor = lipgloss.Color("220")

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	badgeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(unreadColor).Padding(0, 1)
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle    = lipgloss.NewStyle().Foreground(errorColor)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	unreadStyle   = lipgloss.NewStyle().Bold(true).Foreground(unreadColor)
	ownStyle      = lipgloss.NewStyle().Foreground(accentColor)
	composeStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderTop(true).BorderForeground(mutedColor)
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	header := m.renderHeader()
	list := lipgloss.NewStyle().Width(listWidth(m.width)).Render(m.renderList())
	thread := lipgloss.JoinVertical(lipgloss.Left,
		m.renderPartner(),
		m.viewport.View(),
		composeStyle.Render(m.input.View()),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, list, " ", thread)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		m.renderStatus(),
		m.help.View(m.keys),
	)
}

func (m *Model) renderHeader() string {
	out := headerStyle.Render("Sea & Tea · Inbox")
	if label := badge.Label(m.badgeCount); label != "" {
		out += " " + badgeStyle.Render(label)
	}
	return out
}

func (m *Model) renderList() string {
	var b strings.Builder
	if sel := m.snap.Selected; sel != nil && inbox.IsPending(sel) {
		b.WriteString(selectedStyle.Render("▸ " + displayName(sel.Partner())))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("  New conversation"))
		b.WriteString("\n")
	}
	if len(m.snap.Conversations) == 0 {
		if m.snap.Selected == nil {
			b.WriteString(mutedStyle.Render("No conversations yet"))
		}
		return b.String()
	}

	width := listWidth(m.width) - 2
	for i, c := range m.snap.Conversations {
		name := c.PartnerName
		if name == "" {
			name = fmt.Sprintf("User %d", c.PartnerID)
		}
		line := name
		if c.UnreadCount > 0 {
			line = fmt.Sprintf("%s %s", name, unreadStyle.Render(fmt.Sprintf("● %d", c.UnreadCount)))
		}

		prefix := "  "
		if i == m.cursor {
			prefix = "› "
		}
		if sel := m.snap.Selected; sel != nil && sel.PartnerID() == c.PartnerID {
			line = selectedStyle.Render(line)
		}
		b.WriteString(prefix + line + "\n")

		meta := truncate(c.LastMessagePreview, width-8)
		if !c.LastMessageAt.IsZero() {
			meta = fmt.Sprintf("%s · %s", inbox.FormatTimestamp(c.LastMessageAt, m.now()), meta)
		}
		b.WriteString(mutedStyle.Render("  " + truncate(meta, width)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderPartner() string {
	sel := m.snap.Selected
	if sel == nil {
		return mutedStyle.Render("Select a conversation")
	}
	p := sel.Partner()
	out := headerStyle.Render(displayName(p))
	if p.Role != "" {
		out += mutedStyle.Render(" (" + strings.ToLower(p.Role) + ")")
	}
	switch m.snap.State {
	case inbox.StateLoading:
		out += mutedStyle.Render("  loading…")
	case inbox.StateLoadingMore:
		out += mutedStyle.Render("  loading older…")
	case inbox.StateSending:
		out += mutedStyle.Render("  sending…")
	}
	return out
}

// renderThread lists the loaded messages oldest first so the newest sits at
// the bottom of the viewport.
func (m *Model) renderThread() string {
	sel := m.snap.Selected
	if sel == nil {
		return ""
	}
	msgs := m.snap.Messages.Content
	if len(msgs) == 0 {
		if m.snap.State == inbox.StateLoaded {
			return mutedStyle.Render("No messages yet. Say hello!")
		}
		return ""
	}

	partner := sel.Partner()
	width := m.viewport.Width
	var b strings.Builder
	if m.snap.Messages.HasMore() {
		b.WriteString(mutedStyle.Render("ctrl+o for older messages"))
		b.WriteString("\n\n")
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		b.WriteString(m.renderMessage(msgs[i], partner, width))
		if i > 0 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func (m *Model) renderMessage(msg models.MessageView, partner inbox.Partner, width int) string {
	author := "You"
	style := ownStyle
	if msg.SenderID == partner.ID {
		author = msg.SenderName
		if author == "" {
			author = displayName(partner)
		}
		style = lipgloss.NewStyle().Bold(true)
	}
	meta := style.Render(author) + mutedStyle.Render(" · "+inbox.FormatTimestamp(msg.CreatedAt, m.now()))

	text := msg.Message
	if width > 0 {
		text = lipgloss.NewStyle().Width(width).Render(text)
	}
	return meta + "\n" + text
}

func (m *Model) renderStatus() string {
	switch {
	case m.snap.Error != "" && m.notice != "":
		return errorStyle.Render(m.snap.Error) + "  " + mutedStyle.Render(m.notice)
	case m.snap.Error != "":
		return errorStyle.Render(m.snap.Error)
	default:
		return mutedStyle.Render(m.notice)
	}
}

func displayName(p inbox.Partner) string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Email != "":
		return p.Email
	default:
		return fmt.Sprintf("User %d", p.ID)
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
