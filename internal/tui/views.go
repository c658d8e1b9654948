package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/wordwrap"

	"github.com/itelinc/incuchat/internal/chat"
)

type listState struct {
	conversations []chat.Conversation
	cursor        int
	version       uint64
}

func (s *listState) clampCursor() {
	if s.cursor >= len(s.conversations) {
		s.cursor = len(s.conversations) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *listState) current() (chat.Conversation, bool) {
	if s.cursor < 0 || s.cursor >= len(s.conversations) {
		return chat.Conversation{}, false
	}
	return s.conversations[s.cursor], true
}

type threadState struct {
	conversationID int64
	messages       []chat.Message
	viewport       viewport.Model
	ready          bool
	version        uint64
}

func (s *threadState) resize(width, height int) {
	if !s.ready {
		s.viewport = viewport.New(width, height)
		s.ready = true
		return
	}
	s.viewport.Width = width
	s.viewport.Height = height
}

// refreshViewport re-renders the transcript and keeps the view pinned to the
// bottom when it already was.
func (s *threadState) refreshViewport(m *Model) {
	if !s.ready {
		return
	}
	atBottom := s.viewport.AtBottom()
	s.viewport.SetContent(m.renderTranscript(s.viewport.Width))
	if atBottom {
		s.viewport.GotoBottom()
	}
}

type historyState struct {
	messages []chat.Message
	viewport viewport.Model
	ready    bool
}

func (s *historyState) setMessages(messages []chat.Message) {
	s.messages = append([]chat.Message(nil), messages...)
	sort.Slice(s.messages, func(i, j int) bool {
		a, b := s.messages[i], s.messages[j]
		if !a.CreatedTime.Equal(b.CreatedTime.Time) {
			return a.CreatedTime.Before(b.CreatedTime.Time)
		}
		return a.ID < b.ID
	})
}

func (s *historyState) resize(width, height int) {
	if !s.ready {
		s.viewport = viewport.New(width, height)
		s.ready = true
		return
	}
	s.viewport.Width = width
	s.viewport.Height = height
}

func (s *historyState) refreshViewport(m *Model) {
	if !s.ready {
		return
	}
	s.viewport.SetContent(m.renderHistoryTranscript(s.viewport.Width))
	s.viewport.GotoBottom()
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.list.cursor > 0 {
			m.list.cursor--
		}
	case "down", "j":
		if m.list.cursor < len(m.list.conversations)-1 {
			m.list.cursor++
		}
	case "enter":
		if c, ok := m.list.current(); ok {
			return m, m.selectCmd(c.ID)
		}
	case "h":
		m.statusLine = "loading history"
		return m, m.historyCmd()
	case "x":
		if c, ok := m.list.current(); ok && !c.Closed() {
			engine := m.engine
			id := c.ID
			return m, func() tea.Msg {
				if err := engine.CloseConversation(context.Background(), id); err != nil {
					return errMsg{err}
				}
				return engineUpdateMsg{}
			}
		}
	}
	return m, nil
}

func (m *Model) handleThreadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "c":
		conversation, ok := m.engine.Conversation(m.thread.conversationID)
		if !ok {
			return m, nil
		}
		if err := composable(conversation, m.engine.Session()); err != nil {
			m.errLine = err.Error()
			return m, nil
		}
		m.errLine = ""
		m.composer.open()
		return m, m.composer.input.Focus()
	}

	var cmd tea.Cmd
	m.thread.viewport, cmd = m.thread.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.history.viewport, cmd = m.history.viewport.Update(msg)
	return m, cmd
}

// composable mirrors the send-path gate so the composer refuses to open for
// conversations a send would reject anyway.
func composable(c chat.Conversation, s chat.Session) error {
	if !c.Participant(s.UserID) {
		return chat.ErrNotParticipant
	}
	if c.Closed() {
		return chat.ErrConversationClosed
	}
	if !c.TypeID.AllowsReply() && !s.Incubator() {
		return chat.ErrBroadcastNoReply
	}
	return nil
}

func (m *Model) renderList(width, height int) string {
	var b strings.Builder
	session := m.engine.Session()

	for i, c := range m.list.conversations {
		if i >= height {
			break
		}
		marker := "  "
		line := fmt.Sprintf("%s%s · %s", marker, c.PartnerName(session.UserID), oneLine(c.Subject))
		line = runewidth.Truncate(line, width, "…")

		style := m.styles.normal
		switch {
		case i == m.list.cursor && m.focus == paneList:
			style = m.styles.selected
		case c.Closed():
			style = m.styles.closed
		}
		b.WriteString(style.Render(line))
		b.WriteByte('\n')
	}
	if len(m.list.conversations) == 0 {
		b.WriteString(m.styles.footer.Render("no conversations"))
	}
	return lipglossPlace(width, height, b.String())
}

func (m *Model) renderThread(width, height int) string {
	if m.thread.conversationID == 0 {
		return lipglossPlace(width, height, m.styles.footer.Render("select a conversation"))
	}
	m.thread.resize(width, height)
	m.thread.refreshViewport(m)
	return m.thread.viewport.View()
}

func (m *Model) renderHistory(width, height int) string {
	if len(m.history.messages) == 0 {
		return lipglossPlace(width, height, m.styles.footer.Render("no history"))
	}
	m.history.resize(width, height)
	m.history.refreshViewport(m)
	return m.history.viewport.View()
}

// renderHistoryTranscript renders the flat cross-conversation transcript,
// one line of context per message naming its conversation.
func (m *Model) renderHistoryTranscript(width int) string {
	session := m.engine.Session()
	var b strings.Builder

	for _, msg := range m.history.messages {
		style := m.styles.inbound
		prefix := "←"
		if msg.From == session.UserID {
			style = m.styles.outbound
			prefix = "→"
		}

		subject := fmt.Sprintf("#%d", msg.ConversationID)
		if c, ok := m.engine.Conversation(msg.ConversationID); ok {
			subject = oneLine(c.Subject)
		}
		meta := m.styles.timestamp.Render(
			msg.CreatedTime.Format("2006-01-02 15:04") + " · " + runewidth.Truncate(subject, 24, "…"),
		)

		body := msg.Body
		if msg.HasAttachment() {
			body += " [" + msg.AttachmentName + "]"
		}
		wrapped := wordwrap.String(body, width-4)
		b.WriteString(meta + "\n" + style.Render(prefix+" "+wrapped))
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *Model) renderTranscript(width int) string {
	session := m.engine.Session()
	var b strings.Builder

	for _, msg := range m.thread.messages {
		style := m.styles.inbound
		prefix := "←"
		if msg.From == session.UserID {
			style = m.styles.outbound
			prefix = "→"
		}
		if msg.Unread() && msg.To == session.UserID {
			style = m.styles.unread
		}

		var meta string
		if m.showTimestamps {
			meta = m.styles.timestamp.Render(msg.CreatedTime.Format("Jan 2 15:04")) + " "
		}
		body := msg.Body
		if msg.HasAttachment() {
			body += " [" + msg.AttachmentName + "]"
		}
		if msg.ReplyFor != nil {
			body = replyContext(m.thread.messages, *msg.ReplyFor) + "\n" + body
		}

		wrapped := wordwrap.String(body, width-4)
		b.WriteString(meta + style.Render(prefix+" "+wrapped))
		b.WriteByte('\n')
	}
	return b.String()
}

// replyContext renders the quoted target of a reply. A target missing from
// the snapshot degrades to a placeholder, never an error.
func replyContext(messages []chat.Message, targetID int64) string {
	for _, m := range messages {
		if m.ID == targetID {
			return "> " + runewidth.Truncate(oneLine(m.Body), 60, "…")
		}
	}
	return "> (no preview available)"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func lipglossPlace(width, height int, content string) string {
	lines := strings.Split(content, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		if w := ansi.PrintableRuneWidth(line); w < width {
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	return strings.Join(lines, "\n")
}
