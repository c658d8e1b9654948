package tui

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/itelinc/incuchat/internal/chat"
)

type composerMode int

const (
	composerBody composerMode = iota
	composerAttach
)

type composerState struct {
	active     bool
	mode       composerMode
	input      textinput.Model
	attachPath string
}

func newComposerState() composerState {
	input := textinput.New()
	input.Placeholder = "message"
	input.CharLimit = 4000
	return composerState{input: input}
}

func (c *composerState) open() {
	c.active = true
	c.mode = composerBody
	c.input.Placeholder = "message"
}

func (c *composerState) clear() {
	c.active = false
	c.mode = composerBody
	c.attachPath = ""
	c.input.SetValue("")
	c.input.Blur()
}

func (c *composerState) view(width int) string {
	prompt := "> "
	if c.mode == composerAttach {
		prompt = "attach> "
	} else if c.attachPath != "" {
		prompt = "[" + filepath.Base(c.attachPath) + "] > "
	}
	c.input.Prompt = prompt
	c.input.Width = width - len(prompt) - 2
	return c.input.View()
}

func (m *Model) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.composer.mode == composerAttach {
			m.composer.mode = composerBody
			m.composer.input.SetValue("")
			m.composer.input.Placeholder = "message"
			return m, nil
		}
		m.composer.clear()
		return m, nil

	case "ctrl+a":
		m.composer.mode = composerAttach
		m.composer.input.SetValue(m.composer.attachPath)
		m.composer.input.Placeholder = "path to file"
		return m, nil

	case "enter":
		if m.composer.mode == composerAttach {
			m.composer.attachPath = m.composer.input.Value()
			m.composer.mode = composerBody
			m.composer.input.SetValue("")
			m.composer.input.Placeholder = "message"
			return m, nil
		}
		return m.submitDraft()
	}

	var cmd tea.Cmd
	m.composer.input, cmd = m.composer.input.Update(msg)
	return m, cmd
}

func (m *Model) submitDraft() (tea.Model, tea.Cmd) {
	draft := chat.Draft{Body: m.composer.input.Value()}

	if m.composer.attachPath != "" {
		data, err := os.ReadFile(m.composer.attachPath)
		if err != nil {
			m.errLine = "read attachment: " + err.Error()
			return m, nil
		}
		draft.AttachmentName = filepath.Base(m.composer.attachPath)
		draft.AttachmentData = data
	}

	if draft.Body == "" && len(draft.AttachmentData) == 0 {
		// Empty composer submits nothing.
		m.composer.clear()
		return m, nil
	}

	m.errLine = ""
	m.statusLine = "sending..."
	return m, m.sendCmd(m.thread.conversationID, draft)
}
