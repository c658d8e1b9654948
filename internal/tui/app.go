// Package tui implements the interactive terminal client for incuchat:
// a conversation list pane, a thread pane, and a composer, kept fresh by
// the background poller.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/itelinc/incuchat/internal/cache"
	"github.com/itelinc/incuchat/internal/chat"
	"github.com/itelinc/incuchat/internal/config"
	"github.com/itelinc/incuchat/internal/logging"
	"github.com/itelinc/incuchat/internal/portal"
)

type paneID int

const (
	paneList paneID = iota
	paneThread
	paneHistory
)

// Config wires the TUI to an assembled sync stack.
type Config struct {
	Engine  *chat.Engine
	Client  *portal.Client
	AppCfg  *config.Config
	Version string
}

// engineUpdateMsg signals that the sync engine changed observable state.
type engineUpdateMsg struct{}

// errMsg carries an async failure into the update loop.
type errMsg struct{ err error }

// sentMsg reports a completed send.
type sentMsg struct{ conversationID int64 }

// selectedMsg reports a completed conversation selection.
type selectedMsg struct{ conversationID int64 }

// historyMsg carries the full cross-conversation transcript.
type historyMsg struct{ messages []chat.Message }

type Model struct {
	engine  *chat.Engine
	client  *portal.Client
	tracker *chat.ReadTracker
	poller  *chat.Poller
	cancel  context.CancelFunc

	styles styleSet
	theme  Theme

	width  int
	height int

	focus    paneID
	list     listState
	thread   threadState
	history  historyState
	composer composerState

	statusLine string
	errLine    string

	showTimestamps bool
	version        string
}

// NewModel assembles the TUI model. The caller owns the engine.
func NewModel(cfg Config) *Model {
	theme := Theme(cfg.AppCfg.TUI.Theme)
	m := &Model{
		engine:         cfg.Engine,
		client:         cfg.Client,
		tracker:        chat.NewReadTracker(cfg.Client, cfg.Engine.Session(), cfg.Engine.MessageStore()),
		styles:         newStyleSet(theme),
		theme:          theme,
		focus:          paneList,
		showTimestamps: cfg.AppCfg.TUI.ShowTimestamps,
		version:        cfg.Version,
	}
	m.composer = newComposerState()
	m.poller = chat.NewPoller(cfg.Engine, chat.PollerConfig{
		ListInterval:    cfg.AppCfg.Poll.ListInterval,
		MessageInterval: cfg.AppCfg.Poll.MessageInterval,
	})
	return m
}

// Run builds the full stack from configuration and drives the program.
func Run(cfg *config.Config, version string) error {
	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       os.Stderr,
		EnableCaller: cfg.Logging.EnableCaller,
	})

	if cfg.Portal.BaseURL == "" {
		return errors.New("portal.base_url is not configured")
	}
	token, err := cfg.Token()
	if err != nil {
		return fmt.Errorf("no portal token, run `incuchat auth`: %w", err)
	}

	session := chat.SessionFromConfig(cfg)
	client := portal.New(portal.Config{
		BaseURL:     cfg.Portal.BaseURL,
		Token:       token,
		Session:     session,
		AuditModule: cfg.Portal.AuditModule,
		Timeout:     cfg.Portal.Timeout,
	})

	opts := []chat.EngineOption{chat.WithReconcileDelay(cfg.Poll.ReconcileDelay)}
	if cfg.Cache.Path != "" {
		if err := cfg.EnsureDirectories(); err == nil {
			if store, err := cache.Open(cfg.Cache.Path); err == nil {
				defer store.Close()
				opts = append(opts, chat.WithSnapshotCache(store))
			}
		}
	}

	engine := chat.NewEngine(client, session, opts...)
	engine.LoadCached(context.Background())

	model := NewModel(Config{Engine: engine, Client: client, AppCfg: cfg, Version: version})
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// Execute loads default configuration and runs the TUI. It is the no-args
// entry point of the binary.
func Execute(version string) error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}
	return Run(cfg, version)
}

func (m *Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.poller != nil {
		_ = m.poller.Stop()
	}
	m.tracker.Wait()
}

func (m *Model) Init() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	if err := m.poller.Start(ctx); err != nil && !errors.Is(err, chat.ErrPollerAlreadyRunning) {
		m.errLine = err.Error()
	}
	return tea.Batch(
		m.refreshListCmd(ctx),
		m.waitForUpdate(),
		textinput.Blink,
	)
}

// waitForUpdate bridges the engine's update channel into the message loop.
func (m *Model) waitForUpdate() tea.Cmd {
	updates := m.engine.Updates()
	return func() tea.Msg {
		<-updates
		return engineUpdateMsg{}
	}
}

func (m *Model) refreshListCmd(ctx context.Context) tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		if err := engine.RefreshList(ctx); err != nil {
			return errMsg{err}
		}
		return engineUpdateMsg{}
	}
}

func (m *Model) selectCmd(conversationID int64) tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		if err := engine.Select(context.Background(), conversationID); err != nil {
			return errMsg{err}
		}
		return selectedMsg{conversationID}
	}
}

func (m *Model) historyCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		messages, err := client.History(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return historyMsg{messages}
	}
}

func (m *Model) sendCmd(conversationID int64, draft chat.Draft) tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		if _, err := engine.Send(context.Background(), conversationID, draft); err != nil {
			return errMsg{err}
		}
		return sentMsg{conversationID}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.thread.resize(typed.Width, m.threadHeight())
		return m, nil

	case engineUpdateMsg:
		m.syncFromEngine()
		return m, m.waitForUpdate()

	case selectedMsg:
		m.thread.conversationID = typed.conversationID
		m.focus = paneThread
		m.syncFromEngine()
		m.observeVisible()
		return m, nil

	case historyMsg:
		m.history.setMessages(typed.messages)
		m.focus = paneHistory
		m.statusLine = ""
		m.history.resize(m.width, m.bodyHeight())
		m.history.refreshViewport(m)
		return m, nil

	case sentMsg:
		m.composer.clear()
		m.statusLine = "sent"
		m.syncFromEngine()
		return m, nil

	case errMsg:
		if errors.Is(typed.err, portal.ErrSessionExpired) {
			m.errLine = "session expired, re-authenticate with `incuchat auth`"
		} else {
			m.errLine = typed.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(typed)
	}

	if m.composer.active {
		var cmd tea.Cmd
		m.composer.input, cmd = m.composer.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.composer.active {
		return m.handleComposerKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		if m.focus == paneList {
			m.focus = paneThread
		} else {
			m.focus = paneList
		}
		return m, nil
	case "esc":
		switch m.focus {
		case paneThread:
			m.engine.Deselect()
			m.thread.conversationID = 0
			m.focus = paneList
		case paneHistory:
			m.focus = paneList
		}
		return m, nil
	}

	switch m.focus {
	case paneList:
		return m.handleListKey(msg)
	case paneHistory:
		return m.handleHistoryKey(msg)
	}
	return m.handleThreadKey(msg)
}

// syncFromEngine pulls the latest store state into the panes, skipping work
// when nothing changed.
func (m *Model) syncFromEngine() {
	listVersion, msgVersion := m.engine.StoreVersions()
	changed := listVersion != m.list.version || msgVersion != m.thread.version
	m.list.version = listVersion
	m.thread.version = msgVersion
	if !changed {
		return
	}

	m.list.conversations = m.engine.Conversations()
	m.list.clampCursor()

	if m.thread.conversationID != 0 {
		m.thread.messages = m.engine.Messages(m.thread.conversationID)
		m.thread.refreshViewport(m)
		m.observeVisible()
	}
}

// observeVisible feeds the thread's messages to the read tracker. The
// tracker ignores everything except inbound unread messages.
func (m *Model) observeVisible() {
	conversation, ok := m.engine.Conversation(m.thread.conversationID)
	if !ok {
		return
	}
	for _, msg := range m.thread.messages {
		m.tracker.Observe(context.Background(), conversation, msg)
	}
}

func (m *Model) threadHeight() int {
	// Header, footer, composer line.
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) bodyHeight() int {
	h := m.height - 2
	if m.composer.active {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	header := m.renderHeader()
	footer := m.renderFooter()

	listWidth := m.width / 3
	if listWidth < 24 {
		listWidth = 24
	}
	threadWidth := m.width - listWidth - 1

	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if m.composer.active {
		bodyHeight--
	}
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	var body string
	if m.focus == paneHistory {
		body = m.renderHistory(m.width, bodyHeight)
	} else {
		listPane := m.renderList(listWidth, bodyHeight)
		threadPane := m.renderThread(threadWidth, bodyHeight)
		body = lipgloss.JoinHorizontal(lipgloss.Top, listPane, " ", threadPane)
	}

	sections := []string{header, body}
	if m.composer.active {
		sections = append(sections, m.composer.view(m.width))
	}
	sections = append(sections, footer)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader() string {
	session := m.engine.Session()
	title := fmt.Sprintf("incuchat %s · %s", m.version, session.DisplayName)
	return m.styles.header.Width(m.width).Render(title)
}

func (m *Model) renderFooter() string {
	if m.errLine != "" {
		return m.styles.errorLine.Width(m.width).Render(m.errLine)
	}
	help := "enter open · tab switch · c compose · h history · x close · esc back · q quit"
	if m.statusLine != "" {
		help = m.statusLine + " · " + help
	}
	return m.styles.footer.Width(m.width).Render(help)
}
