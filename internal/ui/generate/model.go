// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generate

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Navyasridurga/docstring/internal/docstyle"
	"github.com/Navyasridurga/docstring/internal/export"
	"github.com/Navyasridurga/docstring/internal/session"
	"github.com/Navyasridurga/docstring/internal/ui/components"
	"github.com/Navyasridurga/docstring/internal/ui/styles"
	"github.com/Navyasridurga/docstring/internal/upload"
)

// Generator starts generation sessions. *session.Client implements it.
type Generator interface {
	Run(ctx context.Context, req session.Request, cb session.Callbacks) *session.Session
}

// Options configures the generate view.
type Options struct {
	File      *upload.File
	Style     docstyle.Style
	Endpoint  string // Shown in the header
	OutputDir string // Where "s" saves the documented file
	ShowDiff  bool   // Start in the diff view
	Theme     *styles.Theme
}

// =============================================================================
// MESSAGES
// =============================================================================

// ReloadMsg replaces the source file and starts a new generation. The CLI
// sends it when a watched file changes.
type ReloadMsg struct {
	File *upload.File
}

type startMsg struct{}

// frameMsg asks the model to pick up buffered output for run runID.
type frameMsg struct {
	runID int
}

// finishedMsg reports the end of run runID.
type finishedMsg struct {
	runID   int
	state   session.State
	message string
}

// noticeMsg reports the result of a copy or save.
type noticeMsg struct {
	text  string
	isErr bool
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the generate view.
type Model struct {
	ctx  context.Context
	gen  Generator
	opts Options

	theme    *styles.Theme
	keys     KeyMap
	help     help.Model
	header   *components.Header
	status   *components.StatusBar
	spinner  components.Spinner
	viewport viewport.Model
	ready    bool
	width    int
	height   int

	session *session.Session
	buffer  *StreamingBuffer
	runID   int

	state    session.State
	output   string
	showDiff bool
	quitting bool

	copyFn func(string) error
}

// New creates the generate model. Generation starts when the program runs.
func New(ctx context.Context, gen Generator, opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	if opts.File == nil {
		opts.File = &upload.File{}
	}

	header := components.NewHeader(theme, opts.File.Name, opts.Style)
	header.Endpoint = opts.Endpoint
	header.ShowDiff = opts.ShowDiff

	h := help.New()
	h.Styles.ShortKey = theme.HelpKey
	h.Styles.ShortDesc = theme.HelpDesc
	h.Styles.ShortSeparator = theme.Muted

	return Model{
		ctx:      ctx,
		gen:      gen,
		opts:     opts,
		theme:    theme,
		keys:     DefaultKeyMap(),
		help:     h,
		header:   header,
		status:   components.NewStatusBar(theme),
		spinner:  components.NewSpinner(theme, "Generating "+opts.Style.Label()+" docstrings"),
		buffer:   NewStreamingBuffer(DefaultMaxFPS),
		state:    session.StateIdle,
		showDiff: opts.ShowDiff,
		copyFn:   export.Copy,
	}
}

// Output returns the documented text of the latest run.
func (m Model) Output() string {
	return m.output
}

// State returns the state of the latest run.
func (m Model) State() session.State {
	return m.state
}

// ShowingDiff reports whether the diff view is active.
func (m Model) ShowingDiff() bool {
	return m.showDiff
}

// Init starts the first generation.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return startMsg{} }
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case startMsg:
		return m, m.start()

	case ReloadMsg:
		if msg.File != nil {
			m.opts.File = msg.File
			m.header.FileName = msg.File.Name
		}
		return m, m.start()

	case frameMsg:
		if msg.runID != m.runID {
			return m, nil
		}
		if text, changed := m.buffer.Take(); changed {
			m.output = text
			m.refresh()
		}
		if m.state == session.StateStreaming {
			return m, frameTick(m.runID, m.buffer.Interval())
		}
		return m, nil

	case finishedMsg:
		return m.handleFinished(msg), nil

	case noticeMsg:
		m.status.SetNotice(msg.text, msg.isErr)
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.state == session.StateStreaming {
			m.cancel()
			m.state = session.StateCancelled
			m.spinner.Stop()
			m.status.SetNotice("Generation cancelled", false)
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleDiff):
		m.showDiff = !m.showDiff
		m.header.ShowDiff = m.showDiff
		m.refresh()
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Regenerate):
		return m, m.start()

	case key.Matches(msg, m.keys.Copy):
		return m, m.copyOutput()

	case key.Matches(msg, m.keys.Save):
		return m, m.saveOutput()
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleFinished(msg finishedMsg) Model {
	if msg.runID != m.runID {
		return m
	}
	m.spinner.Stop()
	m.output = m.buffer.Latest()
	m.status.Duration = m.spinner.Elapsed()

	// A run cancelled from the keyboard keeps its state.
	if m.state != session.StateCancelled {
		m.state = msg.state
	}
	switch m.state {
	case session.StateDone:
		m.status.SetNotice(fmt.Sprintf("Generated in %s", session.FormatDuration(m.status.Duration)), false)
	case session.StateFailed:
		m.status.SetNotice(msg.message, true)
	}
	m.refresh()
	return m
}

// =============================================================================
// GENERATION
// =============================================================================

// start cancels any run in flight and begins a new one.
func (m *Model) start() tea.Cmd {
	m.cancel()
	m.runID++
	id := m.runID

	buf := NewStreamingBuffer(DefaultMaxFPS)
	m.buffer = buf
	m.output = ""
	m.state = session.StateStreaming
	m.status.SetNotice("", false)
	m.status.Duration = 0

	results := make(chan finishedMsg, 1)
	cb := session.Callbacks{
		OnDelta: buf.Set,
		OnDone: func() {
			results <- finishedMsg{runID: id, state: session.StateDone}
		},
		OnError: func(message string) {
			results <- finishedMsg{runID: id, state: session.StateFailed, message: message}
		},
	}

	req := session.Request{Code: m.opts.File.Content, Style: m.opts.Style}
	m.session = m.gen.Run(m.ctx, req, cb)
	m.refresh()

	return tea.Batch(
		m.spinner.Start(),
		frameTick(id, buf.Interval()),
		waitForResult(id, m.session, results),
	)
}

// cancel stops the run in flight, if any.
func (m *Model) cancel() {
	if m.session != nil {
		m.session.Cancel()
	}
}

func frameTick(runID int, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return frameMsg{runID: runID}
	})
}

// waitForResult blocks until the session reports an outcome or exits. A
// cancelled session fires no callback, so its exit is reported from its
// final state instead.
func waitForResult(runID int, s *session.Session, results <-chan finishedMsg) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-results:
			return msg
		case <-s.Done():
			select {
			case msg := <-results:
				return msg
			default:
				return finishedMsg{runID: runID, state: s.State()}
			}
		}
	}
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) copyOutput() tea.Cmd {
	if msg, ok := m.exportBlocked(); ok {
		return func() tea.Msg { return msg }
	}
	content, copyFn := m.output, m.copyFn
	return func() tea.Msg {
		if err := copyFn(content); err != nil {
			return noticeMsg{text: err.Error(), isErr: true}
		}
		return noticeMsg{text: "Copied to clipboard"}
	}
}

func (m Model) saveOutput() tea.Cmd {
	if msg, ok := m.exportBlocked(); ok {
		return func() tea.Msg { return msg }
	}
	dir, name, content := m.opts.OutputDir, m.opts.File.Name, m.output
	return func() tea.Msg {
		path, err := export.Save(dir, name, content)
		if err != nil {
			return noticeMsg{text: err.Error(), isErr: true}
		}
		return noticeMsg{text: "Saved " + path}
	}
}

// exportBlocked returns the notice to show when there is nothing complete
// to copy or save.
func (m Model) exportBlocked() (noticeMsg, bool) {
	switch {
	case m.state == session.StateStreaming:
		return noticeMsg{text: "Generation still in progress", isErr: true}, true
	case m.output == "":
		return noticeMsg{text: "Nothing to export yet", isErr: true}, true
	}
	return noticeMsg{}, false
}
