package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/reinhart/postAgent/internal/assistant"
	"github.com/reinhart/postAgent/internal/logger"
)

// --- Mocha Palette & Styles ---

var (
	// Colors
	mochaText    = lipgloss.Color("#cdd6f4") // Main text
	colorSubtext = lipgloss.Color("#9399b2")

	colorCream  = lipgloss.Color("#f5e0dc")
	colorLatte  = lipgloss.Color("#ef9f76") // Orange-ish (User)
	colorMatcha = lipgloss.Color("#a6e3a1") // Green-ish (Assistant)
	colorCoffee = lipgloss.Color("#fab387") // Peach/Brown
	colorMauve  = lipgloss.Color("#cba6f7") // Purple/Accent

	colorBorder = lipgloss.Color("#45475a") // Soft gray-blue border
	colorActive = lipgloss.Color("#f9e2af") // Yellow/Gold focus

	// Component Styles
	styleBase = lipgloss.NewStyle().Foreground(mochaText)

	styleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	styleFocusBorder = styleBorder.
				BorderForeground(colorActive)

	styleUserHeader = lipgloss.NewStyle().
			Foreground(colorLatte).
			Bold(true).
			MarginTop(1)

	styleAgentHeader = lipgloss.NewStyle().
				Foreground(colorMatcha).
				Bold(true).
				MarginTop(1)

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f38ba8")). // Red
			Bold(true)

	stylePrompt = lipgloss.NewStyle().
			Foreground(colorMauve).
			Italic(true)

	styleStatus = lipgloss.NewStyle().
			Foreground(colorSubtext).
			Italic(true)
)

// Model renders the loop's events and forwards user commands to it.
// It never touches the conversation itself.
type Model struct {
	loop     *assistant.Loop
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	form     contactForm
	renderer *glamour.TermRenderer

	busy     bool
	fallback bool
	blocks   []string
	status   string

	// Layout
	width  int
	height int
}

func NewModel(loop *assistant.Loop, assistantName, greeting string) Model {
	vp := viewport.New(80, 20)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorMauve)

	m := Model{
		loop:     loop,
		textarea: newTextarea(80),
		viewport: vp,
		spinner:  s,
		form:     newContactForm(),
		width:    80,
	}
	m.renderer = newRenderer(76)
	if greeting != "" {
		m.blocks = append(m.blocks, styleAgentHeader.Render(assistantName)+"\n"+styleBase.Render(greeting))
	}
	m.refreshViewport()
	return m
}

func newTextarea(width int) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "Ask for posts about a topic..."
	ta.Focus()
	ta.SetHeight(3)
	ta.SetWidth(width - 4)
	ta.ShowLineNumbers = false
	ta.Prompt = ""     // Disable default prompt to avoid repetition on every line
	ta.CharLimit = 280 // Prevent massive inputs

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle() // No extra bg
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorSubtext)
	ta.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(colorCoffee)
	ta.FocusedStyle.Text = lipgloss.NewStyle().Foreground(colorCream)
	return ta
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		logger.Warn("Markdown rendering disabled: %v", err)
		return nil
	}
	return r
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, listenForEvents(m.loop.Events()))
}

type loopEventMsg struct {
	event assistant.Event
}

type commandDoneMsg struct {
	err error
}

func listenForEvents(sub <-chan assistant.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-sub
		if !ok {
			return nil
		}
		return loopEventMsg{event: evt}
	}
}

// The loop applies its own turn timeout, so commands run on a background context.
func (m Model) submit(input string) tea.Cmd {
	return func() tea.Msg {
		return commandDoneMsg{err: m.loop.Submit(context.Background(), input)}
	}
}

func (m Model) confirm(payload map[string]string) tea.Cmd {
	return func() tea.Msg {
		return commandDoneMsg{err: m.loop.ConfirmFallback(context.Background(), payload)}
	}
}

func (m Model) cancel() tea.Cmd {
	return func() tea.Msg {
		return commandDoneMsg{err: m.loop.CancelFallback(context.Background())}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Borders + Status + Padding + input box
		verticalMargins := 7
		if m.fallback {
			verticalMargins += m.form.height() - 3
		}
		viewportHeight := msg.Height - verticalMargins
		if viewportHeight < 5 {
			viewportHeight = 5
		}

		m.viewport.Width = msg.Width - 4 // Minus borders/padding
		m.viewport.Height = viewportHeight
		m.textarea.SetWidth(msg.Width - 4)
		m.form.setWidth(msg.Width - 4)
		m.renderer = newRenderer(msg.Width - 8)
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			if m.fallback {
				if !m.busy {
					return m, m.cancel()
				}
				return m, nil
			}
			return m, tea.Quit
		case tea.KeyTab, tea.KeyShiftTab:
			if m.fallback {
				m.form.cycle(msg.Type == tea.KeyTab)
				return m, nil
			}
		case tea.KeyEnter:
			if m.fallback {
				if m.busy {
					return m, nil
				}
				if m.form.onLast() {
					return m, m.confirm(m.form.payload())
				}
				m.form.cycle(true)
				return m, nil
			}
			if !msg.Alt && !m.busy {
				input := m.textarea.Value()
				if strings.TrimSpace(input) == "" {
					break
				}
				// Recreate the text area to drop any internal scroll position
				m.textarea = newTextarea(m.width)
				m.status = ""
				return m, m.submit(input)
			}
		}

	case loopEventMsg:
		m.handleEvent(msg.event)
		return m, listenForEvents(m.loop.Events())

	case commandDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Not sent: %v", msg.err)
		}
		m.syncLoopState()
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	// Inputs only take keys while they are usable
	if m.fallback {
		if !m.busy {
			cmds = append(cmds, m.form.update(msg))
		}
	} else if !m.busy {
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleEvent(evt assistant.Event) {
	switch evt.Type {
	case assistant.EventDisplayMessage:
		m.blocks = append(m.blocks, m.renderMessage(evt.Message))
		m.refreshViewport()
	case assistant.EventEnterFallbackMode, assistant.EventExitFallbackMode, assistant.EventBusyChanged:
		m.syncLoopState()
	}
}

// syncLoopState reads mode and busy from the loop rather than from the event.
// The loop drops events when the buffer is full and a late event may be
// stale, but the loop's own state is always current.
func (m *Model) syncLoopState() {
	m.setFallback(m.loop.Mode() == assistant.ModeAwaitingFallbackInput)
	m.setBusy(m.loop.IsBusy())
}

// setFallback switches between the text area and a fresh contact form.
// Repeating the current mode keeps whatever the user already typed.
func (m *Model) setFallback(on bool) {
	if on == m.fallback {
		return
	}
	m.fallback = on
	if on {
		m.form = newContactForm()
		m.form.setWidth(m.width - 4)
		m.textarea.Blur()
		return
	}
	m.textarea.Focus()
}

func (m *Model) setBusy(busy bool) {
	m.busy = busy
	if !m.busy && !m.fallback {
		m.textarea.Focus()
	}
}

func (m Model) renderMessage(msg assistant.Message) string {
	if msg.Role == assistant.RoleUser {
		return styleUserHeader.Render(msg.Speaker) + "\n" + styleBase.Render(msg.Text)
	}

	header := styleAgentHeader.Render(msg.Speaker)
	switch msg.Kind {
	case assistant.KindError:
		return header + "\n" + styleError.Render(msg.Text)
	case assistant.KindPrompt:
		return header + "\n" + stylePrompt.Render(msg.Text)
	}
	if m.renderer != nil {
		if out, err := m.renderer.Render(msg.Text); err == nil {
			return header + "\n" + strings.TrimRight(out, "\n")
		}
	}
	return header + "\n" + styleBase.Render(msg.Text)
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(strings.Join(m.blocks, "\n"))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	chatView := styleBorder.Width(m.width - 2).Height(m.viewport.Height + 2).Render(m.viewport.View())

	var statusStr string
	switch {
	case m.busy:
		statusStr = fmt.Sprintf(" %s %s", m.spinner.View(), styleStatus.Render("Looking that up..."))
	case m.status != "":
		statusStr = styleError.Render(" " + m.status)
	case m.fallback:
		statusStr = styleStatus.Render(" Tab to move, Enter on the last field to send, Esc to dismiss.")
	default:
		statusStr = styleStatus.Render(" Ready.")
	}
	statusView := lipgloss.NewStyle().Width(m.width).PaddingLeft(1).Render(statusStr)

	var inputView string
	if m.fallback {
		inputView = styleFocusBorder.Width(m.width - 2).Render(m.form.view())
	} else {
		prompt := lipgloss.NewStyle().Foreground(colorCoffee).Render("> ")
		inputContent := lipgloss.JoinHorizontal(lipgloss.Top, prompt, m.textarea.View())
		inputView = styleFocusBorder.Width(m.width - 2).Render(inputContent)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		chatView,
		statusView,
		inputView,
	)
}
