package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/domain"
)

// ChatPort is the TUI-facing subset of the chat service.
type ChatPort interface {
	Submit(ctx context.Context, sessionID, text string) (domain.Turn, error)
	Turns(sessionID string) ([]domain.Turn, string, error)
}

type turnMsg struct {
	err error
}

// Model is the Bubble Tea model of the terminal chat.
type Model struct {
	chat      ChatPort
	sessionID string
	title     string
	greeting  string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	processing bool
	pending    string
	status     string
	ready      bool
}

// New creates a chat model bound to one session.
func New(chat ChatPort, sessionID, title, greeting string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type your message here..."
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		chat:      chat,
		sessionID: sessionID,
		title:     title,
		greeting:  greeting,
		input:     ti,
		viewport:  viewport.New(0, 0),
		spinner:   sp,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := boxStyle.GetFrameSize()
		reserved := 2 + 1 + fh + 3 // header, status, box frame, input box
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.refresh()
		return m, nil

	case turnMsg:
		m.processing = false
		m.pending = ""
		m.status = ""
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.processing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			if m.processing {
				m.status = "Still answering the previous message..."
				return m, nil
			}
			m.processing = true
			m.pending = text
			m.status = ""
			m.input.Reset()
			m.refresh()
			return m, tea.Batch(m.spinner.Tick, m.submit(text))
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(text string) tea.Cmd {
	chat, id := m.chat, m.sessionID
	return func() tea.Msg {
		_, err := chat.Submit(context.Background(), id, text)
		return turnMsg{err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render(m.title)

	status := statusStyle.Render(m.status)
	if m.processing {
		status = m.spinner.View() + " Thinking..."
	} else if strings.HasPrefix(m.status, "Error") {
		status = errorStyle.Render(m.status)
	}

	return header + "\n" +
		boxStyle.Render(m.viewport.View()) + "\n" +
		boxStyle.Render(m.input.View()) + "\n" +
		status
}

func (m Model) renderConversation() string {
	width := max(10, m.viewport.Width-4)
	var sb strings.Builder

	sb.WriteString(assistantStyle.Width(width).Render(m.greeting))
	sb.WriteString("\n\n")

	turns, _, err := m.chat.Turns(m.sessionID)
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	if m.pending != "" && !endsWithUser(turns, m.pending) {
		turns = append(turns, domain.Turn{Role: domain.RoleUser, Content: m.pending})
	}

	for _, t := range turns {
		if t.Role == domain.RoleUser {
			sb.WriteString(userStyle.Width(width).Render("You: " + t.Content))
		} else {
			sb.WriteString(assistantStyle.Width(width).Render(t.Content))
			if len(t.Sources) > 0 {
				sb.WriteString("\n")
				sb.WriteString(sourceStyle.Render("Source References:"))
				for _, src := range t.Sources {
					sb.WriteString("\n")
					sb.WriteString(sourceStyle.Render("  • " + src))
				}
			}
		}
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func endsWithUser(turns []domain.Turn, text string) bool {
	if len(turns) == 0 {
		return false
	}
	last := turns[len(turns)-1]
	return last.Role == domain.RoleUser && last.Content == text
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("105")).Bold(true)
	assistantStyle = lipgloss.NewStyle()
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
