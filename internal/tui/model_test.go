package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

type fakeChat struct {
	turns []domain.Turn
	err   error
	calls int
}

func (f *fakeChat) Submit(_ context.Context, _ string, text string) (domain.Turn, error) {
	f.calls++
	f.turns = append(f.turns, domain.Turn{Role: domain.RoleUser, Content: text})
	if f.err != nil {
		return domain.Turn{}, f.err
	}
	answer := domain.Turn{Role: domain.RoleAssistant, Content: "Rest and fluids.", Sources: []string{"fever.txt"}}
	f.turns = append(f.turns, answer)
	return answer, nil
}

func (f *fakeChat) Turns(string) ([]domain.Turn, string, error) {
	return append([]domain.Turn(nil), f.turns...), "", nil
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return updated.(Model)
}

// runTurn presses enter and feeds the resulting turn message back.
func runTurn(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), cmd
}

func findTurnMsg(t *testing.T, cmd tea.Cmd) turnMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			if tm, ok := c().(turnMsg); ok {
				return tm
			}
		}
		t.Fatal("no turn message in batch")
	}
	tm, ok := msg.(turnMsg)
	require.True(t, ok)
	return tm
}

func TestModel_ViewBeforeSize(t *testing.T) {
	m := New(&fakeChat{}, "s1", "AI Chat Assistant", "Hello!")
	assert.Equal(t, "Loading...", m.View())
}

func TestModel_GreetingShown(t *testing.T) {
	m := sized(t, New(&fakeChat{}, "s1", "AI Chat Assistant", "Hello! How can I help?"))
	assert.Contains(t, m.View(), "Hello! How can I help?")
}

func TestModel_SubmitTurn(t *testing.T) {
	chat := &fakeChat{}
	m := sized(t, New(chat, "s1", "AI Chat Assistant", "Hello!"))

	m, cmd := runTurn(t, m, "fever?")
	assert.True(t, m.processing)
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.View(), "Thinking...")

	// a second enter while processing is refused
	m.input.SetValue("again")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	assert.Contains(t, m.status, "Still answering")

	updated, _ = m.Update(findTurnMsg(t, cmd))
	m = updated.(Model)
	assert.False(t, m.processing)
	assert.Equal(t, 1, chat.calls)

	view := m.View()
	assert.Contains(t, view, "You: fever?")
	assert.Contains(t, view, "Rest and fluids.")
	assert.Contains(t, view, "fever.txt")
}

func TestModel_SubmitError(t *testing.T) {
	chat := &fakeChat{err: errors.New("endpoint unavailable")}
	m := sized(t, New(chat, "s1", "AI Chat Assistant", "Hello!"))

	m, cmd := runTurn(t, m, "hi")
	updated, _ := m.Update(findTurnMsg(t, cmd))
	m = updated.(Model)

	assert.False(t, m.processing)
	assert.Contains(t, m.View(), "endpoint unavailable")
}

func TestModel_EmptyInputIgnored(t *testing.T) {
	chat := &fakeChat{}
	m := sized(t, New(chat, "s1", "AI Chat Assistant", "Hello!"))

	m, cmd := runTurn(t, m, "   ")
	assert.Nil(t, cmd)
	assert.False(t, m.processing)
	assert.Zero(t, chat.calls)
}

func TestModel_Quit(t *testing.T) {
	m := New(&fakeChat{}, "s1", "t", "g")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
