package ui

import (
	"context"
	"errors"
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/reinhart/postAgent/internal/assistant"
)

type cannedResponse struct {
	text  string
	calls []assistant.ToolCall
}

func (r cannedResponse) Text() string                    { return r.text }
func (r cannedResponse) ToolCalls() []assistant.ToolCall { return r.calls }

// cannedModel replays its responses in order
type cannedModel struct {
	responses []cannedResponse
}

func (m *cannedModel) StartChat(ctx context.Context, history []assistant.Turn) (assistant.ChatHandle, error) {
	return m, nil
}

func (m *cannedModel) SendMessage(ctx context.Context, content assistant.Content) (assistant.Response, error) {
	if len(m.responses) == 0 {
		return nil, errors.New("no response left")
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return next, nil
}

func newTestUI(t *testing.T, responses ...cannedResponse) (Model, *assistant.Loop) {
	t.Helper()
	return newTestUIWithBuffer(t, 0, responses...)
}

func newTestUIWithBuffer(t *testing.T, buffer int, responses ...cannedResponse) (Model, *assistant.Loop) {
	t.Helper()
	sess, err := assistant.StartSession(context.Background(), &cannedModel{responses: responses}, nil)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	reg := assistant.NewToolRegistry()
	if err := reg.Register(&assistant.FallbackTool{Name: "showContactForm"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	loop := assistant.NewLoop(sess, reg, assistant.LoopConfig{
		AssistantName: "Guide",
		Fallback:      assistant.FallbackPolicy{ToolName: "showContactForm", Prompt: "Please fill in the form."},
		EventBuffer:   buffer,
	})
	return NewModel(loop, "Guide", "Hello there"), loop
}

// pump feeds every pending loop event through Update
func pump(t *testing.T, m Model, loop *assistant.Loop) Model {
	t.Helper()
	for {
		select {
		case evt := <-loop.Events():
			next, _ := m.Update(loopEventMsg{event: evt})
			m = next.(Model)
		default:
			return m
		}
	}
}

func TestFallbackFormLifecycle(t *testing.T) {
	m, loop := newTestUI(t,
		cannedResponse{calls: []assistant.ToolCall{{Name: "showContactForm"}}},
		cannedResponse{text: "Thanks, we'll be in touch."},
	)
	testboil.FailTestIfDiff(t, len(m.blocks), 1)

	if err := loop.Submit(context.Background(), "posts about haskell"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	m = pump(t, m, loop)

	testboil.FailTestIfDiff(t, m.fallback, true)
	testboil.FailTestIfDiff(t, m.busy, false)
	// greeting + user message + fallback prompt
	testboil.FailTestIfDiff(t, len(m.blocks), 3)
	testboil.AssertStringContains(t, m.View(), "Email")
	testboil.AssertStringContains(t, m.View(), "Request")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if cmd == nil {
		t.Fatalf("expected Esc to cancel the form")
	}
	done, ok := cmd().(commandDoneMsg)
	if !ok {
		t.Fatalf("expected commandDoneMsg")
	}
	if done.err != nil {
		t.Fatalf("cancel: %v", done.err)
	}
	testboil.FailTestIfDiff(t, loop.Mode(), assistant.ModeNormal)

	m = pump(t, m, loop)
	testboil.FailTestIfDiff(t, m.fallback, false)
	testboil.FailTestIfDiff(t, len(m.blocks), 4)
}

func TestEnterCyclesFormBeforeConfirming(t *testing.T) {
	m, loop := newTestUI(t,
		cannedResponse{calls: []assistant.ToolCall{{Name: "showContactForm"}}},
		cannedResponse{text: ""},
	)
	if err := loop.Submit(context.Background(), "anything on fortran?"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	m = pump(t, m, loop)

	for i := 0; i < 2; i++ {
		next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = next.(Model)
		if cmd != nil {
			t.Fatalf("enter on field %d should only move focus", i)
		}
	}
	testboil.FailTestIfDiff(t, m.form.onLast(), true)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("enter on the last field should confirm")
	}
	if done := cmd().(commandDoneMsg); done.err != nil {
		t.Fatalf("confirm: %v", done.err)
	}

	// Blank reply falls back to the acknowledgement
	last := loop.Session().Visible()
	testboil.FailTestIfDiff(t, last[len(last)-1].Text, "Thanks, noted.")
}

func TestRejectedCommandShowsStatus(t *testing.T) {
	m, _ := newTestUI(t)
	next, _ := m.Update(commandDoneMsg{err: assistant.ErrBusy})
	m = next.(Model)
	testboil.AssertStringContains(t, m.View(), "Not sent")
}

func TestStateSurvivesDroppedEvents(t *testing.T) {
	// A single slot keeps only the first BusyChanged(true); every later event is dropped
	m, loop := newTestUIWithBuffer(t, 1,
		cannedResponse{calls: []assistant.ToolCall{{Name: "showContactForm"}}},
		cannedResponse{text: "Noted."},
	)

	cmd := m.submit("posts about haskell")
	next, _ := m.Update(cmd())
	m = next.(Model)
	testboil.FailTestIfDiff(t, m.fallback, true)
	testboil.FailTestIfDiff(t, m.busy, false)
	testboil.AssertStringContains(t, m.View(), "Email")

	// The stale busy event left in the buffer must not lock the input
	m = pump(t, m, loop)
	testboil.FailTestIfDiff(t, m.busy, false)
	testboil.FailTestIfDiff(t, m.fallback, true)

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if cmd == nil {
		t.Fatalf("expected Esc to cancel the form")
	}
	next, _ = m.Update(cmd())
	m = next.(Model)
	testboil.FailTestIfDiff(t, m.fallback, false)
	testboil.FailTestIfDiff(t, loop.Mode(), assistant.ModeNormal)
}
