package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/reinhart/postAgent/internal/blog"
)

type scriptedReply struct {
	resp Response
	err  error
	// block holds the reply until released or the context ends
	block chan struct{}
}

// fakeModel is both the ChatModel and its ChatHandle; it replays scripted replies in order
type fakeModel struct {
	mu      sync.Mutex
	replies []scriptedReply
	sent    []Content
	priming []Turn
	entered chan struct{}
}

func newFakeModel(replies ...scriptedReply) *fakeModel {
	return &fakeModel{replies: replies, entered: make(chan struct{}, 16)}
}

func (m *fakeModel) StartChat(ctx context.Context, history []Turn) (ChatHandle, error) {
	m.priming = history
	return m, nil
}

func (m *fakeModel) SendMessage(ctx context.Context, content Content) (Response, error) {
	m.mu.Lock()
	m.sent = append(m.sent, content)
	if len(m.replies) == 0 {
		m.mu.Unlock()
		return nil, errors.New("no scripted reply")
	}
	next := m.replies[0]
	m.replies = m.replies[1:]
	m.mu.Unlock()

	m.entered <- struct{}{}
	if next.block != nil {
		select {
		case <-next.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return next.resp, next.err
}

func (m *fakeModel) sentContent() []Content {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Content(nil), m.sent...)
}

func textReply(text string) scriptedReply {
	return scriptedReply{resp: &staticResponse{text: text}}
}

func callReply(text string, calls ...ToolCall) scriptedReply {
	return scriptedReply{resp: &staticResponse{text: text, calls: calls}}
}

func errReply(err error) scriptedReply {
	return scriptedReply{err: err}
}

const testFallbackTool = "showContactForm"

func newTestRegistry(t *testing.T) *ToolRegistry {
	t.Helper()
	catalog := blog.NewCatalog(nil, []string{"java"}, blog.DefaultMatchThreshold)
	reg := NewToolRegistry()
	for _, tool := range []Tool{
		&FindPostsByCategoryTool{Catalog: catalog},
		&SearchPostsTool{Catalog: catalog},
		&FallbackTool{Name: testFallbackTool},
	} {
		if err := reg.Register(tool); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	return reg
}

func newTestLoop(t *testing.T, model *fakeModel, mutate ...func(*LoopConfig)) *Loop {
	t.Helper()
	sess, err := StartSession(context.Background(), model, []Turn{
		{Role: RoleUser, Text: "You are a blog assistant."},
		{Role: RoleAssistant, Text: "Understood."},
	})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	cfg := LoopConfig{
		AssistantName: "Guide",
		UserName:      "Reader",
		Fallback:      FallbackPolicy{ToolName: testFallbackTool, Prompt: "Please fill in the form."},
		EventBuffer:   128,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	return NewLoop(sess, newTestRegistry(t), cfg)
}

// drain returns every event emitted so far
func drain(l *Loop) []Event {
	var out []Event
	for {
		select {
		case evt := <-l.Events():
			out = append(out, evt)
		default:
			return out
		}
	}
}

func displayed(events []Event) []Message {
	var out []Message
	for _, e := range events {
		if e.Type == EventDisplayMessage {
			out = append(out, e.Message)
		}
	}
	return out
}

func hasEvent(events []Event, typ EventType) bool {
	for _, e := range events {
		if e.Type == typ {
			return true
		}
	}
	return false
}
