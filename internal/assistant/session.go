package assistant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session owns the conversation history and the chat handle behind it.
// One Session backs one UI session; the Loop is its only writer.
type Session struct {
	mu        sync.RWMutex
	chat      ChatHandle
	history   []Message
	exchanges []ToolExchange
	now       func() time.Time
}

// StartSession opens a chat seeded with the priming turns. The turns are
// kept in history as hidden messages.
func StartSession(ctx context.Context, model ChatModel, priming []Turn) (*Session, error) {
	if model == nil {
		return nil, fmt.Errorf("chat model is nil")
	}
	chat, err := model.StartChat(ctx, priming)
	if err != nil {
		return nil, fmt.Errorf("%w: start chat: %v", ErrModelCommunicationFailure, err)
	}

	s := &Session{
		chat: chat,
		now:  time.Now,
	}
	for _, t := range priming {
		s.Append(Message{
			Speaker: string(t.Role),
			Text:    t.Text,
			Role:    t.Role,
			Kind:    KindText,
			Hidden:  true,
		})
	}
	return s, nil
}

// Send forwards user text or a tool-response envelope to the model
func (s *Session) Send(ctx context.Context, content Content) (Response, error) {
	resp, err := s.chat.SendMessage(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelCommunicationFailure, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", ErrModelCommunicationFailure)
	}
	return resp, nil
}

// Append stamps the message with an ID and time and adds it to history
func (s *Session) Append(msg Message) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = uuid.NewString()
	msg.CreatedAt = s.now()
	if msg.Kind == "" {
		msg.Kind = KindText
	}
	s.history = append(s.history, msg)
	return msg
}

// RecordExchange logs a completed tool round-trip
func (s *Session) RecordExchange(call ToolCall, result ToolResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = append(s.exchanges, ToolExchange{Call: call, Result: result, At: s.now()})
}

// History returns a copy of every message, hidden ones included
func (s *Session) History() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message(nil), s.history...)
}

// Visible returns the messages meant to be rendered
func (s *Session) Visible() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Message
	for _, m := range s.history {
		if !m.Hidden {
			out = append(out, m)
		}
	}
	return out
}

// Exchanges returns a copy of the recorded tool round-trips
func (s *Session) Exchanges() []ToolExchange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ToolExchange(nil), s.exchanges...)
}
