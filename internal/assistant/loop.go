package assistant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/reinhart/postAgent/internal/logger"
)

// LoopConfig parameterizes a Loop
type LoopConfig struct {
	AssistantName string
	UserName      string
	Fallback      FallbackPolicy

	// ConfirmMessage and CancelMessage are sent to the model when the user
	// submits or dismisses the fallback form.
	ConfirmMessage string
	CancelMessage  string
	// Acknowledgement is shown when the model has nothing to say after a confirm or cancel.
	Acknowledgement string
	// NoAnswer is shown when a displayable reply has no text.
	NoAnswer string

	// TurnTimeout bounds every model and tool call of a turn. Zero disables it.
	TurnTimeout time.Duration
	EventBuffer int
}

func (c *LoopConfig) setDefaults() {
	if c.AssistantName == "" {
		c.AssistantName = "Assistant"
	}
	if c.UserName == "" {
		c.UserName = "User"
	}
	if c.Fallback.Prompt == "" {
		c.Fallback.Prompt = "I couldn't find anything for that. Leave your details below and we'll get back to you."
	}
	if c.ConfirmMessage == "" {
		c.ConfirmMessage = "I have submitted the contact form."
	}
	if c.CancelMessage == "" {
		c.CancelMessage = "I closed the contact form without submitting it."
	}
	if c.Acknowledgement == "" {
		c.Acknowledgement = "Thanks, noted."
	}
	if c.NoAnswer == "" {
		c.NoAnswer = "I don't have an answer for that."
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 64
	}
}

// Loop runs user turns against the session and emits events for the UI.
// It is the only writer of the session and of the conversation mode.
type Loop struct {
	session  *Session
	registry *ToolRegistry
	cfg      LoopConfig

	events chan Event
	busy   atomic.Bool

	mu    sync.RWMutex
	state State
	mode  Mode
}

// NewLoop creates a loop over an already started session
func NewLoop(session *Session, registry *ToolRegistry, cfg LoopConfig) *Loop {
	cfg.setDefaults()
	return &Loop{
		session:  session,
		registry: registry,
		cfg:      cfg,
		events:   make(chan Event, cfg.EventBuffer),
	}
}

// Events returns the channel the UI listens on
func (l *Loop) Events() <-chan Event {
	return l.events
}

// IsBusy reports whether a turn is in progress
func (l *Loop) IsBusy() bool {
	return l.busy.Load()
}

// State returns the current turn state
func (l *Loop) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Mode returns the current interaction mode
func (l *Loop) Mode() Mode {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.mode
}

// Session returns the session the loop writes to
func (l *Loop) Session() *Session {
	return l.session
}

// Submit runs one user turn. Blank input is ignored. Failures inside the turn
// are shown to the user as an error message and are not returned; only
// rejected commands return an error.
func (l *Loop) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if err := l.begin(ModeNormal); err != nil {
		return err
	}
	defer l.release()

	ctx, cancel := l.turnContext(ctx)
	defer cancel()

	logger.Info("Processing user input: %s", text)
	l.display(Message{Speaker: l.cfg.UserName, Text: text, Role: RoleUser})

	l.setState(StateAwaitingModelReply)
	resp, err := l.session.Send(ctx, TextContent(text))
	if err != nil {
		l.fail(ctx, err)
		return nil
	}

	calls := resp.ToolCalls()
	if len(calls) == 0 {
		l.reply(resp.Text())
		return nil
	}
	if len(calls) > 1 {
		logger.Debug("Ignoring %d extra tool calls after %s", len(calls)-1, calls[0].Name)
	}

	call := calls[0]
	if l.cfg.Fallback.Matches(call) {
		l.enterFallback()
		return nil
	}

	l.setState(StateToolDispatch)
	logger.Info("Tool Call Request: %s(%v)", call.Name, call.Args)
	result, err := l.registry.Execute(ctx, call)
	if err != nil {
		l.fail(ctx, err)
		return nil
	}
	logger.Debug("Tool Output (%s): %v", call.Name, result.Payload)
	l.session.RecordExchange(call, result)

	l.setState(StateAwaitingToolReply)
	resp, err = l.session.Send(ctx, ToolResponseContent{result})
	if err != nil {
		l.fail(ctx, err)
		return nil
	}
	if l.cfg.Fallback.Contains(resp.ToolCalls()) {
		l.enterFallback()
		return nil
	}
	l.reply(resp.Text())
	return nil
}

// ConfirmFallback closes the fallback form after the user submitted it.
// The payload is not forwarded; the model only learns the form was sent.
func (l *Loop) ConfirmFallback(ctx context.Context, payload map[string]string) error {
	fields := make([]string, 0, len(payload))
	for k := range payload {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	logger.Debug("Fallback form confirmed with fields %v", fields)
	return l.leaveFallback(ctx, l.cfg.ConfirmMessage)
}

// CancelFallback closes the fallback form without submitting it
func (l *Loop) CancelFallback(ctx context.Context) error {
	return l.leaveFallback(ctx, l.cfg.CancelMessage)
}

func (l *Loop) leaveFallback(ctx context.Context, canned string) error {
	if err := l.begin(ModeAwaitingFallbackInput); err != nil {
		return err
	}
	defer l.release()

	ctx, cancel := l.turnContext(ctx)
	defer cancel()

	l.setMode(ModeNormal)
	l.emit(Event{Type: EventExitFallbackMode})

	l.session.Append(Message{Speaker: l.cfg.UserName, Text: canned, Role: RoleUser, Hidden: true})
	l.setState(StateAwaitingModelReply)
	resp, err := l.session.Send(ctx, TextContent(canned))
	if err != nil {
		l.fail(ctx, err)
		return nil
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		text = l.cfg.Acknowledgement
	}
	l.display(Message{Speaker: l.cfg.AssistantName, Text: text, Role: RoleAssistant})
	return nil
}

func (l *Loop) reply(text string) {
	if strings.TrimSpace(text) == "" {
		text = l.cfg.NoAnswer
	}
	logger.Info("Final response received")
	l.display(Message{Speaker: l.cfg.AssistantName, Text: text, Role: RoleAssistant})
}

func (l *Loop) enterFallback() {
	logger.Info("Fallback tool %s requested", l.cfg.Fallback.ToolName)
	l.display(Message{
		Speaker: l.cfg.AssistantName,
		Text:    l.cfg.Fallback.Prompt,
		Role:    RoleAssistant,
		Kind:    KindPrompt,
	})
	l.setMode(ModeAwaitingFallbackInput)
	l.emit(Event{Type: EventEnterFallbackMode})
}

// fail turns any turn failure into a single visible error message
func (l *Loop) fail(ctx context.Context, err error) {
	logger.Error("Turn failed: %v", err)

	var text string
	switch {
	case errors.Is(err, ErrUnknownTool):
		text = fmt.Sprintf("Error: the assistant asked for a tool I don't have (%v)", err)
	case errors.Is(err, ErrMalformedToolCall):
		text = fmt.Sprintf("Error: the assistant sent an invalid tool request (%v)", err)
	case errors.Is(err, ErrToolExecutionFailure):
		text = fmt.Sprintf("Error: a tool failed (%v)", err)
	case ctx.Err() == context.DeadlineExceeded:
		text = "Error: the request timed out. The model may be slow or unavailable"
	default:
		text = fmt.Sprintf("Error: %v", err)
	}
	l.display(Message{Speaker: l.cfg.AssistantName, Text: text, Role: RoleAssistant, Kind: KindError})
}

func (l *Loop) display(msg Message) {
	stored := l.session.Append(msg)
	l.emit(Event{Type: EventDisplayMessage, Message: stored})
}

// emit never blocks the turn; a full buffer drops the event
func (l *Loop) emit(evt Event) {
	select {
	case l.events <- evt:
	default:
		logger.Warn("Dropping %s event: listener not keeping up", evt.Type)
	}
}

// begin takes the busy flag for a command that is only valid in mode want.
// The mode only changes while the flag is held, so it is stable once taken.
func (l *Loop) begin(want Mode) error {
	if !l.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	if got := l.Mode(); got != want {
		l.busy.Store(false)
		if got == ModeAwaitingFallbackInput {
			return ErrAwaitingFallback
		}
		return ErrNotAwaitingFallback
	}
	l.emit(Event{Type: EventBusyChanged, Busy: true})
	return nil
}

func (l *Loop) release() {
	l.setState(StateIdle)
	l.busy.Store(false)
	l.emit(Event{Type: EventBusyChanged, Busy: false})
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

func (l *Loop) setMode(m Mode) {
	l.mu.Lock()
	l.mode = m
	l.mu.Unlock()
}

func (l *Loop) turnContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.cfg.TurnTimeout > 0 {
		return context.WithTimeout(ctx, l.cfg.TurnTimeout)
	}
	return context.WithCancel(ctx)
}
