package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/reinhart/postAgent/internal/logger"
)

// Tool defines the interface for a tool
type Tool interface {
	Definition() ToolDefinition
	Execute(ctx context.Context, args Args) (Payload, error)
}

// ToolRegistry maps tool names to tools, keeping registration order
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewToolRegistry creates a new tool registry
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry
func (r *ToolRegistry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("tool is nil")
	}
	name := t.Definition().Name
	if name == "" {
		return fmt.Errorf("tool name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Get retrieves a tool by exact, case-sensitive name
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns the definitions of all registered tools in registration order
func (r *ToolRegistry) Definitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute validates the call's arguments and runs the named tool.
// The result always carries the call's name.
func (r *ToolRegistry) Execute(ctx context.Context, call ToolCall) (ToolResult, error) {
	t, ok := r.Get(call.Name)
	if !ok {
		return ToolResult{}, fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}

	args := call.Args
	if args == nil {
		args = Args{}
	}
	if err := t.Definition().Parameters.Validate(args); err != nil {
		return ToolResult{}, fmt.Errorf("%w: %s: %v", ErrMalformedToolCall, call.Name, err)
	}

	payload, err := runTool(ctx, t, args)
	if err != nil {
		// Tools report bad arguments with ErrMalformedToolCall from DecodeArgs.
		if errors.Is(err, ErrMalformedToolCall) {
			return ToolResult{}, fmt.Errorf("%s: %w", call.Name, err)
		}
		return ToolResult{}, fmt.Errorf("%w: %s: %v", ErrToolExecutionFailure, call.Name, err)
	}
	if payload == nil {
		payload = Payload{}
	}

	return ToolResult{
		CallID:   call.ID,
		ToolName: call.Name,
		Payload:  payload,
	}, nil
}

// runTool converts a panicking tool into an execution failure
func runTool(ctx context.Context, t Tool, args Args) (payload Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Tool %s panicked: %v", t.Definition().Name, r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.Execute(ctx, args)
}
