package assistant

import (
	"context"
	"time"
)

// Role represents the role of a message sender
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind distinguishes how a message should be rendered
type Kind string

const (
	KindText   Kind = "text"
	KindError  Kind = "error"
	KindPrompt Kind = "prompt"
)

// Message represents a single entry in the conversation history.
// Messages are never modified after Session.Append returns them.
type Message struct {
	ID        string
	Speaker   string
	Text      string
	Role      Role
	Kind      Kind
	Hidden    bool // priming turns and canned acknowledgements are sent but never rendered
	CreatedAt time.Time
}

// Turn is a priming entry handed to the model when a chat starts
type Turn struct {
	Role Role
	Text string
}

// ToolCall represents a request from the model to execute a tool
type ToolCall struct {
	ID   string // provider call id, empty for Gemini
	Name string
	Args Args
}

// ToolResult is the outcome of a registry execution, addressed to the call that caused it
type ToolResult struct {
	CallID   string
	ToolName string
	Payload  Payload
}

// ToolExchange records one completed tool round-trip
type ToolExchange struct {
	Call   ToolCall
	Result ToolResult
	At     time.Time
}

// Args and Payload are the loosely typed tool argument and result maps.
// Tools convert them to and from their own structs with DecodeArgs and EncodePayload.
type (
	Args    map[string]interface{}
	Payload map[string]interface{}
)

// ToolDefinition defines a tool that can be used by the model
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  *Schema
}

// Content is what a chat handle accepts: TextContent or ToolResponseContent
type Content interface {
	isContent()
}

// TextContent is plain user text
type TextContent string

// ToolResponseContent is the envelope carrying tool results back to the model
type ToolResponseContent []ToolResult

func (TextContent) isContent()         {}
func (ToolResponseContent) isContent() {}

// Response is a single model reply
type Response interface {
	// Text returns the assistant prose, which may be empty when the reply is only a tool call
	Text() string
	// ToolCalls returns the tool calls in the order the model produced them
	ToolCalls() []ToolCall
}

// ChatHandle is a live chat with a model
type ChatHandle interface {
	SendMessage(ctx context.Context, content Content) (Response, error)
}

// ChatModel starts chats against an LLM backend
type ChatModel interface {
	StartChat(ctx context.Context, history []Turn) (ChatHandle, error)
}

// staticResponse is a Response whose values are already known
type staticResponse struct {
	text  string
	calls []ToolCall
}

func (r *staticResponse) Text() string          { return r.text }
func (r *staticResponse) ToolCalls() []ToolCall { return r.calls }
