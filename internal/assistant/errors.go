package assistant

import "errors"

var (
	// ErrUnknownTool is returned when the model names a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrToolExecutionFailure is returned when a registered tool fails.
	ErrToolExecutionFailure = errors.New("tool execution failed")

	// ErrModelCommunicationFailure is returned when the model call fails or its reply is unusable.
	ErrModelCommunicationFailure = errors.New("model communication failed")

	// ErrMalformedToolCall is returned when tool arguments do not satisfy the tool's schema.
	ErrMalformedToolCall = errors.New("malformed tool call")

	// ErrDuplicateTool is returned when a tool name is registered twice.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrBusy is returned when a command arrives while a turn is still running.
	ErrBusy = errors.New("a turn is already in progress")

	// ErrAwaitingFallback is returned when text is submitted while the fallback form is open.
	ErrAwaitingFallback = errors.New("waiting for fallback input")

	// ErrNotAwaitingFallback is returned when the fallback form is confirmed or cancelled outside fallback mode.
	ErrNotAwaitingFallback = errors.New("not waiting for fallback input")
)
