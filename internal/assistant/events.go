package assistant

// EventType identifies what the UI should do with an Event
type EventType int

const (
	EventDisplayMessage EventType = iota
	EventEnterFallbackMode
	EventExitFallbackMode
	EventBusyChanged
)

func (t EventType) String() string {
	switch t {
	case EventDisplayMessage:
		return "displayMessage"
	case EventEnterFallbackMode:
		return "enterFallbackMode"
	case EventExitFallbackMode:
		return "exitFallbackMode"
	case EventBusyChanged:
		return "busyChanged"
	}
	return "unknown"
}

// Event is emitted by the Loop for the UI to render.
// Message is set for EventDisplayMessage, Busy for EventBusyChanged.
type Event struct {
	Type    EventType
	Message Message
	Busy    bool
}

// State is the loop's position within a turn
type State int

const (
	StateIdle State = iota
	StateAwaitingModelReply
	StateToolDispatch
	StateAwaitingToolReply
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAwaitingModelReply:
		return "AwaitingModelReply"
	case StateToolDispatch:
		return "ToolDispatch"
	case StateAwaitingToolReply:
		return "AwaitingToolReply"
	}
	return "Unknown"
}

// Mode is the UI interaction mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAwaitingFallbackInput
)

func (m Mode) String() string {
	if m == ModeAwaitingFallbackInput {
		return "awaitingFallbackInput"
	}
	return "normal"
}
