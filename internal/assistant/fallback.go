package assistant

// FallbackPolicy recognizes the reserved tool call that switches the UI into
// the structured-input form. Recognition is by name only; arguments are ignored.
type FallbackPolicy struct {
	ToolName string
	// Prompt replaces the model's prose on the turn that enters fallback mode.
	Prompt string
}

// Matches reports whether call is the fallback tool
func (p FallbackPolicy) Matches(call ToolCall) bool {
	return p.ToolName != "" && call.Name == p.ToolName
}

// Contains reports whether any of calls is the fallback tool
func (p FallbackPolicy) Contains(calls []ToolCall) bool {
	for _, c := range calls {
		if p.Matches(c) {
			return true
		}
	}
	return false
}
