package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

// AnthropicModel implements ChatModel using the Anthropic messages API
type AnthropicModel struct {
	client *anthropic.Client
	model  string
	tools  []ToolDefinition
}

// NewAnthropicModel creates a new Anthropic model instance
func NewAnthropicModel(apiKey string, model string, tools []ToolDefinition, opts ...anthropic.ClientOption) *AnthropicModel {
	if model == "" {
		model = string(anthropic.ModelClaude3Dot5Sonnet20240620)
	}
	opts = append([]anthropic.ClientOption{anthropic.WithHTTPClient(newHTTPClient())}, opts...)
	return &AnthropicModel{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
		tools:  tools,
	}
}

func (p *AnthropicModel) StartChat(ctx context.Context, history []Turn) (ChatHandle, error) {
	chat := &anthropicChat{model: p}
	for _, t := range history {
		role := anthropic.RoleUser
		if t.Role == RoleAssistant {
			role = anthropic.RoleAssistant
		}
		chat.messages = append(chat.messages, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(t.Text)},
		})
	}
	return chat, nil
}

func (p *AnthropicModel) apiTools() []anthropic.ToolDefinition {
	var defs []anthropic.ToolDefinition
	for _, t := range p.tools {
		schema := t.Parameters
		if schema == nil {
			schema = ObjectSchema(nil)
		}
		defs = append(defs, anthropic.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		})
	}
	return defs
}

// anthropicChat keeps the transcript the stateless API needs on every call
type anthropicChat struct {
	model    *AnthropicModel
	messages []anthropic.Message
	// pending maps tool_use ids of the last reply to their tool names
	pending []ToolCall
}

func (c *anthropicChat) SendMessage(ctx context.Context, content Content) (Response, error) {
	var blocks []anthropic.MessageContent
	switch v := content.(type) {
	case TextContent:
		blocks = append(c.pendingResults(), anthropic.NewTextMessageContent(string(v)))
	case ToolResponseContent:
		for _, r := range v {
			body, err := json.Marshal(r.Payload)
			if err != nil {
				return nil, fmt.Errorf("encode %s result: %w", r.ToolName, err)
			}
			blocks = append(blocks, anthropic.NewToolResultMessageContent(r.CallID, string(body), false))
			c.resolve(r.CallID)
		}
		blocks = append(blocks, c.pendingResults()...)
	default:
		return nil, fmt.Errorf("unsupported content %T", content)
	}
	c.messages = append(c.messages, anthropic.Message{Role: anthropic.RoleUser, Content: blocks})

	resp, err := c.model.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model.model),
		Messages:  c.messages,
		Tools:     c.model.apiTools(),
		MaxTokens: 4096,
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic completion error: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("anthropic response has no content")
	}
	c.messages = append(c.messages, anthropic.Message{Role: anthropic.RoleAssistant, Content: resp.Content})

	result := &staticResponse{}
	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			if block.Text != nil {
				result.text += *block.Text
			}
		case anthropic.MessagesContentTypeToolUse:
			if block.MessageContentToolUse == nil {
				continue
			}
			result.calls = append(result.calls, ToolCall{
				ID:   block.ID,
				Name: block.Name,
				Args: decodeRawArgs(block.Name, block.Input),
			})
		}
	}
	c.pending = append(c.pending[:0], result.calls...)
	return result, nil
}

func (c *anthropicChat) resolve(id string) {
	for i, tc := range c.pending {
		if tc.ID == id {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// pendingResults answers tool_use blocks the loop never executed; every
// tool_use must be followed by a matching tool_result.
func (c *anthropicChat) pendingResults() []anthropic.MessageContent {
	var blocks []anthropic.MessageContent
	for _, tc := range c.pending {
		body, _ := json.Marshal(notExecuted())
		blocks = append(blocks, anthropic.NewToolResultMessageContent(tc.ID, string(body), true))
	}
	c.pending = c.pending[:0]
	return blocks
}
