package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/reinhart/postAgent/internal/logger"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIModel implements ChatModel using the OpenAI chat completions API
type OpenAIModel struct {
	client *openai.Client
	model  string
	tools  []ToolDefinition
}

// NewOpenAIModel creates a new OpenAI model instance
func NewOpenAIModel(apiKey string, model string, tools []ToolDefinition) *OpenAIModel {
	config := openai.DefaultConfig(apiKey)
	config.HTTPClient = newHTTPClient()
	return newOpenAIModel(config, model, tools)
}

func newOpenAIModel(config openai.ClientConfig, model string, tools []ToolDefinition) *OpenAIModel {
	if model == "" {
		model = openai.GPT5Mini
	}
	return &OpenAIModel{
		client: openai.NewClientWithConfig(config),
		model:  model,
		tools:  tools,
	}
}

// newHTTPClient is shared by the HTTP based providers
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 120 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

func (p *OpenAIModel) StartChat(ctx context.Context, history []Turn) (ChatHandle, error) {
	chat := &openAIChat{model: p}
	for _, t := range history {
		role := openai.ChatMessageRoleUser
		if t.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		chat.messages = append(chat.messages, openai.ChatCompletionMessage{Role: role, Content: t.Text})
	}
	return chat, nil
}

func (p *OpenAIModel) apiTools() []openai.Tool {
	if len(p.tools) == 0 {
		return nil
	}
	apiTools := make([]openai.Tool, len(p.tools))
	for i, t := range p.tools {
		apiTools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return apiTools
}

// openAIChat keeps the transcript the stateless API needs on every call
type openAIChat struct {
	model    *OpenAIModel
	messages []openai.ChatCompletionMessage
	// pending holds tool calls from the last reply still owed a tool message
	pending []openai.ToolCall
}

func (c *openAIChat) SendMessage(ctx context.Context, content Content) (Response, error) {
	switch v := content.(type) {
	case TextContent:
		c.answerPending()
		c.messages = append(c.messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: string(v),
		})
	case ToolResponseContent:
		for _, r := range v {
			body, err := json.Marshal(r.Payload)
			if err != nil {
				return nil, fmt.Errorf("encode %s result: %w", r.ToolName, err)
			}
			c.messages = append(c.messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    string(body),
				Name:       r.ToolName,
				ToolCallID: r.CallID,
			})
			c.resolve(r.CallID)
		}
		c.answerPending()
	default:
		return nil, fmt.Errorf("unsupported content %T", content)
	}

	resp, err := c.model.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model.model,
		Messages: c.messages,
		Tools:    c.model.apiTools(),
	})
	if err != nil {
		return nil, fmt.Errorf("openai completion error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai completion returned no choices")
	}

	msg := resp.Choices[0].Message
	c.messages = append(c.messages, msg)
	c.pending = append(c.pending[:0], msg.ToolCalls...)

	result := &staticResponse{text: msg.Content}
	for _, tc := range msg.ToolCalls {
		result.calls = append(result.calls, ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: decodeRawArgs(tc.Function.Name, []byte(tc.Function.Arguments)),
		})
	}
	return result, nil
}

func (c *openAIChat) resolve(id string) {
	for i, tc := range c.pending {
		if tc.ID == id {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// answerPending stubs out tool calls the loop never executed; the API
// rejects a transcript with unanswered tool calls.
func (c *openAIChat) answerPending() {
	for _, tc := range c.pending {
		body, _ := json.Marshal(notExecuted())
		c.messages = append(c.messages, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    string(body),
			Name:       tc.Function.Name,
			ToolCallID: tc.ID,
		})
	}
	c.pending = c.pending[:0]
}

// decodeRawArgs leaves unparsable arguments empty so the registry's schema
// check reports them as a malformed call.
func decodeRawArgs(name string, raw []byte) Args {
	args := Args{}
	if len(raw) == 0 {
		return args
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		logger.Warn("Discarding unparsable arguments for %s: %v", name, err)
		return Args{}
	}
	return args
}
