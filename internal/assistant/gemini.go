package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiModel implements ChatModel using Google's Gemini API
type GeminiModel struct {
	client *genai.Client
	model  string
	tools  []ToolDefinition
}

// NewGeminiModel creates a new Gemini model instance
func NewGeminiModel(ctx context.Context, apiKey string, model string, tools []ToolDefinition) (*GeminiModel, error) {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiModel{
		client: client,
		model:  model,
		tools:  tools,
	}, nil
}

// Close releases the underlying client
func (p *GeminiModel) Close() error {
	return p.client.Close()
}

func (p *GeminiModel) StartChat(ctx context.Context, history []Turn) (ChatHandle, error) {
	model := p.client.GenerativeModel(p.model)
	model.Tools = geminiTools(p.tools)

	cs := model.StartChat()
	cs.History = geminiHistory(history)
	return &geminiChat{session: cs}, nil
}

// geminiChat wraps a genai.ChatSession, which keeps the transcript itself
type geminiChat struct {
	session *genai.ChatSession
	// pending holds function calls from the last reply still owed a response
	pending []string
}

func (c *geminiChat) SendMessage(ctx context.Context, content Content) (Response, error) {
	parts := c.parts(content)
	resp, err := c.session.SendMessage(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini send: %w", err)
	}
	r, err := newGeminiResponse(resp)
	if err != nil {
		return nil, err
	}
	c.pending = c.pending[:0]
	for _, call := range r.calls {
		c.pending = append(c.pending, call.Name)
	}
	return r, nil
}

// parts builds the user turn. Gemini expects every function call of the
// previous reply to be answered, so calls the loop skipped get a stub.
func (c *geminiChat) parts(content Content) []genai.Part {
	var parts []genai.Part
	pending := append([]string(nil), c.pending...)

	if results, ok := content.(ToolResponseContent); ok {
		for _, r := range results {
			parts = append(parts, genai.FunctionResponse{
				Name:     r.ToolName,
				Response: r.Payload,
			})
			pending = removeFirst(pending, r.ToolName)
		}
	}
	for _, name := range pending {
		parts = append(parts, genai.FunctionResponse{
			Name:     name,
			Response: notExecuted(),
		})
	}
	if text, ok := content.(TextContent); ok {
		parts = append(parts, genai.Text(text))
	}
	return parts
}

func geminiHistory(turns []Turn) []*genai.Content {
	history := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(t.Text)},
		})
	}
	return history
}

func geminiTools(tools []ToolDefinition) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decl := &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
		}
		// Gemini rejects object schemas without properties, so argument-less tools omit it.
		if t.Parameters != nil && len(t.Parameters.Properties) > 0 {
			decl.Parameters = geminiSchema(t.Parameters)
		}
		decls = append(decls, decl)
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func geminiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Items:       geminiSchema(s.Items),
	}
	switch s.Type {
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
	case "object":
		out.Type = genai.TypeObject
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = geminiSchema(prop)
		}
	}
	return out
}

// geminiResponse computes its text on first use
type geminiResponse struct {
	content *genai.Content
	calls   []ToolCall

	once sync.Once
	text string
}

func newGeminiResponse(resp *genai.GenerateContentResponse) (*geminiResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return nil, fmt.Errorf("candidate has no content (finish reason %v)", cand.FinishReason)
	}

	r := &geminiResponse{content: cand.Content}
	for _, part := range cand.Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			r.calls = append(r.calls, ToolCall{Name: fc.Name, Args: Args(fc.Args)})
		}
	}
	return r, nil
}

func (r *geminiResponse) Text() string {
	r.once.Do(func() {
		var sb strings.Builder
		for _, part := range r.content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
		r.text = sb.String()
	})
	return r.text
}

func (r *geminiResponse) ToolCalls() []ToolCall {
	return r.calls
}

func notExecuted() map[string]interface{} {
	return map[string]interface{}{"error": "not executed"}
}

func removeFirst(names []string, name string) []string {
	for i, n := range names {
		if n == name {
			return append(names[:i], names[i+1:]...)
		}
	}
	return names
}
