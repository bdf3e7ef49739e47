package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
	openai "github.com/sashabaranov/go-openai"
)

// completionServer answers chat completions with canned bodies and keeps each request
type completionServer struct {
	mu       sync.Mutex
	bodies   []string
	requests []openai.ChatCompletionRequest
}

func (s *completionServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/chat/completions" {
		http.NotFound(w, r)
		return
	}
	var req openai.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	body := s.bodies[0]
	s.bodies = s.bodies[1:]
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func newTestOpenAIModel(t *testing.T, bodies ...string) (*OpenAIModel, *completionServer) {
	t.Helper()
	cs := &completionServer{bodies: bodies}
	srv := httptest.NewServer(cs)
	t.Cleanup(srv.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = srv.URL + "/v1"
	defs := []ToolDefinition{
		(&SearchPostsTool{}).Definition(),
		(&FallbackTool{Name: testFallbackTool}).Definition(),
	}
	return newOpenAIModel(config, "test-model", defs), cs
}

const (
	toolCallBody = `{"id":"c1","object":"chat.completion","model":"test-model","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":"searchPosts","arguments":"{\"query\":\"go\"}"}},{"id":"call_2","type":"function","function":{"name":"searchPosts","arguments":"{not json"}}]}}]}`
	textBody     = `{"id":"c2","object":"chat.completion","model":"test-model","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Here you go."}}]}`
	noChoiceBody = `{"id":"c3","object":"chat.completion","model":"test-model","choices":[]}`
)

func TestOpenAIChatToolRoundTrip(t *testing.T) {
	model, srv := newTestOpenAIModel(t, toolCallBody, textBody)
	chat, err := model.StartChat(context.Background(), []Turn{
		{Role: RoleUser, Text: "persona"},
		{Role: RoleAssistant, Text: "ok"},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	resp, err := chat.SendMessage(context.Background(), TextContent("go posts?"))
	if err != nil {
		t.Fatalf("first send: %v", err)
	}
	calls := resp.ToolCalls()
	testboil.FailTestIfDiff(t, len(calls), 2)
	testboil.FailTestIfDiff(t, calls[0].Name, SearchPostsName)
	testboil.FailTestIfDiff(t, calls[0].Args["query"], interface{}("go"))
	testboil.FailTestIfDiff(t, len(calls[1].Args), 0)

	resp, err = chat.SendMessage(context.Background(), ToolResponseContent{
		{CallID: "call_1", ToolName: SearchPostsName, Payload: Payload{"count": 0}},
	})
	if err != nil {
		t.Fatalf("second send: %v", err)
	}
	testboil.FailTestIfDiff(t, resp.Text(), "Here you go.")

	testboil.FailTestIfDiff(t, len(srv.requests), 2)
	first := srv.requests[0]
	testboil.FailTestIfDiff(t, first.Model, "test-model")
	testboil.FailTestIfDiff(t, len(first.Tools), 2)
	testboil.FailTestIfDiff(t, len(first.Messages), 3)

	// priming(2) + user + assistant + executed result + stub for call_2
	second := srv.requests[1].Messages
	testboil.FailTestIfDiff(t, len(second), 6)
	testboil.FailTestIfDiff(t, second[4].Role, openai.ChatMessageRoleTool)
	testboil.FailTestIfDiff(t, second[4].ToolCallID, "call_1")
	testboil.FailTestIfDiff(t, second[5].ToolCallID, "call_2")
	testboil.AssertStringContains(t, second[5].Content, "not executed")
}

func TestOpenAIChatNoChoices(t *testing.T) {
	model, _ := newTestOpenAIModel(t, noChoiceBody)
	chat, err := model.StartChat(context.Background(), nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := chat.SendMessage(context.Background(), TextContent("hi")); err == nil {
		t.Fatalf("expected an error for an empty choice list")
	}
}

func TestDecodeRawArgs(t *testing.T) {
	testboil.FailTestIfDiff(t, len(decodeRawArgs("x", nil)), 0)
	testboil.FailTestIfDiff(t, len(decodeRawArgs("x", []byte("[1,2]"))), 0)
	testboil.FailTestIfDiff(t, decodeRawArgs("x", []byte(`{"a":"b"}`))["a"], interface{}("b"))
}
