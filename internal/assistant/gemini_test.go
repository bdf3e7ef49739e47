package assistant

import (
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
	"github.com/google/generative-ai-go/genai"
)

func TestGeminiToolsOmitEmptyParameters(t *testing.T) {
	tools := geminiTools([]ToolDefinition{
		(&FindPostsByCategoryTool{}).Definition(),
		(&FallbackTool{Name: testFallbackTool}).Definition(),
	})
	testboil.FailTestIfDiff(t, len(tools), 1)
	decls := tools[0].FunctionDeclarations
	testboil.FailTestIfDiff(t, len(decls), 2)

	find := decls[0].Parameters
	if find == nil {
		t.Fatalf("expected parameters for %s", decls[0].Name)
	}
	testboil.FailTestIfDiff(t, find.Type, genai.TypeObject)
	testboil.FailTestIfDiff(t, find.Properties["categories"].Type, genai.TypeArray)
	testboil.FailTestIfDiff(t, find.Properties["categories"].Items.Type, genai.TypeString)
	testboil.FailTestIfDiff(t, find.Required[0], "categories")

	if decls[1].Parameters != nil {
		t.Fatalf("argument-less tool should not declare parameters")
	}
	if geminiTools(nil) != nil {
		t.Fatalf("no tools should produce a nil tool list")
	}
}

func TestGeminiHistoryRoles(t *testing.T) {
	h := geminiHistory([]Turn{{Role: RoleUser, Text: "a"}, {Role: RoleAssistant, Text: "b"}})
	testboil.FailTestIfDiff(t, h[0].Role, "user")
	testboil.FailTestIfDiff(t, h[1].Role, "model")
	testboil.FailTestIfDiff(t, h[1].Parts[0].(genai.Text), genai.Text("b"))
}

func TestNewGeminiResponse(t *testing.T) {
	if _, err := newGeminiResponse(&genai.GenerateContentResponse{}); err == nil {
		t.Fatalf("expected error without candidates")
	}
	if _, err := newGeminiResponse(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}); err == nil {
		t.Fatalf("expected error for a candidate without content")
	}

	resp, err := newGeminiResponse(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{
			genai.Text("Looking "),
			genai.FunctionCall{Name: SearchPostsName, Args: map[string]any{"query": "go"}},
			genai.Text("now."),
		}},
	}}})
	if err != nil {
		t.Fatalf("response: %v", err)
	}
	testboil.FailTestIfDiff(t, resp.Text(), "Looking now.")
	testboil.FailTestIfDiff(t, len(resp.ToolCalls()), 1)
	testboil.FailTestIfDiff(t, resp.ToolCalls()[0].Args["query"], interface{}("go"))
}

func TestGeminiPartsAnswerPendingCalls(t *testing.T) {
	c := &geminiChat{pending: []string{SearchPostsName, testFallbackTool}}

	parts := c.parts(ToolResponseContent{{ToolName: SearchPostsName, Payload: Payload{"count": 0}}})
	testboil.FailTestIfDiff(t, len(parts), 2)
	testboil.FailTestIfDiff(t, parts[0].(genai.FunctionResponse).Name, SearchPostsName)
	stub := parts[1].(genai.FunctionResponse)
	testboil.FailTestIfDiff(t, stub.Name, testFallbackTool)
	testboil.FailTestIfDiff(t, stub.Response["error"], interface{}("not executed"))

	c.pending = []string{testFallbackTool}
	parts = c.parts(TextContent("I have submitted the contact form."))
	testboil.FailTestIfDiff(t, len(parts), 2)
	testboil.FailTestIfDiff(t, parts[1].(genai.Text), genai.Text("I have submitted the contact form."))

	// parts must not consume pending itself; SendMessage resets it on success
	testboil.FailTestIfDiff(t, len(c.pending), 1)
}
