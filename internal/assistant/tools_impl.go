package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/reinhart/postAgent/internal/blog"
)

const (
	FindPostsByCategoryName = "findPostsByCategory"
	SearchPostsName         = "searchPosts"
)

// PostsResult is the payload shape shared by the post lookup tools
type PostsResult struct {
	Posts []blog.Post `json:"posts"`
	Count int         `json:"count"`
}

func postsPayload(posts []blog.Post) (Payload, error) {
	return EncodePayload(PostsResult{Posts: posts, Count: len(posts)})
}

// --- Category Lookup ---

type FindPostsByCategoryTool struct {
	Catalog *blog.Catalog
}

type FindPostsByCategoryArgs struct {
	Categories []string `json:"categories"`
}

func (t *FindPostsByCategoryTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        FindPostsByCategoryName,
		Description: "Finds blog posts that belong to any of the given categories. Returns an empty list when nothing matches.",
		Parameters: ObjectSchema(map[string]*Schema{
			"categories": {
				Type:        "array",
				Description: "Post categories, e.g. python, go, javascript",
				Items:       &Schema{Type: "string"},
			},
		}, "categories"),
	}
}

func (t *FindPostsByCategoryTool) Execute(ctx context.Context, args Args) (Payload, error) {
	var a FindPostsByCategoryArgs
	if err := DecodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Categories) == 0 {
		return nil, fmt.Errorf("%w: categories must not be empty", ErrMalformedToolCall)
	}
	return postsPayload(t.Catalog.ByCategories(a.Categories))
}

// --- Title Search ---

type SearchPostsTool struct {
	Catalog *blog.Catalog
}

type SearchPostsArgs struct {
	Query string `json:"query"`
}

func (t *SearchPostsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        SearchPostsName,
		Description: "Searches blog post titles, tolerating typos. Returns an empty list when nothing matches.",
		Parameters: ObjectSchema(map[string]*Schema{
			"query": {Type: "string", Description: "Words expected in the post title"},
		}, "query"),
	}
}

func (t *SearchPostsTool) Execute(ctx context.Context, args Args) (Payload, error) {
	var a SearchPostsArgs
	if err := DecodeArgs(args, &a); err != nil {
		return nil, err
	}
	if strings.TrimSpace(a.Query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", ErrMalformedToolCall)
	}
	return postsPayload(t.Catalog.Search(a.Query))
}

// --- Fallback ---

// FallbackTool only declares the reserved fallback name to the model.
// The loop intercepts calls to it before they reach the registry.
type FallbackTool struct {
	Name string
}

func (t *FallbackTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        t.Name,
		Description: "Call this, without arguments, when no other tool can satisfy the request. The user is then shown a contact form.",
		Parameters:  ObjectSchema(nil),
	}
}

func (t *FallbackTool) Execute(ctx context.Context, args Args) (Payload, error) {
	return Payload{}, nil
}
