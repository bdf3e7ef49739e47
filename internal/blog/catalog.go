// Package blog holds the post catalog the assistant's tools search.
package blog

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Post is a single blog entry the assistant may recommend.
type Post struct {
	Title    string `json:"title" toml:"title"`
	URL      string `json:"url" toml:"url"`
	Category string `json:"category" toml:"category"`
}

// DefaultMatchThreshold is the diffmatchpatch threshold used by Search
// when the catalog does not set one. 0.0 accepts only titles containing
// the query verbatim, 1.0 accepts anything.
const DefaultMatchThreshold = 0.4

// SamplePosts is the fixed set returned for any category that is not excluded.
func SamplePosts() []Post {
	return []Post{
		{Title: "Getting started with Python type hints", URL: "https://blog.example.com/python-type-hints", Category: "python"},
		{Title: "Writing a REST API in Go", URL: "https://blog.example.com/go-rest-api", Category: "go"},
		{Title: "Async JavaScript without the tears", URL: "https://blog.example.com/async-javascript", Category: "javascript"},
	}
}

// Catalog answers category and title lookups.
type Catalog struct {
	posts     []Post
	excluded  map[string]struct{}
	threshold float64
}

// NewCatalog builds a catalog. Empty posts fall back to SamplePosts and a
// negative threshold falls back to DefaultMatchThreshold.
func NewCatalog(posts []Post, excluded []string, threshold float64) *Catalog {
	if len(posts) == 0 {
		posts = SamplePosts()
	}
	if threshold < 0 {
		threshold = DefaultMatchThreshold
	}
	c := &Catalog{
		posts:     append([]Post(nil), posts...),
		excluded:  make(map[string]struct{}, len(excluded)),
		threshold: threshold,
	}
	for _, e := range excluded {
		c.excluded[normalize(e)] = struct{}{}
	}
	return c
}

// ByCategories returns nothing when any requested category is excluded,
// otherwise the whole catalog.
func (c *Catalog) ByCategories(categories []string) []Post {
	for _, cat := range categories {
		if _, ok := c.excluded[normalize(cat)]; ok {
			return []Post{}
		}
	}
	return append([]Post(nil), c.posts...)
}

// Search returns posts whose title fuzzily contains query, in catalog order.
func (c *Catalog) Search(query string) []Post {
	query = normalize(query)
	if query == "" {
		return []Post{}
	}

	dmp := diffmatchpatch.New()
	dmp.MatchThreshold = c.threshold
	// Bitap is limited to patterns no longer than MatchMaxBits.
	if len(query) > dmp.MatchMaxBits {
		query = query[:dmp.MatchMaxBits]
	}

	matches := []Post{}
	for _, p := range c.posts {
		title := normalize(p.Title)
		// MatchMain penalizes distance from the start, so verbatim hits are checked first
		if strings.Contains(title, query) || dmp.MatchMain(title, query, 0) >= 0 {
			matches = append(matches, p)
		}
	}
	return matches
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
