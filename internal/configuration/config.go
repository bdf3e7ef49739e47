package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/reinhart/postAgent/internal/blog"
)

// Config represents the application configuration
type Config struct {
	LLM      LLMConfig      `toml:"llm"`
	Agent    AgentConfig    `toml:"agent"`
	Dialogue DialogueConfig `toml:"dialogue"`
	Catalog  CatalogConfig  `toml:"catalog"`
}

type LLMConfig struct {
	Provider       string `toml:"provider"`
	OpenAIKey      string `toml:"openai_api_key"`
	AnthropicKey   string `toml:"anthropic_api_key"`
	GeminiKey      string `toml:"gemini_api_key"`
	OpenAIModel    string `toml:"openai_model"`
	AnthropicModel string `toml:"anthropic_model"`
	GeminiModel    string `toml:"gemini_model"`
	OllamaHost     string `toml:"ollama_host"`
	OllamaModel    string `toml:"ollama_model"`
}

type AgentConfig struct {
	Debug       bool          `toml:"debug"`
	TurnTimeout time.Duration `toml:"turn_timeout"`
	EventBuffer int           `toml:"event_buffer"`
}

// DialogueConfig holds the persona and the canned texts of the conversation
type DialogueConfig struct {
	AssistantName   string `toml:"assistant_name"`
	UserName        string `toml:"user_name"`
	Persona         string `toml:"persona"`
	Greeting        string `toml:"greeting"`
	FallbackTool    string `toml:"fallback_tool"`
	FallbackPrompt  string `toml:"fallback_prompt"`
	ConfirmMessage  string `toml:"confirm_message"`
	CancelMessage   string `toml:"cancel_message"`
	Acknowledgement string `toml:"acknowledgement"`
	NoAnswer        string `toml:"no_answer"`
}

type CatalogConfig struct {
	ExcludedCategories []string    `toml:"excluded_categories"`
	MatchThreshold     float64     `toml:"match_threshold"`
	Posts              []blog.Post `toml:"posts"`
}

var providers = []string{"gemini", "openai", "anthropic", "ollama"}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "gemini",
		},
		Agent: AgentConfig{
			TurnTimeout: 2 * time.Minute,
			EventBuffer: 64,
		},
		Dialogue: DialogueConfig{
			AssistantName: "Blog Guide",
			UserName:      "You",
			Persona: `You are Blog Guide, a friendly assistant for a programming blog.
Help readers find posts. Use 'findPostsByCategory' when the reader names a topic and
'searchPosts' when they remember part of a title. Summarize the posts you find with their links.`,
			Greeting:        "Hi! Tell me a topic and I'll find posts about it.",
			FallbackTool:    "showContactForm",
			FallbackPrompt:  "I couldn't find anything for that. Leave your details below and the author will get back to you.",
			ConfirmMessage:  "I submitted the contact form.",
			CancelMessage:   "I closed the contact form without submitting it.",
			Acknowledgement: "Thanks, noted.",
			NoAnswer:        "I don't have an answer for that.",
		},
		Catalog: CatalogConfig{
			ExcludedCategories: []string{"java"},
			MatchThreshold:     blog.DefaultMatchThreshold,
		},
	}
}

// configPaths lists candidate config files in lookup order
func configPaths() []string {
	return []string{
		"./config.toml", // Current directory (for development)
		filepath.Join(os.Getenv("HOME"), ".config", "postagent", "config.toml"),
		"/etc/postagent/config.toml",
	}
}

// LoadConfig loads the first config file found, then applies environment
// overrides. It returns the path used, or "" when running on defaults.
func LoadConfig() (*Config, string, error) {
	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			cfg, err := LoadConfigFrom(path)
			return cfg, path, err
		}
	}

	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg, "", cfg.Validate()
}

// LoadConfigFrom decodes a single file over the defaults and applies environment overrides
func LoadConfigFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env    string
		target *string
	}{
		{"LLM_PROVIDER", &c.LLM.Provider},
		{"OPENAI_API_KEY", &c.LLM.OpenAIKey},
		{"ANTHROPIC_API_KEY", &c.LLM.AnthropicKey},
		{"GEMINI_API_KEY", &c.LLM.GeminiKey},
		{"OPENAI_MODEL", &c.LLM.OpenAIModel},
		{"ANTHROPIC_MODEL", &c.LLM.AnthropicModel},
		{"GEMINI_MODEL", &c.LLM.GeminiModel},
		{"OLLAMA_HOST", &c.LLM.OllamaHost},
		{"OLLAMA_MODEL", &c.LLM.OllamaModel},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
	if debug := os.Getenv("DEBUG"); debug == "true" {
		c.Agent.Debug = true
	}
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
}

// Validate reports settings the application cannot start with
func (c *Config) Validate() error {
	known := false
	for _, p := range providers {
		if c.LLM.Provider == p {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown LLM provider '%s'. Supported: %s", c.LLM.Provider, strings.Join(providers, ", "))
	}
	if c.Agent.TurnTimeout < 0 {
		return fmt.Errorf("turn_timeout must not be negative")
	}
	if strings.TrimSpace(c.Dialogue.FallbackTool) == "" {
		return fmt.Errorf("fallback_tool must be set")
	}
	if c.Catalog.MatchThreshold < 0 || c.Catalog.MatchThreshold > 1 {
		return fmt.Errorf("match_threshold must be between 0 and 1")
	}
	return nil
}

// APIKey returns the key for the selected provider, empty for ollama
func (c *Config) APIKey() string {
	switch c.LLM.Provider {
	case "openai":
		return c.LLM.OpenAIKey
	case "anthropic":
		return c.LLM.AnthropicKey
	case "gemini":
		return c.LLM.GeminiKey
	}
	return ""
}
