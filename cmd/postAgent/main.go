package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/reinhart/postAgent/internal/assistant"
	"github.com/reinhart/postAgent/internal/blog"
	"github.com/reinhart/postAgent/internal/configuration"
	"github.com/reinhart/postAgent/internal/logger"
	"github.com/reinhart/postAgent/internal/ui"
)

const banner = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// primingTurns seeds the chat with the persona before the user speaks
func primingTurns(cfg *configuration.Config) []assistant.Turn {
	persona := fmt.Sprintf(`%s
If the tools return no posts, or the request cannot be answered with the tools, call
'%s' without arguments instead of apologizing.`, cfg.Dialogue.Persona, cfg.Dialogue.FallbackTool)

	return []assistant.Turn{
		{Role: assistant.RoleUser, Text: persona},
		{Role: assistant.RoleAssistant, Text: "Understood. I'll help readers find posts and use the tools as described."},
	}
}

func buildRegistry(cfg *configuration.Config) (*assistant.ToolRegistry, error) {
	catalog := blog.NewCatalog(cfg.Catalog.Posts, cfg.Catalog.ExcludedCategories, cfg.Catalog.MatchThreshold)

	registry := assistant.NewToolRegistry()
	tools := []assistant.Tool{
		&assistant.FindPostsByCategoryTool{Catalog: catalog},
		&assistant.SearchPostsTool{Catalog: catalog},
		&assistant.FallbackTool{Name: cfg.Dialogue.FallbackTool},
	}
	for _, t := range tools {
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func buildModel(ctx context.Context, cfg *configuration.Config, tools []assistant.ToolDefinition) (assistant.ChatModel, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		return assistant.NewGeminiModel(ctx, cfg.LLM.GeminiKey, cfg.LLM.GeminiModel, tools)
	case "openai":
		return assistant.NewOpenAIModel(cfg.LLM.OpenAIKey, cfg.LLM.OpenAIModel, tools), nil
	case "anthropic":
		return assistant.NewAnthropicModel(cfg.LLM.AnthropicKey, cfg.LLM.AnthropicModel, tools), nil
	case "ollama":
		return assistant.NewOllamaModel(cfg.LLM.OllamaHost, cfg.LLM.OllamaModel, tools), nil
	}
	return nil, fmt.Errorf("unknown LLM provider '%s'", cfg.LLM.Provider)
}

func missingKey(provider string) {
	env := map[string]string{
		"gemini":    "GEMINI_API_KEY",
		"openai":    "OPENAI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
	}[provider]

	fmt.Println(banner)
	fmt.Printf("❌ Error: %s not set\n", env)
	fmt.Println("")
	fmt.Println("Set it via environment variable:")
	fmt.Printf("  export %s='...'\n", env)
	fmt.Println("")
	fmt.Println("Or add it to ~/.config/postagent/config.toml:")
	fmt.Println("  [llm]")
	fmt.Printf("  %s_api_key = \"...\"\n", provider)
	fmt.Println(banner)
}

func main() {
	cfg, path, err := configuration.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if path == "" {
		fmt.Println("⚠️  No config file found. Using default settings.")
	} else {
		fmt.Printf("✓ Loaded config from: %s\n", path)
	}

	logger.Init(cfg.Agent.Debug)

	// Logs go to a file so they cannot corrupt the TUI
	if logger.DebugMode {
		f, err := tea.LogToFile("debug.log", "debug")
		if err != nil {
			fmt.Println("fatal: could not open debug.log:", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetOutput(f)
		logger.Debug("Logger initialized")
	}
	logger.Debug("Selected Provider: %s", cfg.LLM.Provider)

	if cfg.LLM.Provider != "ollama" && cfg.APIKey() == "" {
		missingKey(cfg.LLM.Provider)
		os.Exit(1)
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		fmt.Printf("Error registering tools: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	model, err := buildModel(ctx, cfg, registry.Definitions())
	if err != nil {
		fmt.Printf("Error initializing %s: %v\n", cfg.LLM.Provider, err)
		os.Exit(1)
	}
	if g, ok := model.(*assistant.GeminiModel); ok {
		defer g.Close()
	}

	// One session for the lifetime of the UI
	session, err := assistant.StartSession(ctx, model, primingTurns(cfg))
	if err != nil {
		fmt.Printf("Error starting chat: %v\n", err)
		os.Exit(1)
	}

	loop := assistant.NewLoop(session, registry, assistant.LoopConfig{
		AssistantName: cfg.Dialogue.AssistantName,
		UserName:      cfg.Dialogue.UserName,
		Fallback: assistant.FallbackPolicy{
			ToolName: cfg.Dialogue.FallbackTool,
			Prompt:   cfg.Dialogue.FallbackPrompt,
		},
		ConfirmMessage:  cfg.Dialogue.ConfirmMessage,
		CancelMessage:   cfg.Dialogue.CancelMessage,
		Acknowledgement: cfg.Dialogue.Acknowledgement,
		NoAnswer:        cfg.Dialogue.NoAnswer,
		TurnTimeout:     cfg.Agent.TurnTimeout,
		EventBuffer:     cfg.Agent.EventBuffer,
	})

	p := tea.NewProgram(ui.NewModel(loop, cfg.Dialogue.AssistantName, cfg.Dialogue.Greeting), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running postAgent: %v\n", err)
		os.Exit(1)
	}
}
