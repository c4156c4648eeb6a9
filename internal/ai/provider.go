package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiliankoe/worstcase/internal/ai/ollama"
	"github.com/kiliankoe/worstcase/internal/ai/openai"
	"github.com/kiliankoe/worstcase/internal/config"
)

type Provider interface {
	Complete(ctx context.Context, model string, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error)
}

// FromConfig picks the scenario provider named by SCENARIO_PROVIDER. It
// returns nil when generation is switched off.
func FromConfig(cfg config.Config) (Provider, error) {
	switch strings.ToLower(cfg.ScenarioProvider) {
	case "", "none", "off":
		return nil, nil
	case "openai":
		return openai.New(cfg.OpenAIKey, cfg.OpenAIBaseURL), nil
	case "ollama":
		return ollama.New(cfg.OllamaHost), nil
	}
	return nil, fmt.Errorf("unknown scenario provider %q", cfg.ScenarioProvider)
}
