package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const scenarioSystemPrompt = "You write prompts for a party game about everyday misfortunes. " +
	"Each prompt is one short sentence in second person describing a bad but harmless situation. " +
	"Reply with one prompt per line and nothing else."

var ErrNoScenarios = errors.New("provider returned no scenarios")

// GenerateScenarios asks the provider for up to n new card prompts.
func GenerateScenarios(ctx context.Context, p Provider, model string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	prompt := fmt.Sprintf("Write %d different worst-case scenarios.", n)
	text, err := p.CompleteWithSystem(ctx, model, scenarioSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate scenarios: %w", err)
	}
	out := parseScenarios(text, n)
	if len(out) == 0 {
		return nil, ErrNoScenarios
	}
	return out, nil
}

// parseScenarios splits a completion into prompts, dropping list markers,
// quotes and blank lines.
func parseScenarios(text string, n int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeftFunc(line, func(r rune) bool {
			return unicode.IsDigit(r) || r == '.' || r == ')' || r == '-' || r == '*' || r == '•' || unicode.IsSpace(r)
		})
		line = strings.Trim(line, "\"'“”")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return out
}
