package llm

import (
	"context"
	"fmt"

	"github.com/imadezze/ClassificationAlloBrain/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped with the
// call-logging and retry middleware: caller → retry → logging → base.
func NewProvider(ctx context.Context, cfg Config, calls store.CallRepo) (Provider, error) {
	base, err := newBase(ctx, cfg, "")
	if err != nil {
		return nil, err
	}
	if cfg.Provider == "mock" {
		return base, nil
	}

	logged := WithLogging(base, calls)
	retried := WithRetry(logged, cfg.Retry)

	return retried, nil
}

// NewJudgeProviders creates one Provider per configured judge model.
// Judges get logging but no retry middleware: a failed judge is excluded
// from the consensus rather than retried.
func NewJudgeProviders(ctx context.Context, cfg Config, calls store.CallRepo) ([]Provider, error) {
	models := cfg.JudgeModelNames()
	providers := make([]Provider, 0, len(models))
	for _, model := range models {
		base, err := newBase(ctx, cfg, model)
		if err != nil {
			return nil, fmt.Errorf("judge %s: %w", model, err)
		}
		if cfg.Provider == "mock" {
			providers = append(providers, base)
			continue
		}
		providers = append(providers, WithLogging(base, calls))
	}
	return providers, nil
}

// newBase builds an unwrapped provider. A non-empty model overrides the
// configured model, which is how judge providers select stronger models.
func newBase(ctx context.Context, cfg Config, model string) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		ac := cfg.Anthropic
		if model != "" {
			ac.Model = model
		}
		base, err = NewAnthropicProvider(ac)
	case "openai":
		oc := cfg.OpenAI
		if model != "" {
			oc.Model = model
		}
		base, err = NewOpenAIProvider(oc)
	case "gemini":
		gc := cfg.Gemini
		if model != "" {
			gc.Model = model
		}
		base, err = NewGeminiProvider(ctx, gc)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return base, nil
}
