package category

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/imadezze/ClassificationAlloBrain/internal/llm"
	"github.com/imadezze/ClassificationAlloBrain/internal/prompts"
)

// Refine rewrites the current category set from user feedback. The model
// may merge, split, add, or remove categories, so the result size is not
// constrained and a single call is made without count-based retries.
func (d *Discoverer) Refine(ctx context.Context, current Set, feedback string, samples []string) (Set, error) {
	if err := current.Validate(); err != nil {
		return nil, fmt.Errorf("refine categories: %w", err)
	}
	if feedback == "" {
		return nil, fmt.Errorf("refine categories: feedback is empty")
	}
	if len(samples) > maxRefinementSamples {
		samples = samples[:maxRefinementSamples]
	}

	currentJSON, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("refine categories: %w", err)
	}

	prompt, err := d.prompts.Format(prompts.CategoryRefinement, map[string]any{
		"categories_json": string(currentJSON),
		"sample_text":     formatSamples(samples),
		"feedback":        feedback,
	})
	if err != nil {
		return nil, err
	}

	resp, err := d.provider.Generate(llm.WithPurpose(ctx, "category-refinement"), llm.Request{
		System:      prompt.System,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt.User}},
		Schema:      refinementSchema(),
		MaxTokens:   prompt.Params.MaxTokens,
		Temperature: prompt.Params.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("refine categories: %w", err)
	}

	set, err := decodeSet(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("refine categories: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("refine categories: %w", err)
	}
	return set, nil
}
