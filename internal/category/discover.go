package category

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/imadezze/ClassificationAlloBrain/internal/llm"
	"github.com/imadezze/ClassificationAlloBrain/internal/prompts"
)

const (
	// DefaultTargetCount is the number of categories proposed when the
	// caller does not ask for a specific count.
	DefaultTargetCount = 5

	// DefaultMaxRetries is the number of additional attempts after the
	// first when the model returns unparseable output or the wrong number
	// of categories.
	DefaultMaxRetries = 2

	maxDiscoverySamples  = 50
	maxRefinementSamples = 30
)

// Discoverer proposes category sets from sample data.
type Discoverer struct {
	provider llm.Provider
	prompts  *prompts.Store
}

// NewDiscoverer creates a Discoverer backed by the given provider and
// prompt store.
func NewDiscoverer(provider llm.Provider, store *prompts.Store) *Discoverer {
	return &Discoverer{provider: provider, prompts: store}
}

// Result is the outcome of a discovery run.
type Result struct {
	Set      Set
	Attempts int

	// Warning is set when the final attempt still returned the wrong
	// number of categories and the result was truncated or accepted short
	// instead of failing.
	Warning string
}

// Discover proposes exactly targetCount categories for the named column
// from the given sample values. Unparseable output and count mismatches are
// retried up to maxRetries additional times; on the last attempt a count
// mismatch is resolved by truncating (or accepting a short set) with a
// Warning rather than failing. Negative arguments fall back to the package
// defaults.
func (d *Discoverer) Discover(ctx context.Context, columnName string, samples []string, targetCount, maxRetries int) (*Result, error) {
	if targetCount <= 0 {
		targetCount = DefaultTargetCount
	}
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	if len(samples) > maxDiscoverySamples {
		samples = samples[:maxDiscoverySamples]
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("discover categories: no sample values")
	}

	prompt, err := d.prompts.Format(prompts.CategoryDiscovery, map[string]any{
		"column_name":    columnName,
		"sample_text":    formatSamples(samples),
		"num_categories": targetCount,
	})
	if err != nil {
		return nil, err
	}

	req := llm.Request{
		System:      prompt.System,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt.User}},
		Schema:      discoverySchema(targetCount),
		MaxTokens:   prompt.Params.MaxTokens,
		Temperature: prompt.Params.Temperature,
	}
	ctx = llm.WithPurpose(ctx, "category-discovery")

	attempts := maxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := d.provider.Generate(ctx, req)
		if err != nil {
			var invalid *llm.ErrInvalidResponse
			if errors.As(err, &invalid) && attempt < attempts {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("discover categories: %w", err)
		}

		set, err := decodeSet(resp.Content)
		if err == nil {
			err = set.Validate()
		}
		if err != nil {
			lastErr = err
			if attempt < attempts {
				continue
			}
			return nil, fmt.Errorf("discover categories: %w", err)
		}

		if len(set) == targetCount {
			return &Result{Set: set, Attempts: attempt}, nil
		}

		lastErr = fmt.Errorf("expected %d categories, got %d", targetCount, len(set))
		if attempt < attempts {
			continue
		}

		// Last attempt: a count mismatch is not a failure. Truncate a
		// surplus to the target; accept a shortfall as-is.
		res := &Result{Set: set, Attempts: attempt}
		if len(set) > targetCount {
			res.Set = set[:targetCount]
			res.Warning = fmt.Sprintf("model returned %d categories; truncated to %d", len(set), targetCount)
		} else {
			res.Warning = fmt.Sprintf("model returned %d categories instead of %d", len(set), targetCount)
		}
		return res, nil
	}

	return nil, fmt.Errorf("discover categories: %w", lastErr)
}

// formatSamples renders sample values as a bulleted list for prompt
// interpolation.
func formatSamples(samples []string) string {
	var b strings.Builder
	for _, s := range samples {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
