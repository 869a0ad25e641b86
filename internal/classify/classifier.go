// Package classify assigns text values to categories from a session's
// current vocabulary. The LLM call is schema-constrained to the legal
// category names; anything that still comes back off-vocabulary is resolved
// by fallback matching rather than treated as a failure.
package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/imadezze/ClassificationAlloBrain/internal/category"
	"github.com/imadezze/ClassificationAlloBrain/internal/llm"
	"github.com/imadezze/ClassificationAlloBrain/internal/prompts"
	"github.com/imadezze/ClassificationAlloBrain/internal/store"
)

// Confidence levels reported by the classifier.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Match describes how the model's answer was mapped onto the vocabulary.
type Match string

const (
	// MatchExact means the answer equaled a category name ignoring case.
	MatchExact Match = "exact"

	// MatchSubstring means the answer and a category name contained each
	// other ignoring case.
	MatchSubstring Match = "substring"

	// MatchVerbatim means no category matched and the answer was kept
	// as-is with low confidence.
	MatchVerbatim Match = "verbatim"
)

// Task carries everything a classification call needs beyond the value
// itself. One Task is shared across a batch.
type Task struct {
	SessionID  string
	ColumnName string
	Categories category.Set

	// Examples are few-shot demonstrations spliced into the prompt before
	// the value to classify.
	Examples []store.FewShotExample

	// Feedback is optional user guidance appended to the prompt, used when
	// re-classifying a value the user disagreed with.
	Feedback string

	// Temperature overrides the template default when set. Self-consistency
	// evaluation sweeps this across runs.
	Temperature *float64
}

// Result is one classification outcome.
type Result struct {
	Category   string
	Confidence string
	Match      Match
	Reasoning  string
	LatencyMs  int64
	Usage      llm.Usage
}

// Classifier classifies values against a category vocabulary.
type Classifier struct {
	provider llm.Provider
	prompts  *prompts.Store
}

// NewClassifier creates a Classifier backed by the given provider and
// prompt store.
func NewClassifier(provider llm.Provider, store *prompts.Store) *Classifier {
	return &Classifier{provider: provider, prompts: store}
}

// ModelID returns the backing provider's model identifier.
func (c *Classifier) ModelID() string {
	return c.provider.ModelID()
}

// Classify assigns value to one of the task's categories. An
// off-vocabulary answer is resolved by matching, never by failing: exact
// case-insensitive match first, then substring containment, then the
// verbatim answer with low confidence.
func (c *Classifier) Classify(ctx context.Context, task Task, value string) (*Result, error) {
	if err := task.Categories.Validate(); err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("classify: value is empty")
	}

	prompt, err := c.prompts.Format(prompts.ValueClassification, map[string]any{
		"column_name":     task.ColumnName,
		"categories_text": formatCategories(task.Categories),
		"examples_text":   formatExamples(task.Examples),
		"value":           value,
		"feedback":        task.Feedback,
	})
	if err != nil {
		return nil, err
	}

	temperature := prompt.Params.Temperature
	if task.Temperature != nil {
		temperature = *task.Temperature
	}

	start := time.Now()
	resp, err := c.provider.Generate(llm.WithPurpose(ctx, "classification"), llm.Request{
		System:      prompt.System,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt.User}},
		Schema:      classificationSchema(task.Categories.Names()),
		MaxTokens:   prompt.Params.MaxTokens,
		Temperature: temperature,
	})
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("classify %q: %w", value, err)
	}

	answer, confidence, reasoning := decodeAnswer(resp.Content)
	name, conf, match := resolveCategory(task.Categories.Names(), answer, confidence)

	return &Result{
		Category:   name,
		Confidence: conf,
		Match:      match,
		Reasoning:  reasoning,
		LatencyMs:  latency,
		Usage:      resp.Usage,
	}, nil
}

// decodeAnswer extracts the category answer from a response. Structured
// output yields a {"category", "confidence"} object; a plain completion is
// taken as the answer text itself.
func decodeAnswer(raw []byte) (answer, confidence, reasoning string) {
	var obj struct {
		Category   string `json:"category"`
		Confidence string `json:"confidence"`
		Reasoning  string `json:"reasoning"`
	}
	if err := llm.DecodeJSON(raw, &obj); err == nil && obj.Category != "" {
		return obj.Category, obj.Confidence, obj.Reasoning
	}

	text := llm.StripFences(string(raw))
	text = strings.Trim(strings.TrimSpace(text), `"`)
	return text, "", ""
}

func formatCategories(set category.Set) string {
	var b strings.Builder
	for i, c := range set {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.Name)
		if c.Description != "" {
			fmt.Fprintf(&b, "   Description: %s\n", c.Description)
		}
		if c.Boundary != "" {
			fmt.Fprintf(&b, "   Boundary: %s\n", c.Boundary)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatExamples(examples []store.FewShotExample) string {
	var b strings.Builder
	for i, ex := range examples {
		fmt.Fprintf(&b, "Example %d:\nText: %q\nCategory: %s\n", i+1, ex.Text, ex.Category)
		if ex.Reasoning != "" {
			fmt.Fprintf(&b, "Reasoning: %s\n", ex.Reasoning)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
