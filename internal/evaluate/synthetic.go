package evaluate

import (
	"context"
	"fmt"
	"strings"

	"github.com/imadezze/ClassificationAlloBrain/internal/category"
	"github.com/imadezze/ClassificationAlloBrain/internal/classify"
	"github.com/imadezze/ClassificationAlloBrain/internal/llm"
	"github.com/imadezze/ClassificationAlloBrain/internal/prompts"
)

// Accuracy bands for synthetic contrastive testing.
const (
	AccuracyExcellent = "excellent"
	AccuracyModerate  = "moderate"
	AccuracyPoor      = "poor"
)

// Difficulty levels tagged onto generated examples.
var difficultyLevels = []string{"easy", "medium", "hard"}

// DefaultSyntheticCount is the number of examples generated per category.
const DefaultSyntheticCount = 5

// SyntheticExample is one generated test case and its classification
// outcome.
type SyntheticExample struct {
	Text       string
	Difficulty string
	Predicted  string
	Correct    bool
	Err        error
}

// SyntheticReport is the outcome of a generate-then-classify run for one
// category.
type SyntheticReport struct {
	Category string
	Examples []SyntheticExample
	Accuracy float64
	Band     string
}

// SyntheticEvaluator generates examples that should belong to a category
// with a stronger generator model, classifies them with the normal
// classifier, and reports how many came back as expected.
type SyntheticEvaluator struct {
	generator  llm.Provider
	classifier *classify.Classifier
	prompts    *prompts.Store
}

// NewSyntheticEvaluator creates a SyntheticEvaluator. generator should be a
// stronger model than the one backing the classifier.
func NewSyntheticEvaluator(generator llm.Provider, classifier *classify.Classifier, store *prompts.Store) *SyntheticEvaluator {
	return &SyntheticEvaluator{generator: generator, classifier: classifier, prompts: store}
}

// Evaluate generates count examples for target and classifies each one with
// the task's vocabulary. Accuracy is the fraction classified back to the
// target category; a classification error counts as incorrect. count falls
// back to DefaultSyntheticCount.
func (e *SyntheticEvaluator) Evaluate(ctx context.Context, task classify.Task, target category.Category, count int) (*SyntheticReport, error) {
	if count <= 0 {
		count = DefaultSyntheticCount
	}

	generated, err := e.generate(ctx, target, count)
	if err != nil {
		return nil, err
	}

	report := &SyntheticReport{Category: target.Name}
	correct := 0
	for _, g := range generated {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ex := SyntheticExample{Text: g.Text, Difficulty: g.Difficulty}
		res, err := e.classifier.Classify(ctx, task, g.Text)
		if err != nil {
			ex.Err = err
		} else {
			ex.Predicted = res.Category
			ex.Correct = strings.EqualFold(res.Category, target.Name)
		}
		if ex.Correct {
			correct++
		}
		report.Examples = append(report.Examples, ex)
	}

	report.Accuracy = float64(correct) / float64(len(generated)) * 100
	report.Band = accuracyBand(report.Accuracy)
	return report, nil
}

// EvaluateAll runs Evaluate for every category of the task's vocabulary.
func (e *SyntheticEvaluator) EvaluateAll(ctx context.Context, task classify.Task, count int) ([]SyntheticReport, error) {
	var reports []SyntheticReport
	for _, cat := range task.Categories {
		report, err := e.Evaluate(ctx, task, cat, count)
		if err != nil {
			return reports, fmt.Errorf("synthetic evaluation for %q: %w", cat.Name, err)
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

type generatedExample struct {
	Text       string `json:"text"`
	Difficulty string `json:"difficulty"`
}

func (e *SyntheticEvaluator) generate(ctx context.Context, target category.Category, count int) ([]generatedExample, error) {
	prompt, err := e.prompts.Format(prompts.SyntheticGeneration, map[string]any{
		"num_examples":         count,
		"category_name":        target.Name,
		"category_description": target.Description,
		"category_boundary":    target.Boundary,
		"difficulty_levels":    strings.Join(difficultyLevels, ", "),
	})
	if err != nil {
		return nil, err
	}

	resp, err := e.generator.Generate(llm.WithPurpose(ctx, "synthetic-generation"), llm.Request{
		System:      prompt.System,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt.User}},
		Schema:      syntheticSchema(count),
		MaxTokens:   prompt.Params.MaxTokens,
		Temperature: prompt.Params.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate examples for %q: %w", target.Name, err)
	}

	var out struct {
		Examples []generatedExample `json:"examples"`
	}
	if err := llm.DecodeJSON(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("generate examples for %q: %w", target.Name, err)
	}
	if len(out.Examples) == 0 {
		return nil, fmt.Errorf("generate examples for %q: model returned none", target.Name)
	}
	return out.Examples, nil
}

func accuracyBand(accuracy float64) string {
	switch {
	case accuracy >= 90:
		return AccuracyExcellent
	case accuracy >= 70:
		return AccuracyModerate
	default:
		return AccuracyPoor
	}
}
