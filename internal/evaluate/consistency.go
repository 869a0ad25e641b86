// Package evaluate provides three read-only quality-assessment protocols
// over already-produced classifications: self-consistency resampling,
// synthetic contrastive testing, and LLM-as-judge. None of them writes to
// the classification ledger; they produce confidence signals, not results.
package evaluate

import (
	"context"
	"fmt"

	"github.com/imadezze/ClassificationAlloBrain/internal/classify"
)

// Agreement bands for self-consistency.
const (
	BandHigh   = "high"
	BandMedium = "medium"
	BandLow    = "low"
)

// DefaultTemperatures is the temperature sweep used when the caller does
// not supply one.
var DefaultTemperatures = []float64{0.0, 0.3, 0.7}

// DefaultRunsPerTemperature is the run count per temperature.
const DefaultRunsPerTemperature = 2

// ConsistencyReport is the outcome of a self-consistency run for one value.
type ConsistencyReport struct {
	Value          string
	TotalRuns      int
	Predictions    map[string]int
	TopCategory    string
	AgreementRate  float64
	Band           string
	Recommendation string
}

// ConsistencyEvaluator re-classifies a value across a temperature sweep and
// measures how often the classifier agrees with itself.
type ConsistencyEvaluator struct {
	classifier *classify.Classifier
}

// NewConsistencyEvaluator creates a ConsistencyEvaluator.
func NewConsistencyEvaluator(c *classify.Classifier) *ConsistencyEvaluator {
	return &ConsistencyEvaluator{classifier: c}
}

// Evaluate classifies value runsPerTemp times at each temperature and
// reports the agreement rate of the modal category. temperatures and
// runsPerTemp fall back to the package defaults when empty or non-positive.
// A run that errors counts against agreement but does not abort the sweep;
// all runs failing is an error.
func (e *ConsistencyEvaluator) Evaluate(ctx context.Context, task classify.Task, value string, temperatures []float64, runsPerTemp int) (*ConsistencyReport, error) {
	if len(temperatures) == 0 {
		temperatures = DefaultTemperatures
	}
	if runsPerTemp <= 0 {
		runsPerTemp = DefaultRunsPerTemperature
	}

	predictions := make(map[string]int)
	total := 0
	failures := 0

	for _, temp := range temperatures {
		t := temp
		task.Temperature = &t
		for run := 0; run < runsPerTemp; run++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			total++
			res, err := e.classifier.Classify(ctx, task, value)
			if err != nil {
				failures++
				continue
			}
			predictions[res.Category]++
		}
	}

	if failures == total {
		return nil, fmt.Errorf("self-consistency: all %d runs failed", total)
	}

	top, count := modal(predictions)
	rate := float64(count) / float64(total)
	band, recommendation := consistencyBand(rate)

	return &ConsistencyReport{
		Value:          value,
		TotalRuns:      total,
		Predictions:    predictions,
		TopCategory:    top,
		AgreementRate:  rate,
		Band:           band,
		Recommendation: recommendation,
	}, nil
}

func modal(counts map[string]int) (string, int) {
	var top string
	var best int
	for name, n := range counts {
		if n > best || (n == best && name < top) {
			top, best = name, n
		}
	}
	return top, best
}

func consistencyBand(rate float64) (band, recommendation string) {
	switch {
	case rate >= 0.8:
		return BandHigh, "Classification is stable across runs; safe to rely on."
	case rate >= 0.6:
		return BandMedium, "Classification varies somewhat across runs; consider tightening category boundaries."
	default:
		return BandLow, "Classification is unstable; flag this value for manual review."
	}
}
