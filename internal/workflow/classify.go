package workflow

import (
	"context"
	"fmt"

	"github.com/imadezze/ClassificationAlloBrain/internal/classify"
	"github.com/imadezze/ClassificationAlloBrain/internal/store"
)

// BatchSummary reports a completed (or cancelled) batch run.
type BatchSummary struct {
	Total      int
	Successful int
	Failed     int
}

// Task assembles the classification task for the session's current state:
// vocabulary, few-shot examples, and optional feedback.
func (p *Pipeline) Task(ctx context.Context, feedback string) (classify.Task, error) {
	if p.session == nil {
		return classify.Task{}, fmt.Errorf("no active session")
	}
	set, err := p.Categories(ctx)
	if err != nil {
		return classify.Task{}, err
	}
	examples, err := p.store.Examples().ForSession(ctx, p.session.ID)
	if err != nil {
		return classify.Task{}, err
	}
	return classify.Task{
		SessionID:  p.session.ID,
		ColumnName: p.session.ColumnName,
		Categories: set,
		Examples:   examples,
		Feedback:   feedback,
	}, nil
}

// ClassifyAll classifies every non-empty value of the chosen column and
// appends one ledger version per value. A value's failure is recorded in
// the ledger and the run continues; cancellation stops the run after the
// in-flight value, leaving completed versions in place.
func (p *Pipeline) ClassifyAll(ctx context.Context, progress classify.ProgressFunc) (*BatchSummary, error) {
	task, err := p.Task(ctx, "")
	if err != nil {
		return nil, err
	}

	table, err := p.Table()
	if err != nil {
		return nil, err
	}
	values, indexes, err := table.ColumnWithIndexes(p.session.ColumnName)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("column %q has no non-empty values", p.session.ColumnName)
	}

	status := store.StatusClassificationInProgress
	if err := p.updateSession(ctx, store.SessionUpdate{Status: &status}); err != nil {
		return nil, err
	}

	results, batchErr := p.classifier.ClassifyBatch(ctx, task, values, progress)

	// Persist what was classified even when the batch was cancelled.
	recordCtx := context.WithoutCancel(ctx)

	summary := &BatchSummary{Total: len(values)}
	for i, item := range results {
		rowIndex := indexes[i]
		rec := store.Classification{
			SessionID: p.session.ID,
			InputText: item.Value,
			RowIndex:  &rowIndex,
			Model:     p.modelID(),
		}
		if item.Err != nil {
			rec.Error = item.Err.Error()
			summary.Failed++
		} else {
			rec.Category = item.Result.Category
			rec.Confidence = item.Result.Confidence
			rec.Success = true
			rec.LatencyMs = item.Result.LatencyMs
			summary.Successful++
		}
		if _, err := p.store.Ledger().AppendClassification(recordCtx, rec); err != nil {
			return summary, fmt.Errorf("record classification: %w", err)
		}
	}

	if batchErr != nil {
		return summary, batchErr
	}

	status = store.StatusCompleted
	if err := p.updateSession(ctx, store.SessionUpdate{Status: &status}); err != nil {
		return summary, err
	}
	return summary, nil
}

// ReclassifyValue retries one value, optionally steered by user feedback,
// and appends the outcome as the value's next version. Returns the new
// ledger record.
func (p *Pipeline) ReclassifyValue(ctx context.Context, value, feedback string) (*store.Classification, error) {
	task, err := p.Task(ctx, feedback)
	if err != nil {
		return nil, err
	}

	rec := store.Classification{
		SessionID: p.session.ID,
		InputText: value,
		Model:     p.modelID(),
	}
	res, err := p.classifier.Classify(ctx, task, value)
	if err != nil {
		rec.Error = err.Error()
	} else {
		rec.Category = res.Category
		rec.Confidence = res.Confidence
		rec.Success = true
		rec.LatencyMs = res.LatencyMs
	}

	version, appendErr := p.store.Ledger().AppendClassification(ctx, rec)
	if appendErr != nil {
		return nil, appendErr
	}
	rec.Version = version

	if err != nil {
		return &rec, err
	}
	return &rec, nil
}

// Results returns the session's current classification state, one record
// per input at its highest version.
func (p *Pipeline) Results(ctx context.Context) ([]store.Classification, error) {
	if p.session == nil {
		return nil, fmt.Errorf("no active session")
	}
	return p.store.Ledger().Current(ctx, p.session.ID)
}

// Statistics summarizes the session's current classifications.
func (p *Pipeline) Statistics(ctx context.Context) (store.Stats, error) {
	if p.session == nil {
		return store.Stats{}, fmt.Errorf("no active session")
	}
	return p.store.Ledger().Statistics(ctx, p.session.ID)
}

// Distribution returns category counts over the session's current
// successful classifications.
func (p *Pipeline) Distribution(ctx context.Context) (map[string]int, error) {
	if p.session == nil {
		return nil, fmt.Errorf("no active session")
	}
	return p.store.Ledger().Distribution(ctx, p.session.ID)
}

func (p *Pipeline) modelID() string {
	if p.session != nil && p.session.Model != "" {
		return p.session.Model
	}
	return p.classifier.ModelID()
}
