package classify

import (
	"context"
)

// ItemResult is the outcome for one value of a batch. Err is set when the
// gateway call for that value failed; other values are unaffected.
type ItemResult struct {
	RowIndex int
	Value    string
	Result   *Result
	Err      error
}

// ProgressFunc reports batch progress after each value.
type ProgressFunc func(done, total int)

// ClassifyBatch classifies values sequentially. A failed value records its
// error and the batch continues; only context cancellation stops the run,
// returning the results accumulated so far alongside the context error.
func (c *Classifier) ClassifyBatch(ctx context.Context, task Task, values []string, progress ProgressFunc) ([]ItemResult, error) {
	results := make([]ItemResult, 0, len(values))

	for i, value := range values {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := c.Classify(ctx, task, value)
		results = append(results, ItemResult{
			RowIndex: i,
			Value:    value,
			Result:   res,
			Err:      err,
		})

		if progress != nil {
			progress(i+1, len(values))
		}
	}

	return results, nil
}
