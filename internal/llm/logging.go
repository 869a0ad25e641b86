package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/imadezze/ClassificationAlloBrain/internal/store"
)

// LoggingProvider is a decorator that records every LLM request in the
// llm_calls table.
type LoggingProvider struct {
	inner Provider
	calls store.CallRepo
}

// WithLogging wraps a Provider with call logging.
func WithLogging(p Provider, calls store.CallRepo) Provider {
	return &LoggingProvider{inner: p, calls: calls}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	rec := store.LLMCall{
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		Temperature: req.Temperature,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
	}

	if resp != nil {
		rec.Model = resp.Model
		rec.InputTokens = resp.Usage.InputTokens
		rec.OutputTokens = resp.Usage.OutputTokens
	}

	if err != nil {
		rec.Error = err.Error()
	}

	// Log the call but never fail the request over a logging error.
	if logErr := l.calls.AppendLLMCall(ctx, rec); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log LLM call: %v\n", logErr)
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
