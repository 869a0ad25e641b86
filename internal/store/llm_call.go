package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// LLMCall is one logged gateway request.
type LLMCall struct {
	ID           int64
	Model        string
	Purpose      string
	Temperature  float64
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	Error        string
	CreatedAt    time.Time
}

// CallRepo is the narrow interface the LLM gateway's logging decorator
// needs. Satisfied by *CallLog.
type CallRepo interface {
	AppendLLMCall(ctx context.Context, call LLMCall) error
}

// CallLog records and queries LLM call events.
type CallLog struct {
	db *sql.DB
}

var _ CallRepo = (*CallLog)(nil)

// AppendLLMCall records one gateway request.
func (l *CallLog) AppendLLMCall(ctx context.Context, call LLMCall) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO llm_calls
		 (model, purpose, temperature, input_tokens, output_tokens, latency_ms, success, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		call.Model, call.Purpose, call.Temperature, call.InputTokens,
		call.OutputTokens, call.LatencyMs, call.Success, call.Error,
	)
	if err != nil {
		return fmt.Errorf("insert llm call: %w", err)
	}
	return nil
}

// Recent returns the most recent calls, newest first. limit <= 0 means 50.
func (l *CallLog) Recent(ctx context.Context, limit int) ([]LLMCall, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, model, purpose, temperature, input_tokens, output_tokens,
		        latency_ms, success, error, created_at
		 FROM llm_calls ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query llm calls: %w", err)
	}
	defer rows.Close()

	var calls []LLMCall
	for rows.Next() {
		var c LLMCall
		var createdAt string
		err := rows.Scan(
			&c.ID, &c.Model, &c.Purpose, &c.Temperature, &c.InputTokens,
			&c.OutputTokens, &c.LatencyMs, &c.Success, &c.Error, &createdAt,
		)
		if err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(createdAt)
		calls = append(calls, c)
	}
	return calls, rows.Err()
}
