package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// FewShotExample is a user-supplied classification example used to steer
// the classifier. Session-local examples apply to one session; global
// examples apply everywhere.
type FewShotExample struct {
	ID        int64
	SessionID string // empty for global examples
	Text      string
	Category  string
	Reasoning string
	IsGlobal  bool
	Order     int
	CreatedAt time.Time
}

// ExampleRepo manages few-shot examples.
type ExampleRepo struct {
	db *sql.DB
}

// Add inserts an example. A zero Order places it after existing examples.
func (r *ExampleRepo) Add(ctx context.Context, ex FewShotExample) (int64, error) {
	order := ex.Order
	if order == 0 {
		err := r.db.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(display_order), 0) + 1 FROM few_shot_examples
			 WHERE session_id IS ? OR is_global = ?`,
			nullable(ex.SessionID), ex.IsGlobal,
		).Scan(&order)
		if err != nil {
			return 0, fmt.Errorf("next display order: %w", err)
		}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO few_shot_examples
		 (session_id, example_text, category, reasoning, is_global, display_order)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		nullable(ex.SessionID), ex.Text, ex.Category, nullable(ex.Reasoning),
		ex.IsGlobal, order,
	)
	if err != nil {
		return 0, fmt.Errorf("insert example: %w", err)
	}
	return res.LastInsertId()
}

// ForSession returns a session's examples plus all global examples, in
// display order.
func (r *ExampleRepo) ForSession(ctx context.Context, sessionID string) ([]FewShotExample, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, COALESCE(session_id, ''), example_text, category,
		        COALESCE(reasoning, ''), is_global, display_order, created_at
		 FROM few_shot_examples
		 WHERE session_id = ? OR is_global = 1
		 ORDER BY display_order, created_at`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query examples: %w", err)
	}
	defer rows.Close()
	return collectExamples(rows)
}

// Globals returns all global examples in display order.
func (r *ExampleRepo) Globals(ctx context.Context) ([]FewShotExample, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, COALESCE(session_id, ''), example_text, category,
		        COALESCE(reasoning, ''), is_global, display_order, created_at
		 FROM few_shot_examples
		 WHERE is_global = 1
		 ORDER BY display_order, created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("query global examples: %w", err)
	}
	defer rows.Close()
	return collectExamples(rows)
}

// Delete removes a single example by ID.
func (r *ExampleRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM few_shot_examples WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete example: %w", err)
	}
	return nil
}

// DeleteForSession removes all session-local examples for a session and
// returns the count removed.
func (r *ExampleRepo) DeleteForSession(ctx context.Context, sessionID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM few_shot_examples WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete session examples: %w", err)
	}
	return res.RowsAffected()
}

func collectExamples(rows *sql.Rows) ([]FewShotExample, error) {
	var examples []FewShotExample
	for rows.Next() {
		var ex FewShotExample
		var createdAt string
		err := rows.Scan(
			&ex.ID, &ex.SessionID, &ex.Text, &ex.Category, &ex.Reasoning,
			&ex.IsGlobal, &ex.Order, &createdAt,
		)
		if err != nil {
			return nil, err
		}
		ex.CreatedAt = parseTime(createdAt)
		examples = append(examples, ex)
	}
	return examples, rows.Err()
}
