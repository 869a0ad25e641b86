package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Classification is one row of the version ledger: a single classification
// attempt for a (session, input_text) pair. Rows are immutable once
// written; retries append a new version instead of updating.
type Classification struct {
	ID          int64
	SessionID   string
	InputText   string
	RowIndex    *int
	Category    string
	Confidence  string // high | medium | low; empty when unknown
	Version     int
	Model       string
	Temperature float64
	Success     bool
	Error       string
	LatencyMs   int64
	CreatedAt   time.Time
}

// LedgerRepo is the append-only classification version ledger plus the
// category set history.
type LedgerRepo struct {
	db *sql.DB
}

// AppendClassification inserts a new classification version for
// (sessionID, input_text) and returns the assigned version, previous max
// plus one. The read-max-then-insert runs in an immediate transaction so
// concurrent writers to the same key cannot assign duplicate versions.
func (r *LedgerRepo) AppendClassification(ctx context.Context, rec Classification) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var maxVersion int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM classifications
		 WHERE session_id = ? AND input_text = ?`,
		rec.SessionID, rec.InputText,
	).Scan(&maxVersion)
	if err != nil {
		return 0, fmt.Errorf("read max version: %w", err)
	}

	version := maxVersion + 1
	_, err = tx.ExecContext(ctx,
		`INSERT INTO classifications
		 (session_id, input_text, row_index, predicted_category, confidence,
		  version, model, temperature, success, error, latency_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.InputText, rec.RowIndex, rec.Category,
		nullable(rec.Confidence), version, rec.Model, rec.Temperature,
		rec.Success, nullable(rec.Error), rec.LatencyMs,
	)
	if err != nil {
		return 0, fmt.Errorf("insert classification: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return version, nil
}

// Latest returns the highest-versioned classification for the given input,
// or nil when none exists.
func (r *LedgerRepo) Latest(ctx context.Context, sessionID, inputText string) (*Classification, error) {
	row := r.db.QueryRowContext(ctx,
		selectClassification+`
		 WHERE session_id = ? AND input_text = ?
		 ORDER BY version DESC LIMIT 1`,
		sessionID, inputText,
	)
	rec, err := scanClassification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// History returns every version for the given input, oldest first.
func (r *LedgerRepo) History(ctx context.Context, sessionID, inputText string) ([]Classification, error) {
	rows, err := r.db.QueryContext(ctx,
		selectClassification+`
		 WHERE session_id = ? AND input_text = ?
		 ORDER BY version ASC`,
		sessionID, inputText,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	return collectClassifications(rows)
}

// Current returns the max-version record per input for a session: the
// session's current classification state.
func (r *LedgerRepo) Current(ctx context.Context, sessionID string) ([]Classification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.session_id, c.input_text, c.row_index, c.predicted_category,
		        COALESCE(c.confidence, ''), c.version, c.model, c.temperature, c.success,
		        COALESCE(c.error, ''), COALESCE(c.latency_ms, 0), c.created_at
		 FROM classifications c
		 WHERE c.session_id = ?
		   AND c.version = (SELECT MAX(i.version) FROM classifications i
		                    WHERE i.session_id = c.session_id AND i.input_text = c.input_text)
		 ORDER BY c.row_index, c.input_text`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query current classifications: %w", err)
	}
	defer rows.Close()
	return collectClassifications(rows)
}

// Distribution returns the count of each predicted category over the
// session's current (max-version) successful classifications.
func (r *LedgerRepo) Distribution(ctx context.Context, sessionID string) (map[string]int, error) {
	recs, err := r.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	dist := make(map[string]int)
	for _, rec := range recs {
		if rec.Success {
			dist[rec.Category]++
		}
	}
	return dist, nil
}

// Stats summarizes a session's current classifications.
type Stats struct {
	Total        int
	Successful   int
	Failed       int
	SuccessRate  float64
	AvgLatencyMs float64
}

// Statistics computes success and latency aggregates over the session's
// current classifications.
func (r *LedgerRepo) Statistics(ctx context.Context, sessionID string) (Stats, error) {
	recs, err := r.Current(ctx, sessionID)
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	var latencySum int64
	for _, rec := range recs {
		st.Total++
		if rec.Success {
			st.Successful++
			latencySum += rec.LatencyMs
		} else {
			st.Failed++
		}
	}
	if st.Total > 0 {
		st.SuccessRate = float64(st.Successful) / float64(st.Total) * 100
	}
	if st.Successful > 0 {
		st.AvgLatencyMs = float64(latencySum) / float64(st.Successful)
	}
	return st, nil
}

// CategorySet is one immutable snapshot of a session's category
// definitions. Categories are stored as the JSON the category package
// produced; the store does not interpret them.
type CategorySet struct {
	ID          int64
	SessionID   string
	Version     int
	Categories  json.RawMessage
	ChangeKind  string
	Feedback    string
	Description string
	CreatedAt   time.Time
}

// Category set change kinds.
const (
	ChangeInitialDiscovery = "initial_discovery"
	ChangeUserEdit         = "user_edit"
	ChangeLLMRefinement    = "llm_refinement"
)

// AppendCategorySet records a new category set snapshot and returns the
// assigned version (previous max plus one, starting at 1).
func (r *LedgerRepo) AppendCategorySet(ctx context.Context, sessionID string, categories json.RawMessage, changeKind, feedback, description string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var maxVersion int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM category_history WHERE session_id = ?`,
		sessionID,
	).Scan(&maxVersion)
	if err != nil {
		return 0, fmt.Errorf("read max version: %w", err)
	}

	version := maxVersion + 1
	_, err = tx.ExecContext(ctx,
		`INSERT INTO category_history
		 (session_id, version, categories, change_kind, feedback, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, version, string(categories), changeKind,
		nullable(feedback), nullable(description),
	)
	if err != nil {
		return 0, fmt.Errorf("insert category set: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return version, nil
}

// CurrentCategorySet returns the highest-versioned snapshot for a session,
// or nil when the session has none.
func (r *LedgerRepo) CurrentCategorySet(ctx context.Context, sessionID string) (*CategorySet, error) {
	row := r.db.QueryRowContext(ctx,
		selectCategorySet+`
		 WHERE session_id = ? ORDER BY version DESC LIMIT 1`,
		sessionID,
	)
	set, err := scanCategorySet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return set, err
}

// CategoryHistory returns every category set snapshot for a session,
// oldest first.
func (r *LedgerRepo) CategoryHistory(ctx context.Context, sessionID string) ([]CategorySet, error) {
	rows, err := r.db.QueryContext(ctx,
		selectCategorySet+`
		 WHERE session_id = ? ORDER BY version ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query category history: %w", err)
	}
	defer rows.Close()

	var sets []CategorySet
	for rows.Next() {
		set, err := scanCategorySet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, *set)
	}
	return sets, rows.Err()
}

const selectClassification = `
	SELECT id, session_id, input_text, row_index, predicted_category,
	       COALESCE(confidence, ''), version, model, temperature, success,
	       COALESCE(error, ''), COALESCE(latency_ms, 0), created_at
	FROM classifications`

const selectCategorySet = `
	SELECT id, session_id, version, categories, change_kind,
	       COALESCE(feedback, ''), COALESCE(description, ''), created_at
	FROM category_history`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClassification(row rowScanner) (*Classification, error) {
	var rec Classification
	var rowIndex sql.NullInt64
	var createdAt string
	err := row.Scan(
		&rec.ID, &rec.SessionID, &rec.InputText, &rowIndex, &rec.Category,
		&rec.Confidence, &rec.Version, &rec.Model, &rec.Temperature,
		&rec.Success, &rec.Error, &rec.LatencyMs, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if rowIndex.Valid {
		idx := int(rowIndex.Int64)
		rec.RowIndex = &idx
	}
	rec.CreatedAt = parseTime(createdAt)
	return &rec, nil
}

func collectClassifications(rows *sql.Rows) ([]Classification, error) {
	var recs []Classification
	for rows.Next() {
		rec, err := scanClassification(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

func scanCategorySet(row rowScanner) (*CategorySet, error) {
	var set CategorySet
	var categories string
	var createdAt string
	err := row.Scan(
		&set.ID, &set.SessionID, &set.Version, &categories, &set.ChangeKind,
		&set.Feedback, &set.Description, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	set.Categories = json.RawMessage(categories)
	set.CreatedAt = parseTime(createdAt)
	return &set, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseTime(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
