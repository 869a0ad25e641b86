package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session statuses, in workflow order.
const (
	StatusPendingUpload            = "pending_upload"
	StatusFileLoaded               = "file_loaded"
	StatusCategoriesDiscovered     = "categories_discovered"
	StatusClassificationInProgress = "classification_in_progress"
	StatusCompleted                = "completed"
)

// Session is one classification workflow: a source file, a chosen column,
// and everything derived from them.
type Session struct {
	ID             string
	Name           string
	Status         string
	SourceFilename string
	FileType       string // csv | excel
	SheetName      string
	ColumnName     string
	TotalRows      int
	Model          string
	Temperature    float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SessionRepo manages sessions.
type SessionRepo struct {
	db *sql.DB
}

// Create inserts a new session and returns it with a fresh UUID.
func (r *SessionRepo) Create(ctx context.Context, name string) (*Session, error) {
	s := &Session{
		ID:     uuid.NewString(),
		Name:   name,
		Status: StatusPendingUpload,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, name, status) VALUES (?, ?, ?)`,
		s.ID, s.Name, s.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

// Get returns the session with the given ID, or nil when it does not exist.
func (r *SessionRepo) Get(ctx context.Context, id string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, selectSession+` WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// List returns all sessions, newest first.
func (r *SessionRepo) List(ctx context.Context) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, selectSession+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// SessionUpdate names the mutable session fields. Nil fields are left
// untouched.
type SessionUpdate struct {
	Status         *string
	SourceFilename *string
	FileType       *string
	SheetName      *string
	ColumnName     *string
	TotalRows      *int
	Model          *string
	Temperature    *float64
}

// Update applies the non-nil fields of upd to the session.
func (r *SessionRepo) Update(ctx context.Context, id string, upd SessionUpdate) error {
	set := "updated_at = datetime('now')"
	args := []any{}

	add := func(col string, v any) {
		set += ", " + col + " = ?"
		args = append(args, v)
	}

	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.SourceFilename != nil {
		add("source_filename", *upd.SourceFilename)
	}
	if upd.FileType != nil {
		add("file_type", *upd.FileType)
	}
	if upd.SheetName != nil {
		add("sheet_name", *upd.SheetName)
	}
	if upd.ColumnName != nil {
		add("column_name", *upd.ColumnName)
	}
	if upd.TotalRows != nil {
		add("total_rows", *upd.TotalRows)
	}
	if upd.Model != nil {
		add("model", *upd.Model)
	}
	if upd.Temperature != nil {
		add("temperature", *upd.Temperature)
	}

	args = append(args, id)
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Delete removes a session. Classifications, category history, and
// session-local few-shot examples cascade.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

const selectSession = `
	SELECT id, name, status, source_filename, file_type, sheet_name,
	       column_name, total_rows, model, temperature, created_at, updated_at
	FROM sessions`

func scanSession(row rowScanner) (*Session, error) {
	var s Session
	var createdAt, updatedAt string
	err := row.Scan(
		&s.ID, &s.Name, &s.Status, &s.SourceFilename, &s.FileType,
		&s.SheetName, &s.ColumnName, &s.TotalRows, &s.Model, &s.Temperature,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}
