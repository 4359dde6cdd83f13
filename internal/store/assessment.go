package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ayusman/navarasa/internal/assess"
)

// Assessment is one entry of a session's status transition log.
type Assessment struct {
	ID        int64
	SessionID string
	Status    assess.Status
	Advisory  string
	Observed  int
	CreatedAt time.Time
}

// AssessmentRepository appends and lists status transitions.
type AssessmentRepository struct {
	db *sql.DB
}

// Assessments returns the assessment repository for this store.
func (s *Store) Assessments() *AssessmentRepository {
	return &AssessmentRepository{db: s.db}
}

// Append records a transition. The session row must exist.
func (r *AssessmentRepository) Append(ctx context.Context, a *Assessment) error {
	return appendAssessment(ctx, r.db, a)
}

func appendAssessment(ctx context.Context, db execer, a *Assessment) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.CreatedAt = a.CreatedAt.UTC()

	result, err := db.ExecContext(ctx,
		`INSERT INTO assessments (session_id, status, advisory, observed, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		a.SessionID, a.Status.Code(), a.Advisory, a.Observed, a.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// ListBySession retrieves the transitions of a session, oldest first.
func (r *AssessmentRepository) ListBySession(ctx context.Context, sessionID string) ([]*Assessment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, status, advisory, observed, created_at
		 FROM assessments WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Assessment
	for rows.Next() {
		a := &Assessment{}
		var status string
		if err := rows.Scan(&a.ID, &a.SessionID, &status, &a.Advisory, &a.Observed, &a.CreatedAt); err != nil {
			return nil, err
		}
		if a.Status, err = assess.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("assessment %d: %w", a.ID, err)
		}
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
