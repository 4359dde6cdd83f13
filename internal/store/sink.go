package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ayusman/navarasa/internal/assess"
)

// Sink persists status transitions published by sessions: the latest
// record is overwritten and the transition is appended to the log.
type Sink struct {
	store *Store
}

// NewSink returns a sink writing to s.
func NewSink(s *Store) *Sink {
	return &Sink{store: s}
}

// Publish writes a in a single transaction.
func (k *Sink) Publish(ctx context.Context, sessionID string, a assess.Assessment) error {
	tx, err := k.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("publish assessment: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if err := putRecord(ctx, tx, a.Record(), now); err != nil {
		return fmt.Errorf("publish assessment: %w", err)
	}
	if err := ensureSession(ctx, tx, sessionID, now); err != nil {
		return fmt.Errorf("publish assessment: %w", err)
	}
	entry := &Assessment{
		SessionID: sessionID,
		Status:    a.Status,
		Advisory:  a.Advisory,
		Observed:  a.Observed,
		CreatedAt: now,
	}
	if err := appendAssessment(ctx, tx, entry); err != nil {
		return fmt.Errorf("publish assessment: %w", err)
	}

	return tx.Commit()
}
