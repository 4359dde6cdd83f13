package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/navarasa/internal/assess"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Namespace and keys of the persisted mental-health record.
const (
	MentalHealthNamespace = "mental_health"
	KeyConclusion         = "conclusion"
	KeyRecommendation     = "recommendation"
)

// Defaults shown by readers when nothing has been stored yet.
const (
	DefaultConclusion     = "Normal"
	DefaultRecommendation = "No recommendation"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PreferenceRepository reads and writes namespaced key/value pairs.
type PreferenceRepository struct {
	db *sql.DB
}

// Preferences returns the preference repository for this store.
func (s *Store) Preferences() *PreferenceRepository {
	return &PreferenceRepository{db: s.db}
}

// Set inserts or replaces a value.
func (r *PreferenceRepository) Set(ctx context.Context, namespace, key, value string) error {
	return setPreference(ctx, r.db, namespace, key, value, time.Now().UTC())
}

func setPreference(ctx context.Context, db execer, namespace, key, value string, at time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO preferences (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		namespace, key, value, at.UTC(),
	)
	return err
}

// Get returns a value, or ErrNotFound.
func (r *PreferenceRepository) Get(ctx context.Context, namespace, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// List returns every key/value pair in namespace.
func (r *PreferenceRepository) List(ctx context.Context, namespace string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM preferences WHERE namespace = ? ORDER BY key`,
		namespace,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// StatusRepository stores the latest conclusion and recommendation.
type StatusRepository struct {
	db *sql.DB
}

// Status returns the mental-health record repository for this store.
func (s *Store) Status() *StatusRepository {
	return &StatusRepository{db: s.db}
}

// Put writes both fields of rec in one transaction.
func (r *StatusRepository) Put(ctx context.Context, rec assess.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := putRecord(ctx, tx, rec, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func putRecord(ctx context.Context, db execer, rec assess.Record, at time.Time) error {
	if err := setPreference(ctx, db, MentalHealthNamespace, KeyConclusion, rec.Conclusion, at); err != nil {
		return fmt.Errorf("write conclusion: %w", err)
	}
	if err := setPreference(ctx, db, MentalHealthNamespace, KeyRecommendation, rec.Recommendation, at); err != nil {
		return fmt.Errorf("write recommendation: %w", err)
	}
	return nil
}

// Get returns the stored record, or ErrNotFound when nothing was written.
func (r *StatusRepository) Get(ctx context.Context) (assess.Record, error) {
	values, err := (&PreferenceRepository{db: r.db}).List(ctx, MentalHealthNamespace)
	if err != nil {
		return assess.Record{}, err
	}
	conclusion, ok := values[KeyConclusion]
	if !ok {
		return assess.Record{}, ErrNotFound
	}
	return assess.Record{
		Conclusion:     conclusion,
		Recommendation: values[KeyRecommendation],
	}, nil
}

// GetOrDefault returns the stored record, falling back to the defaults.
func (r *StatusRepository) GetOrDefault(ctx context.Context) (assess.Record, error) {
	rec, err := r.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		return assess.Record{Conclusion: DefaultConclusion, Recommendation: DefaultRecommendation}, nil
	}
	return rec, err
}
