package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/mapdraw/internal/core/domain"
)

// DrawingRepo implements ports.DrawingRepository with pgx.
type DrawingRepo struct {
	db *DB
}

// NewDrawingRepo creates a new DrawingRepo.
func NewDrawingRepo(db *DB) *DrawingRepo {
	return &DrawingRepo{db: db}
}

// SaveDrawing inserts or replaces the current drawing for key. A snapshot
// older than the stored one (lower seq) is ignored and reported as not
// applied, so archive workflows finishing out of order cannot roll the
// drawing back.
func (r *DrawingRepo) SaveDrawing(ctx context.Context, key, snapshot string, seq int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		INSERT INTO drawings (key, geojson, seq, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE
		SET geojson = EXCLUDED.geojson, seq = EXCLUDED.seq, updated_at = EXCLUDED.updated_at
		WHERE drawings.seq < EXCLUDED.seq
	`, key, snapshot, seq)
	if err != nil {
		return false, fmt.Errorf("save drawing %s: %w", key, err)
	}
	return tag.RowsAffected() == 1, nil
}

// LoadDrawing returns the current drawing for key, or "" if there is none.
func (r *DrawingRepo) LoadDrawing(ctx context.Context, key string) (string, error) {
	var snapshot string
	err := r.db.Pool.QueryRow(ctx, `SELECT geojson FROM drawings WHERE key = $1`, key).Scan(&snapshot)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load drawing %s: %w", key, err)
	}
	return snapshot, nil
}

// AppendRevision archives snapshot as the next revision of key and returns
// its number. Numbers start at 1 and increase by one per key in archive
// order; seq records when the snapshot was taken.
func (r *DrawingRepo) AppendRevision(ctx context.Context, key, snapshot string, seq int64) (int64, error) {
	var number int64
	err := pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		// Serialise writers of the same key.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return err
		}
		return tx.QueryRow(ctx, `
			INSERT INTO drawing_revisions (key, number, seq, geojson)
			SELECT $1, COALESCE(MAX(number), 0) + 1, $3, $2
			FROM drawing_revisions WHERE key = $1
			RETURNING number
		`, key, snapshot, seq).Scan(&number)
	})
	if err != nil {
		return 0, fmt.Errorf("append revision %s: %w", key, err)
	}
	return number, nil
}

// LatestRevision returns the most recently taken archived revision of key,
// or nil.
func (r *DrawingRepo) LatestRevision(ctx context.Context, key string) (*domain.Revision, error) {
	rev := domain.Revision{Key: key}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT number, seq, geojson, created_at
		FROM drawing_revisions
		WHERE key = $1
		ORDER BY seq DESC, number DESC
		LIMIT 1
	`, key).Scan(&rev.Number, &rev.Seq, &rev.GeoJSON, &rev.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest revision %s: %w", key, err)
	}
	return &rev, nil
}

// Store returns a ports.SnapshotStore bound to key.
func (r *DrawingRepo) Store(key string) *KeyedStore {
	return &KeyedStore{repo: r, key: key}
}

// KeyedStore adapts a DrawingRepo to ports.SnapshotStore for one key.
type KeyedStore struct {
	repo *DrawingRepo
	key  string
}

func (s *KeyedStore) Save(ctx context.Context, snapshot string) error {
	_, err := s.repo.SaveDrawing(ctx, s.key, snapshot, domain.NextSeq())
	return err
}

func (s *KeyedStore) Load(ctx context.Context) (string, error) {
	return s.repo.LoadDrawing(ctx, s.key)
}
