package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rebelscc/pavilion/internal/store"
)

// CacheMetaRepository tracks fetch outcomes per logical cache key. The
// cache_meta row is the single authority for staleness decisions.
type CacheMetaRepository struct {
	db *store.Database
}

// NewCacheMetaRepository creates a new cache meta repository
func NewCacheMetaRepository(db *store.Database) *CacheMetaRepository {
	return &CacheMetaRepository{db: db}
}

// Get returns the cache meta row for a key, or nil if it was never written
func (r *CacheMetaRepository) Get(ctx context.Context, key string) (*store.CacheMeta, error) {
	query := `
		SELECT cache_key, last_fetched_at, ttl_hours, fetch_status, error_message, updated_at
		FROM cache_meta
		WHERE cache_key = $1
	`

	meta := &store.CacheMeta{}
	err := r.db.DB().QueryRowContext(ctx, query, key).Scan(
		&meta.CacheKey, &meta.LastFetchedAt, &meta.TTLHours, &meta.FetchStatus,
		&meta.ErrorMessage, &meta.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying cache meta: %w", err)
	}

	return meta, nil
}

// Record writes a fetch outcome for a key, stamping last_fetched_at with
// fetchedAt. The update is guarded on last_fetched_at so a slow sync that
// finishes late cannot clobber a newer outcome written by a concurrent one.
func (r *CacheMetaRepository) Record(ctx context.Context, key, status string, fetchedAt time.Time, ttlHours int, errMsg string) error {
	if ttlHours <= 0 {
		ttlHours = store.DefaultTTLHours
	}

	errVal := sql.NullString{}
	if errMsg != "" {
		errVal = sql.NullString{String: errMsg, Valid: true}
	}

	query := `
		INSERT INTO cache_meta (cache_key, last_fetched_at, ttl_hours, fetch_status, error_message)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cache_key) DO UPDATE SET
			last_fetched_at = EXCLUDED.last_fetched_at,
			ttl_hours = EXCLUDED.ttl_hours,
			fetch_status = EXCLUDED.fetch_status,
			error_message = EXCLUDED.error_message,
			updated_at = NOW()
		WHERE cache_meta.last_fetched_at IS NULL
		   OR cache_meta.last_fetched_at <= EXCLUDED.last_fetched_at
	`

	_, err := r.db.DB().ExecContext(ctx, query, key, fetchedAt, ttlHours, status, errVal)
	if err != nil {
		return fmt.Errorf("recording cache meta: %w", err)
	}

	return nil
}
