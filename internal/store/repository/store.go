package repository

import (
	"context"
	"time"

	"github.com/rebelscc/pavilion/internal/store"
)

// Store bundles the repositories behind the single surface the sync
// orchestrator and services depend on.
type Store struct {
	Players *PlayerRepository
	Team    *TeamRepository
	Stats   *StatsRepository
	Meta    *CacheMetaRepository
}

// NewStore creates the repository bundle for a database
func NewStore(db *store.Database) *Store {
	return &Store{
		Players: NewPlayerRepository(db),
		Team:    NewTeamRepository(db),
		Stats:   NewStatsRepository(db),
		Meta:    NewCacheMetaRepository(db),
	}
}

// GetCacheMeta returns the cache meta row for a key, or nil if absent
func (s *Store) GetCacheMeta(ctx context.Context, key string) (*store.CacheMeta, error) {
	return s.Meta.Get(ctx, key)
}

// RecordFetch writes a fetch outcome for a key
func (s *Store) RecordFetch(ctx context.Context, key, status string, fetchedAt time.Time, ttlHours int, errMsg string) error {
	return s.Meta.Record(ctx, key, status, fetchedAt, ttlHours, errMsg)
}

// UpsertTeam replaces the club's team record
func (s *Store) UpsertTeam(ctx context.Context, team *store.TeamInfo) error {
	return s.Team.Upsert(ctx, team)
}

// UpsertPlayer inserts or updates a player by player_id
func (s *Store) UpsertPlayer(ctx context.Context, player *store.Player) error {
	return s.Players.Upsert(ctx, player)
}

// EnsureStatsRows scaffolds empty stat rows for a player
func (s *Store) EnsureStatsRows(ctx context.Context, playerID string) error {
	return s.Stats.EnsureRows(ctx, playerID)
}

// MarkMissing bumps the missed-sync counter of players absent from seenIDs
func (s *Store) MarkMissing(ctx context.Context, seenIDs []string) error {
	return s.Players.MarkMissing(ctx, seenIDs)
}

// PruneMissing removes players absent from threshold consecutive syncs
func (s *Store) PruneMissing(ctx context.Context, threshold int) (int, error) {
	return s.Players.PruneMissing(ctx, threshold)
}
