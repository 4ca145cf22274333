package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/rebelscc/pavilion/internal/store"
)

// PlayerRepository handles player data access
type PlayerRepository struct {
	db *store.Database
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *store.Database) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = `player_id, club_id, name, role, photo_url, jersey_number,
	is_captain, is_vice_captain, profile_url, last_seen_at, missed_syncs,
	created_at, updated_at`

// GetByID finds a player by its CricClubs identifier
func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (*store.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE player_id = $1`

	player := &store.Player{}
	err := r.db.DB().QueryRowContext(ctx, query, playerID).Scan(
		&player.PlayerID, &player.ClubID, &player.Name, &player.Role, &player.PhotoURL,
		&player.JerseyNumber, &player.IsCaptain, &player.IsViceCaptain, &player.ProfileURL,
		&player.LastSeenAt, &player.MissedSyncs, &player.CreatedAt, &player.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying player: %w", err)
	}

	return player, nil
}

// GetAll returns all players ordered by name
func (r *PlayerRepository) GetAll(ctx context.Context) ([]*store.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players ORDER BY name`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying players: %w", err)
	}
	defer rows.Close()

	return r.scanPlayers(rows)
}

// GetByName searches for players by name (case-insensitive partial match)
func (r *PlayerRepository) GetByName(ctx context.Context, name string) ([]*store.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE name ILIKE $1 ORDER BY name`

	rows, err := r.db.DB().QueryContext(ctx, query, "%"+name+"%")
	if err != nil {
		return nil, fmt.Errorf("querying players: %w", err)
	}
	defer rows.Close()

	return r.scanPlayers(rows)
}

// Upsert inserts or updates a player keyed by player_id. The row's
// missed_syncs counter resets because the player was seen in this scrape.
func (r *PlayerRepository) Upsert(ctx context.Context, player *store.Player) error {
	query := `
		INSERT INTO players (player_id, club_id, name, role, photo_url, jersey_number,
			is_captain, is_vice_captain, profile_url, last_seen_at, missed_syncs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), 0)
		ON CONFLICT (player_id) DO UPDATE SET
			club_id = EXCLUDED.club_id,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			photo_url = EXCLUDED.photo_url,
			jersey_number = EXCLUDED.jersey_number,
			is_captain = EXCLUDED.is_captain,
			is_vice_captain = EXCLUDED.is_vice_captain,
			profile_url = EXCLUDED.profile_url,
			last_seen_at = NOW(),
			missed_syncs = 0,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		player.PlayerID, player.ClubID, player.Name, player.Role, player.PhotoURL,
		player.JerseyNumber, player.IsCaptain, player.IsViceCaptain, player.ProfileURL,
	)
	if err != nil {
		return fmt.Errorf("upserting player: %w", err)
	}

	return nil
}

// MarkMissing increments missed_syncs for every player not in seenIDs.
// Called after a successful sync so the prune policy can count consecutive
// absences.
func (r *PlayerRepository) MarkMissing(ctx context.Context, seenIDs []string) error {
	query := `
		UPDATE players
		SET missed_syncs = missed_syncs + 1
		WHERE NOT (player_id = ANY($1))
	`

	_, err := r.db.DB().ExecContext(ctx, query, pq.Array(seenIDs))
	if err != nil {
		return fmt.Errorf("marking missing players: %w", err)
	}

	return nil
}

// PruneMissing deletes players (and their stat rows) absent from at least
// threshold consecutive syncs. Returns the number of players removed.
func (r *PlayerRepository) PruneMissing(ctx context.Context, threshold int) (int, error) {
	if threshold <= 0 {
		return 0, nil
	}

	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning prune transaction: %w", err)
	}
	defer tx.Rollback()

	// Stat rows reference players, so they go first.
	for _, table := range []string{"batting_stats", "bowling_stats", "fielding_stats"} {
		query := fmt.Sprintf(`
			DELETE FROM %s
			WHERE player_id IN (SELECT player_id FROM players WHERE missed_syncs >= $1)
		`, table)
		if _, err := tx.ExecContext(ctx, query, threshold); err != nil {
			return 0, fmt.Errorf("pruning %s: %w", table, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM players WHERE missed_syncs >= $1`, threshold)
	if err != nil {
		return 0, fmt.Errorf("pruning players: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing prune: %w", err)
	}

	count, _ := res.RowsAffected()
	return int(count), nil
}

// scanPlayers is a helper to scan multiple player rows
func (r *PlayerRepository) scanPlayers(rows *sql.Rows) ([]*store.Player, error) {
	var players []*store.Player
	for rows.Next() {
		player := &store.Player{}
		err := rows.Scan(
			&player.PlayerID, &player.ClubID, &player.Name, &player.Role, &player.PhotoURL,
			&player.JerseyNumber, &player.IsCaptain, &player.IsViceCaptain, &player.ProfileURL,
			&player.LastSeenAt, &player.MissedSyncs, &player.CreatedAt, &player.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, player)
	}

	return players, rows.Err()
}
