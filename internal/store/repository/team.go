package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rebelscc/pavilion/internal/store"
)

// TeamRepository handles the singleton club record
type TeamRepository struct {
	db *store.Database
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *store.Database) *TeamRepository {
	return &TeamRepository{db: db}
}

// Get returns the club's team record, or nil if no sync has run yet
func (r *TeamRepository) Get(ctx context.Context) (*store.TeamInfo, error) {
	query := `
		SELECT team_id, club_id, name, logo_url, league_name, division,
			captain, vice_captain, player_count, updated_at
		FROM team
		ORDER BY updated_at DESC
		LIMIT 1
	`

	team := &store.TeamInfo{}
	err := r.db.DB().QueryRowContext(ctx, query).Scan(
		&team.TeamID, &team.ClubID, &team.Name, &team.LogoURL, &team.LeagueName,
		&team.Division, &team.Captain, &team.ViceCaptain, &team.PlayerCount,
		&team.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying team: %w", err)
	}

	return team, nil
}

// Upsert replaces the team record keyed by team_id
func (r *TeamRepository) Upsert(ctx context.Context, team *store.TeamInfo) error {
	query := `
		INSERT INTO team (team_id, club_id, name, logo_url, league_name, division,
			captain, vice_captain, player_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (team_id) DO UPDATE SET
			club_id = EXCLUDED.club_id,
			name = EXCLUDED.name,
			logo_url = EXCLUDED.logo_url,
			league_name = EXCLUDED.league_name,
			division = EXCLUDED.division,
			captain = EXCLUDED.captain,
			vice_captain = EXCLUDED.vice_captain,
			player_count = EXCLUDED.player_count,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		team.TeamID, team.ClubID, team.Name, team.LogoURL, team.LeagueName,
		team.Division, team.Captain, team.ViceCaptain, team.PlayerCount,
	)
	if err != nil {
		return fmt.Errorf("upserting team: %w", err)
	}

	return nil
}
