package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rebelscc/pavilion/internal/store"
)

// StatsRepository handles the per-player batting, bowling and fielding
// stat tables. The sync only scaffolds empty rows; values are written by
// the stats-ingestion process through the Update methods.
type StatsRepository struct {
	db *store.Database
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *store.Database) *StatsRepository {
	return &StatsRepository{db: db}
}

// EnsureRows creates empty batting, bowling and fielding rows for a player
// if they do not exist yet. Existing rows are left untouched, so populated
// stats survive repeated syncs.
func (r *StatsRepository) EnsureRows(ctx context.Context, playerID string) error {
	for _, table := range []string{"batting_stats", "bowling_stats", "fielding_stats"} {
		query := fmt.Sprintf(`
			INSERT INTO %s (player_id) VALUES ($1)
			ON CONFLICT (player_id) DO NOTHING
		`, table)
		if _, err := r.db.DB().ExecContext(ctx, query, playerID); err != nil {
			return fmt.Errorf("seeding %s for player %s: %w", table, playerID, err)
		}
	}

	return nil
}

// GetBatting returns a player's batting stats, or nil if absent
func (r *StatsRepository) GetBatting(ctx context.Context, playerID string) (*store.BattingStats, error) {
	query := `
		SELECT player_id, matches, innings, runs, balls, average, strike_rate,
			fours, sixes, highest_score, not_outs, fifties, hundreds, updated_at
		FROM batting_stats
		WHERE player_id = $1
	`

	stats := &store.BattingStats{}
	err := r.db.DB().QueryRowContext(ctx, query, playerID).Scan(
		&stats.PlayerID, &stats.Matches, &stats.Innings, &stats.Runs, &stats.Balls,
		&stats.Average, &stats.StrikeRate, &stats.Fours, &stats.Sixes,
		&stats.HighestScore, &stats.NotOuts, &stats.Fifties, &stats.Hundreds,
		&stats.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying batting stats: %w", err)
	}

	return stats, nil
}

// GetAllBatting returns batting stats for every player
func (r *StatsRepository) GetAllBatting(ctx context.Context) ([]*store.BattingStats, error) {
	query := `
		SELECT player_id, matches, innings, runs, balls, average, strike_rate,
			fours, sixes, highest_score, not_outs, fifties, hundreds, updated_at
		FROM batting_stats
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying batting stats: %w", err)
	}
	defer rows.Close()

	var all []*store.BattingStats
	for rows.Next() {
		stats := &store.BattingStats{}
		err := rows.Scan(
			&stats.PlayerID, &stats.Matches, &stats.Innings, &stats.Runs, &stats.Balls,
			&stats.Average, &stats.StrikeRate, &stats.Fours, &stats.Sixes,
			&stats.HighestScore, &stats.NotOuts, &stats.Fifties, &stats.Hundreds,
			&stats.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning batting stats: %w", err)
		}
		all = append(all, stats)
	}

	return all, rows.Err()
}

// GetBowling returns a player's bowling stats, or nil if absent
func (r *StatsRepository) GetBowling(ctx context.Context, playerID string) (*store.BowlingStats, error) {
	query := `
		SELECT player_id, matches, innings, overs, maidens, runs_conceded, wickets,
			economy, average, strike_rate, best_figures, five_wickets, updated_at
		FROM bowling_stats
		WHERE player_id = $1
	`

	stats := &store.BowlingStats{}
	err := r.db.DB().QueryRowContext(ctx, query, playerID).Scan(
		&stats.PlayerID, &stats.Matches, &stats.Innings, &stats.Overs, &stats.Maidens,
		&stats.RunsConceded, &stats.Wickets, &stats.Economy, &stats.Average,
		&stats.StrikeRate, &stats.BestFigures, &stats.FiveWickets, &stats.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying bowling stats: %w", err)
	}

	return stats, nil
}

// GetAllBowling returns bowling stats for every player
func (r *StatsRepository) GetAllBowling(ctx context.Context) ([]*store.BowlingStats, error) {
	query := `
		SELECT player_id, matches, innings, overs, maidens, runs_conceded, wickets,
			economy, average, strike_rate, best_figures, five_wickets, updated_at
		FROM bowling_stats
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying bowling stats: %w", err)
	}
	defer rows.Close()

	var all []*store.BowlingStats
	for rows.Next() {
		stats := &store.BowlingStats{}
		err := rows.Scan(
			&stats.PlayerID, &stats.Matches, &stats.Innings, &stats.Overs, &stats.Maidens,
			&stats.RunsConceded, &stats.Wickets, &stats.Economy, &stats.Average,
			&stats.StrikeRate, &stats.BestFigures, &stats.FiveWickets, &stats.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning bowling stats: %w", err)
		}
		all = append(all, stats)
	}

	return all, rows.Err()
}

// GetFielding returns a player's fielding stats, or nil if absent
func (r *StatsRepository) GetFielding(ctx context.Context, playerID string) (*store.FieldingStats, error) {
	query := `
		SELECT player_id, catches, stumpings, run_outs, updated_at
		FROM fielding_stats
		WHERE player_id = $1
	`

	stats := &store.FieldingStats{}
	err := r.db.DB().QueryRowContext(ctx, query, playerID).Scan(
		&stats.PlayerID, &stats.Catches, &stats.Stumpings, &stats.RunOuts, &stats.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying fielding stats: %w", err)
	}

	return stats, nil
}

// UpdateBatting replaces a player's batting figures
func (r *StatsRepository) UpdateBatting(ctx context.Context, stats *store.BattingStats) error {
	query := `
		INSERT INTO batting_stats (player_id, matches, innings, runs, balls, average,
			strike_rate, fours, sixes, highest_score, not_outs, fifties, hundreds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (player_id) DO UPDATE SET
			matches = EXCLUDED.matches,
			innings = EXCLUDED.innings,
			runs = EXCLUDED.runs,
			balls = EXCLUDED.balls,
			average = EXCLUDED.average,
			strike_rate = EXCLUDED.strike_rate,
			fours = EXCLUDED.fours,
			sixes = EXCLUDED.sixes,
			highest_score = EXCLUDED.highest_score,
			not_outs = EXCLUDED.not_outs,
			fifties = EXCLUDED.fifties,
			hundreds = EXCLUDED.hundreds,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		stats.PlayerID, stats.Matches, stats.Innings, stats.Runs, stats.Balls,
		stats.Average, stats.StrikeRate, stats.Fours, stats.Sixes,
		stats.HighestScore, stats.NotOuts, stats.Fifties, stats.Hundreds,
	)
	if err != nil {
		return fmt.Errorf("updating batting stats: %w", err)
	}

	return nil
}

// UpdateBowling replaces a player's bowling figures
func (r *StatsRepository) UpdateBowling(ctx context.Context, stats *store.BowlingStats) error {
	query := `
		INSERT INTO bowling_stats (player_id, matches, innings, overs, maidens,
			runs_conceded, wickets, economy, average, strike_rate, best_figures, five_wickets)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (player_id) DO UPDATE SET
			matches = EXCLUDED.matches,
			innings = EXCLUDED.innings,
			overs = EXCLUDED.overs,
			maidens = EXCLUDED.maidens,
			runs_conceded = EXCLUDED.runs_conceded,
			wickets = EXCLUDED.wickets,
			economy = EXCLUDED.economy,
			average = EXCLUDED.average,
			strike_rate = EXCLUDED.strike_rate,
			best_figures = EXCLUDED.best_figures,
			five_wickets = EXCLUDED.five_wickets,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		stats.PlayerID, stats.Matches, stats.Innings, stats.Overs, stats.Maidens,
		stats.RunsConceded, stats.Wickets, stats.Economy, stats.Average,
		stats.StrikeRate, stats.BestFigures, stats.FiveWickets,
	)
	if err != nil {
		return fmt.Errorf("updating bowling stats: %w", err)
	}

	return nil
}

// UpdateFielding replaces a player's fielding figures
func (r *StatsRepository) UpdateFielding(ctx context.Context, stats *store.FieldingStats) error {
	query := `
		INSERT INTO fielding_stats (player_id, catches, stumpings, run_outs)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_id) DO UPDATE SET
			catches = EXCLUDED.catches,
			stumpings = EXCLUDED.stumpings,
			run_outs = EXCLUDED.run_outs,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		stats.PlayerID, stats.Catches, stats.Stumpings, stats.RunOuts,
	)
	if err != nil {
		return fmt.Errorf("updating fielding stats: %w", err)
	}

	return nil
}
