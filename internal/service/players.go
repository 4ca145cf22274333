package service

import (
	"context"
	"log"

	"github.com/rebelscc/pavilion/internal/store"
	"github.com/rebelscc/pavilion/internal/store/repository"
)

// PlayerService is the read-only roster accessor used by the presentation
// layer. Storage errors are logged and turned into empty/default values;
// the cache-status signal tells callers when data may be outdated.
type PlayerService struct {
	players *repository.PlayerRepository
	stats   *repository.StatsRepository
}

// NewPlayerService creates a new player service
func NewPlayerService(repos *repository.Store) *PlayerService {
	return &PlayerService{
		players: repos.Players,
		stats:   repos.Stats,
	}
}

// PlayerStats groups a player's three stat categories; each may be nil
// when the out-of-band ingestion has not populated it.
type PlayerStats struct {
	Batting  *store.BattingStats  `json:"batting"`
	Bowling  *store.BowlingStats  `json:"bowling"`
	Fielding *store.FieldingStats `json:"fielding"`
}

// PlayerWithStats is a roster entry with batting and bowling attached,
// the shape the squad page renders.
type PlayerWithStats struct {
	*store.Player
	BattingStats *store.BattingStats `json:"battingStats"`
	BowlingStats *store.BowlingStats `json:"bowlingStats"`
}

// ListPlayers returns the roster ordered by name, optionally filtered by a
// case-insensitive name match. Never returns an error to the caller.
func (s *PlayerService) ListPlayers(ctx context.Context, query string) []*store.Player {
	var (
		players []*store.Player
		err     error
	)
	if query != "" {
		players, err = s.players.GetByName(ctx, query)
	} else {
		players, err = s.players.GetAll(ctx)
	}
	if err != nil {
		log.Printf("[service] listing players: %v", err)
		return []*store.Player{}
	}
	if players == nil {
		players = []*store.Player{}
	}
	return players
}

// GetPlayer returns a single player, or nil when absent
func (s *PlayerService) GetPlayer(ctx context.Context, playerID string) *store.Player {
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		log.Printf("[service] fetching player %s: %v", playerID, err)
		return nil
	}
	return player
}

// GetPlayerStats returns a player's batting, bowling and fielding stats;
// each category is nil when no row exists.
func (s *PlayerService) GetPlayerStats(ctx context.Context, playerID string) PlayerStats {
	stats := PlayerStats{}

	batting, err := s.stats.GetBatting(ctx, playerID)
	if err != nil {
		log.Printf("[service] fetching batting stats for %s: %v", playerID, err)
	} else {
		stats.Batting = batting
	}

	bowling, err := s.stats.GetBowling(ctx, playerID)
	if err != nil {
		log.Printf("[service] fetching bowling stats for %s: %v", playerID, err)
	} else {
		stats.Bowling = bowling
	}

	fielding, err := s.stats.GetFielding(ctx, playerID)
	if err != nil {
		log.Printf("[service] fetching fielding stats for %s: %v", playerID, err)
	} else {
		stats.Fielding = fielding
	}

	return stats
}

// PlayersWithStats returns the roster joined with batting and bowling
// stats, ordered by name.
func (s *PlayerService) PlayersWithStats(ctx context.Context) []PlayerWithStats {
	players, err := s.players.GetAll(ctx)
	if err != nil {
		log.Printf("[service] listing players: %v", err)
		return []PlayerWithStats{}
	}

	battingByID := make(map[string]*store.BattingStats)
	if batting, err := s.stats.GetAllBatting(ctx); err != nil {
		log.Printf("[service] listing batting stats: %v", err)
	} else {
		for _, b := range batting {
			battingByID[b.PlayerID] = b
		}
	}

	bowlingByID := make(map[string]*store.BowlingStats)
	if bowling, err := s.stats.GetAllBowling(ctx); err != nil {
		log.Printf("[service] listing bowling stats: %v", err)
	} else {
		for _, b := range bowling {
			bowlingByID[b.PlayerID] = b
		}
	}

	result := make([]PlayerWithStats, 0, len(players))
	for _, p := range players {
		result = append(result, PlayerWithStats{
			Player:       p,
			BattingStats: battingByID[p.PlayerID],
			BowlingStats: bowlingByID[p.PlayerID],
		})
	}

	return result
}
