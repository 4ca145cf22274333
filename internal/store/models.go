package store

import (
	"database/sql"
	"time"
)

// Player represents a squad member scraped from CricClubs.
// PlayerID is the CricClubs identifier and is the merge key for every
// per-player table.
type Player struct {
	PlayerID      string         `json:"player_id" db:"player_id"`
	ClubID        string         `json:"club_id" db:"club_id"`
	Name          string         `json:"name" db:"name"`
	Role          sql.NullString `json:"role,omitempty" db:"role"`
	PhotoURL      sql.NullString `json:"photo_url,omitempty" db:"photo_url"`
	JerseyNumber  sql.NullInt32  `json:"jersey_number,omitempty" db:"jersey_number"`
	IsCaptain     bool           `json:"is_captain" db:"is_captain"`
	IsViceCaptain bool           `json:"is_vice_captain" db:"is_vice_captain"`
	ProfileURL    sql.NullString `json:"profile_url,omitempty" db:"profile_url"`
	LastSeenAt    time.Time      `json:"last_seen_at" db:"last_seen_at"`
	MissedSyncs   int            `json:"missed_syncs" db:"missed_syncs"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// BattingStats holds aggregate batting figures for one player.
// Rows are seeded empty at first sync; values are filled by a separate
// stats-ingestion process.
type BattingStats struct {
	PlayerID     string          `json:"player_id" db:"player_id"`
	Matches      sql.NullInt32   `json:"matches,omitempty" db:"matches"`
	Innings      sql.NullInt32   `json:"innings,omitempty" db:"innings"`
	Runs         sql.NullInt32   `json:"runs,omitempty" db:"runs"`
	Balls        sql.NullInt32   `json:"balls,omitempty" db:"balls"`
	Average      sql.NullFloat64 `json:"average,omitempty" db:"average"`
	StrikeRate   sql.NullFloat64 `json:"strike_rate,omitempty" db:"strike_rate"`
	Fours        sql.NullInt32   `json:"fours,omitempty" db:"fours"`
	Sixes        sql.NullInt32   `json:"sixes,omitempty" db:"sixes"`
	HighestScore sql.NullString  `json:"highest_score,omitempty" db:"highest_score"`
	NotOuts      sql.NullInt32   `json:"not_outs,omitempty" db:"not_outs"`
	Fifties      sql.NullInt32   `json:"fifties,omitempty" db:"fifties"`
	Hundreds     sql.NullInt32   `json:"hundreds,omitempty" db:"hundreds"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// BowlingStats holds aggregate bowling figures for one player.
type BowlingStats struct {
	PlayerID     string          `json:"player_id" db:"player_id"`
	Matches      sql.NullInt32   `json:"matches,omitempty" db:"matches"`
	Innings      sql.NullInt32   `json:"innings,omitempty" db:"innings"`
	Overs        sql.NullFloat64 `json:"overs,omitempty" db:"overs"`
	Maidens      sql.NullInt32   `json:"maidens,omitempty" db:"maidens"`
	RunsConceded sql.NullInt32   `json:"runs_conceded,omitempty" db:"runs_conceded"`
	Wickets      sql.NullInt32   `json:"wickets,omitempty" db:"wickets"`
	Economy      sql.NullFloat64 `json:"economy,omitempty" db:"economy"`
	Average      sql.NullFloat64 `json:"average,omitempty" db:"average"`
	StrikeRate   sql.NullFloat64 `json:"strike_rate,omitempty" db:"strike_rate"`
	BestFigures  sql.NullString  `json:"best_figures,omitempty" db:"best_figures"`
	FiveWickets  sql.NullInt32   `json:"five_wickets,omitempty" db:"five_wickets"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// FieldingStats holds aggregate fielding figures for one player.
type FieldingStats struct {
	PlayerID  string        `json:"player_id" db:"player_id"`
	Catches   sql.NullInt32 `json:"catches,omitempty" db:"catches"`
	Stumpings sql.NullInt32 `json:"stumpings,omitempty" db:"stumpings"`
	RunOuts   sql.NullInt32 `json:"run_outs,omitempty" db:"run_outs"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// TeamInfo is the singleton club record, replaced wholesale on each sync.
type TeamInfo struct {
	TeamID      string         `json:"team_id" db:"team_id"`
	ClubID      string         `json:"club_id" db:"club_id"`
	Name        string         `json:"name" db:"name"`
	LogoURL     sql.NullString `json:"logo_url,omitempty" db:"logo_url"`
	LeagueName  sql.NullString `json:"league_name,omitempty" db:"league_name"`
	Division    sql.NullString `json:"division,omitempty" db:"division"`
	Captain     sql.NullString `json:"captain,omitempty" db:"captain"`
	ViceCaptain sql.NullString `json:"vice_captain,omitempty" db:"vice_captain"`
	PlayerCount sql.NullInt32  `json:"player_count,omitempty" db:"player_count"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Fetch statuses recorded in cache_meta.
const (
	FetchStatusSuccess = "success"
	FetchStatusError   = "error"
	FetchStatusUnknown = "unknown"
)

// DefaultTTLHours is assumed when a cache_meta row has no TTL.
const DefaultTTLHours = 24

// CacheMeta is the sole authority for staleness decisions. One row per
// logical cache key ("players" for the roster sync).
type CacheMeta struct {
	CacheKey      string         `json:"cache_key" db:"cache_key"`
	LastFetchedAt sql.NullTime   `json:"last_fetched_at,omitempty" db:"last_fetched_at"`
	TTLHours      int            `json:"ttl_hours" db:"ttl_hours"`
	FetchStatus   string         `json:"fetch_status" db:"fetch_status"`
	ErrorMessage  sql.NullString `json:"error_message,omitempty" db:"error_message"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// Stale reports whether the cached data has outlived its TTL at the given
// instant. Exactly at the TTL boundary the data is still fresh.
func (m *CacheMeta) Stale(now time.Time) bool {
	if m == nil || !m.LastFetchedAt.Valid {
		return true
	}
	ttl := m.TTLHours
	if ttl <= 0 {
		ttl = DefaultTTLHours
	}
	return now.Sub(m.LastFetchedAt.Time) > time.Duration(ttl)*time.Hour
}
