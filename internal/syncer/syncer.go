package syncer

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/rebelscc/pavilion/internal/cache"
	"github.com/rebelscc/pavilion/internal/ingest/cricclubs"
	"github.com/rebelscc/pavilion/internal/store"
)

// CacheKeyPlayers is the logical cache key for the roster sync.
const CacheKeyPlayers = "players"

// Store is the persistence surface the orchestrator needs
type Store interface {
	GetCacheMeta(ctx context.Context, key string) (*store.CacheMeta, error)
	RecordFetch(ctx context.Context, key, status string, fetchedAt time.Time, ttlHours int, errMsg string) error
	UpsertTeam(ctx context.Context, team *store.TeamInfo) error
	UpsertPlayer(ctx context.Context, player *store.Player) error
	EnsureStatsRows(ctx context.Context, playerID string) error
	MarkMissing(ctx context.Context, seenIDs []string) error
	PruneMissing(ctx context.Context, threshold int) (int, error)
}

// Fetcher retrieves the raw team page HTML
type Fetcher interface {
	FetchTeamPage(ctx context.Context) (string, error)
}

// Result is the outcome of one sync invocation
type Result struct {
	Success      bool       `json:"success"`
	RateLimited  bool       `json:"-"`
	Message      string     `json:"message"`
	Error        string     `json:"error,omitempty"`
	LastUpdated  *time.Time `json:"lastUpdated,omitempty"`
	PlayersCount int        `json:"playersCount,omitempty"`
}

// Config holds orchestrator configuration
type Config struct {
	CacheKey         string
	TTLHours         int
	PruneAfterMisses int // 0 disables pruning
}

// DefaultConfig returns default orchestrator configuration
func DefaultConfig() *Config {
	return &Config{
		CacheKey:         CacheKeyPlayers,
		TTLHours:         store.DefaultTTLHours,
		PruneAfterMisses: 0,
	}
}

// Orchestrator runs the fetch + extract + persist cycle and records every
// outcome in cache meta. Refresh is lazy: callers invoke Sync when the
// Read API reports stale data, or force it explicitly.
type Orchestrator struct {
	store   Store
	fetcher Fetcher
	limiter cache.Limiter
	source  cricclubs.Config
	config  *Config
	flight  singleFlight
	now     func() time.Time
}

// New creates a sync orchestrator
func New(st Store, fetcher Fetcher, limiter cache.Limiter, source cricclubs.Config, config *Config) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Orchestrator{
		store:   st,
		fetcher: fetcher,
		limiter: limiter,
		source:  source,
		config:  config,
		now:     time.Now,
	}
}

// Sync refreshes the roster cache. Forced invocations are rate limited per
// requester key; non-forced ones short-circuit while the cache is fresh.
// Concurrent invocations for the same cache key share one execution.
func (o *Orchestrator) Sync(ctx context.Context, force bool, requester string) Result {
	if force {
		allowed, err := o.limiter.Allow(ctx, requester)
		if err != nil {
			// Fail open: a broken rate-limit store should not block refreshes.
			log.Printf("[syncer] rate limit check failed, allowing request: %v", err)
		} else if !allowed {
			log.Printf("[syncer] rate limited: %s", requester)
			return Result{
				RateLimited: true,
				Message:     "Force refresh is rate limited to prevent abuse.",
				Error:       "Rate limit exceeded. Please try again later.",
			}
		}
	}

	res, shared := o.flight.Do(o.config.CacheKey, func() Result {
		return o.run(ctx, force)
	})
	if shared {
		log.Printf("[syncer] joined in-flight sync for key %q", o.config.CacheKey)
	}
	return res
}

// run executes one sync cycle. Ordering matters: team upsert, then player
// upserts, then the cache-meta success write, so a reader never sees a
// success timestamp newer than the data it describes.
func (o *Orchestrator) run(ctx context.Context, force bool) Result {
	now := o.now()

	meta, err := o.store.GetCacheMeta(ctx, o.config.CacheKey)
	if err != nil {
		log.Printf("[syncer] reading cache meta: %v", err)
		meta = nil
	}

	// Freshness follows the read API's staleness rule: exactly at the TTL
	// boundary the cache still counts as fresh and short-circuits.
	if !force && meta != nil && !meta.Stale(now) {
		last := meta.LastFetchedAt.Time
		return Result{Success: true, Message: "Data is cached and fresh", LastUpdated: &last}
	}

	html, err := o.fetcher.FetchTeamPage(ctx)
	if err != nil {
		return o.fail(ctx, fmt.Errorf("fetching team page: %w", err))
	}
	log.Printf("[syncer] fetched team page: %d bytes", len(html))

	players, err := cricclubs.ExtractPlayers(html, o.source)
	if err != nil {
		return o.fail(ctx, fmt.Errorf("extracting players: %w", err))
	}

	if len(players) == 0 {
		// The fetch itself succeeded; an empty scrape must not erase a
		// previously good roster, so persist nothing and reset the TTL.
		log.Printf("[syncer] no players found on page, keeping cached roster")
		fetchedAt := o.now()
		o.record(ctx, store.FetchStatusSuccess, fetchedAt, "")
		return Result{Success: true, Message: "No players found on team page; kept cached roster", LastUpdated: &fetchedAt}
	}

	team := cricclubs.ExtractTeamInfo(html, o.source)
	persistErrors := 0

	if err := o.store.UpsertTeam(ctx, teamToStore(team)); err != nil {
		log.Printf("[syncer] upserting team: %v", err)
		persistErrors++
	}

	extracted := make([]string, 0, len(players))
	persisted := 0
	for _, p := range players {
		extracted = append(extracted, p.PlayerID)
		if err := o.store.UpsertPlayer(ctx, playerToStore(p, o.source.ClubID)); err != nil {
			// One bad record must not block the rest of the roster.
			log.Printf("[syncer] upserting player %s (%s): %v", p.Name, p.PlayerID, err)
			persistErrors++
			continue
		}
		if err := o.store.EnsureStatsRows(ctx, p.PlayerID); err != nil {
			log.Printf("[syncer] seeding stats for player %s: %v", p.PlayerID, err)
			persistErrors++
		}
		persisted++
	}

	if persisted == 0 {
		return o.fail(ctx, fmt.Errorf("no players persisted (%d errors)", persistErrors))
	}

	// Absence streaks count page appearances, not successful writes: a
	// player the scrape still sees must not drift toward the prune
	// threshold because of a transient write failure.
	if err := o.store.MarkMissing(ctx, extracted); err != nil {
		log.Printf("[syncer] marking missing players: %v", err)
	}
	if o.config.PruneAfterMisses > 0 {
		pruned, err := o.store.PruneMissing(ctx, o.config.PruneAfterMisses)
		if err != nil {
			log.Printf("[syncer] pruning players: %v", err)
		} else if pruned > 0 {
			log.Printf("[syncer] pruned %d players absent from %d+ syncs", pruned, o.config.PruneAfterMisses)
		}
	}

	fetchedAt := o.now()
	o.record(ctx, store.FetchStatusSuccess, fetchedAt, "")

	if persistErrors > 0 {
		log.Printf("[syncer] ✓ synced %d players (%d records skipped)", persisted, persistErrors)
	} else {
		log.Printf("[syncer] ✓ synced %d players", persisted)
	}

	return Result{
		Success:      true,
		Message:      fmt.Sprintf("Synced %d players", persisted),
		LastUpdated:  &fetchedAt,
		PlayersCount: persisted,
	}
}

// fail records the error in cache meta and reports the failure. Partial
// upserts already committed stay committed; upserts are idempotent per
// identifier, so the next successful sync converges.
func (o *Orchestrator) fail(ctx context.Context, err error) Result {
	log.Printf("[syncer] ❌ sync failed: %v", err)
	o.record(ctx, store.FetchStatusError, o.now(), err.Error())
	return Result{
		Message: "Failed to sync. Using cached data if available.",
		Error:   err.Error(),
	}
}

func (o *Orchestrator) record(ctx context.Context, status string, fetchedAt time.Time, errMsg string) {
	if err := o.store.RecordFetch(ctx, o.config.CacheKey, status, fetchedAt, o.config.TTLHours, errMsg); err != nil {
		log.Printf("[syncer] recording cache meta: %v", err)
	}
}

func playerToStore(p cricclubs.Player, clubID string) *store.Player {
	sp := &store.Player{
		PlayerID:      p.PlayerID,
		ClubID:        clubID,
		Name:          p.Name,
		Role:          sql.NullString{String: p.Role, Valid: p.Role != ""},
		PhotoURL:      sql.NullString{String: p.PhotoURL, Valid: p.PhotoURL != ""},
		IsCaptain:     p.IsCaptain,
		IsViceCaptain: p.IsViceCaptain,
		ProfileURL:    sql.NullString{String: p.ProfileURL, Valid: p.ProfileURL != ""},
	}
	if p.JerseyNumber > 0 {
		sp.JerseyNumber = sql.NullInt32{Int32: int32(p.JerseyNumber), Valid: true}
	}
	return sp
}

func teamToStore(t cricclubs.TeamInfo) *store.TeamInfo {
	return &store.TeamInfo{
		TeamID:      t.TeamID,
		ClubID:      t.ClubID,
		Name:        t.Name,
		LogoURL:     sql.NullString{String: t.LogoURL, Valid: t.LogoURL != ""},
		LeagueName:  sql.NullString{String: t.LeagueName, Valid: t.LeagueName != ""},
		Division:    sql.NullString{String: t.Division, Valid: t.Division != ""},
		Captain:     sql.NullString{String: t.Captain, Valid: t.Captain != ""},
		ViceCaptain: sql.NullString{String: t.ViceCaptain, Valid: t.ViceCaptain != ""},
		PlayerCount: sql.NullInt32{Int32: int32(t.PlayerCount), Valid: t.PlayerCount > 0},
	}
}
