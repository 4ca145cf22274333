package syncer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebelscc/pavilion/internal/ingest/cricclubs"
	"github.com/rebelscc/pavilion/internal/store"
)

const rosterPage = `<html><body>
<div class="card"><a href="/TDCA/viewPlayer.do?playerId=201&clubId=1809">Asha Rao</a> Bowler</div>
<div class="card"><a href="/TDCA/viewPlayer.do?playerId=202&clubId=1809">Vik Iyer (C)</a> Batter</div>
</body></html>`

const emptyPage = `<html><body><p>Season over</p></body></html>`

type recordedFetch struct {
	key       string
	status    string
	fetchedAt time.Time
	ttlHours  int
	errMsg    string
}

type fakeStore struct {
	meta    *store.CacheMeta
	metaErr error

	playerErrs map[string]error
	recordErr  error

	players  []*store.Player
	teams    []*store.TeamInfo
	seeded   []string
	marked   [][]string
	pruned   []int
	recorded []recordedFetch
}

func (s *fakeStore) GetCacheMeta(_ context.Context, key string) (*store.CacheMeta, error) {
	if s.metaErr != nil {
		return nil, s.metaErr
	}
	return s.meta, nil
}

func (s *fakeStore) RecordFetch(_ context.Context, key, status string, fetchedAt time.Time, ttlHours int, errMsg string) error {
	s.recorded = append(s.recorded, recordedFetch{key, status, fetchedAt, ttlHours, errMsg})
	return s.recordErr
}

func (s *fakeStore) UpsertTeam(_ context.Context, team *store.TeamInfo) error {
	s.teams = append(s.teams, team)
	return nil
}

func (s *fakeStore) UpsertPlayer(_ context.Context, player *store.Player) error {
	if err := s.playerErrs[player.PlayerID]; err != nil {
		return err
	}
	s.players = append(s.players, player)
	return nil
}

func (s *fakeStore) EnsureStatsRows(_ context.Context, playerID string) error {
	s.seeded = append(s.seeded, playerID)
	return nil
}

func (s *fakeStore) MarkMissing(_ context.Context, seenIDs []string) error {
	s.marked = append(s.marked, seenIDs)
	return nil
}

func (s *fakeStore) PruneMissing(_ context.Context, threshold int) (int, error) {
	s.pruned = append(s.pruned, threshold)
	return 0, nil
}

type fakeFetcher struct {
	html  string
	err   error
	calls int
}

func (f *fakeFetcher) FetchTeamPage(_ context.Context) (string, error) {
	f.calls++
	return f.html, f.err
}

type fakeLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allowed, l.err
}

func freshMeta(now time.Time) *store.CacheMeta {
	return &store.CacheMeta{
		CacheKey:      CacheKeyPlayers,
		LastFetchedAt: sql.NullTime{Time: now.Add(-1 * time.Hour), Valid: true},
		TTLHours:      24,
		FetchStatus:   store.FetchStatusSuccess,
	}
}

func staleMeta(now time.Time) *store.CacheMeta {
	return &store.CacheMeta{
		CacheKey:      CacheKeyPlayers,
		LastFetchedAt: sql.NullTime{Time: now.Add(-25 * time.Hour), Valid: true},
		TTLHours:      24,
		FetchStatus:   store.FetchStatusSuccess,
	}
}

func newTestOrchestrator(st *fakeStore, fetcher Fetcher, limiter *fakeLimiter, cfg *Config) *Orchestrator {
	o := New(st, fetcher, limiter, cricclubs.DefaultConfig(), cfg)
	o.now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	return o
}

func TestSyncFreshCacheShortCircuits(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	st := &fakeStore{meta: freshMeta(now)}
	fetcher := &fakeFetcher{html: rosterPage}
	o := newTestOrchestrator(st, fetcher, &fakeLimiter{allowed: true}, nil)

	res := o.Sync(context.Background(), false, "10.0.0.1")

	require.True(t, res.Success)
	assert.Equal(t, "Data is cached and fresh", res.Message)
	require.NotNil(t, res.LastUpdated)
	assert.Equal(t, now.Add(-1*time.Hour), *res.LastUpdated)
	assert.Zero(t, fetcher.calls, "fresh cache must not trigger a fetch")
	assert.Empty(t, st.recorded, "short-circuit must not rewrite cache meta")
}

func TestSyncRefreshesStaleCache(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	st := &fakeStore{meta: staleMeta(now)}
	fetcher := &fakeFetcher{html: rosterPage}
	o := newTestOrchestrator(st, fetcher, &fakeLimiter{allowed: true}, nil)

	res := o.Sync(context.Background(), false, "10.0.0.1")

	require.True(t, res.Success)
	assert.Equal(t, "Synced 2 players", res.Message)
	assert.Equal(t, 2, res.PlayersCount)
	assert.Equal(t, 1, fetcher.calls)

	require.Len(t, st.players, 2)
	assert.Equal(t, "201", st.players[0].PlayerID)
	assert.Equal(t, "Asha Rao", st.players[0].Name)
	assert.Equal(t, "Bowler", st.players[0].Role.String)
	assert.True(t, st.players[1].IsCaptain)

	require.Len(t, st.teams, 1)
	assert.Equal(t, "Hyderabad Rebels CC", st.teams[0].Name)

	assert.Equal(t, []string{"201", "202"}, st.seeded)
	require.Len(t, st.marked, 1)
	assert.Equal(t, []string{"201", "202"}, st.marked[0])
	assert.Empty(t, st.pruned, "pruning is off by default")

	require.Len(t, st.recorded, 1)
	assert.Equal(t, store.FetchStatusSuccess, st.recorded[0].status)
	assert.Equal(t, CacheKeyPlayers, st.recorded[0].key)
	assert.Equal(t, store.DefaultTTLHours, st.recorded[0].ttlHours)
	assert.Empty(t, st.recorded[0].errMsg)
}

func TestSyncExactTTLBoundaryStillFresh(t *testing.T) {
	// The short-circuit and the read API share one staleness rule: data
	// aged exactly ttl_hours is not yet stale, so no fetch happens.
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	st := &fakeStore{meta: &store.CacheMeta{
		CacheKey:      CacheKeyPlayers,
		LastFetchedAt: sql.NullTime{Time: now.Add(-24 * time.Hour), Valid: true},
		TTLHours:      24,
		FetchStatus:   store.FetchStatusSuccess,
	}}
	fetcher := &fakeFetcher{html: rosterPage}
	o := newTestOrchestrator(st, fetcher, &fakeLimiter{allowed: true}, nil)

	res := o.Sync(context.Background(), false, "10.0.0.1")

	require.True(t, res.Success)
	assert.Equal(t, "Data is cached and fresh", res.Message)
	assert.Zero(t, fetcher.calls)
}

func TestSyncMissingMetaTreatedAsStale(t *testing.T) {
	st := &fakeStore{meta: nil}
	fetcher := &fakeFetcher{html: rosterPage}
	o := newTestOrchestrator(st, fetcher, &fakeLimiter{allowed: true}, nil)

	res := o.Sync(context.Background(), false, "10.0.0.1")

	require.True(t, res.Success)
	assert.Equal(t, 1, fetcher.calls)
}

func TestSyncMetaReadFailureTreatedAsStale(t *testing.T) {
	st := &fakeStore{metaErr: errors.New("connection refused")}
	fetcher := &fakeFetcher{html: rosterPage}
	o := newTestOrchestrator(st, fetcher, &fakeLimiter{allowed: true}, nil)

	res := o.Sync(context.Background(), false, "10.0.0.1")

	require.True(t, res.Success)
	assert.Equal(t, 1, fetcher.calls)
}

func TestSyncForceBypassesTTL(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	st := &fakeStore{meta: freshMeta(now)}
	fetcher := &fakeFetcher{html: rosterPage}
	limiter := &fakeLimiter{allowed: true}
	o := newTestOrchestrator(st, fetcher, limiter, nil)

	res := o.Sync(context.Background(), true, "10.0.0.1")

	require.True(t, res.Success)
	assert.Equal(t, "Synced 2 players", res.Message)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, []string{"10.0.0.1"}, limiter.keys)
}

func TestSyncForceRateLimited(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	st := &fakeStore{meta: freshMeta(now)}
	fetcher := &fakeFetcher{html: rosterPage}
	o := newTestOrchestrator(st, fetcher, &fakeLimiter{allowed: false}, nil)

	res := o.Sync(context.Background(), true, "10.0.0.1")

	assert.False(t, res.Success)
	assert.True(t, res.RateLimited)
	assert.Equal(t, "Force refresh is rate limited to prevent abuse.", res.Message)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", res.Error)
	assert.Zero(t, fetcher.calls, "rate-limited request must not fetch")
	assert.Empty(t, st.recorded, "rate-limited request must not touch cache meta")
}

func TestSyncUnforcedIgnoresLimiter(t *testing.T) {
	st := &fakeStore{}
	fetcher := &fakeFetcher{html: rosterPage}
	limiter := &fakeLimiter{allowed: false}
	o := newTestOrchestrator(st, fetcher, limiter, nil)

	res := o.Sync(context.Background(), false, "10.0.0.1")

	require.True(t, res.Success)
	assert.Empty(t, limiter.keys, "unforced sync must not consume the rate-limit window")
}

func TestSyncLimiterFailureFailsOpen(t *testing.T) {
	st := &fakeStore{}
	fetcher := &fakeFetcher{html: rosterPage}
	o := newTestOrchestrator(st, fetcher, &fakeLimiter{err: errors.New("redis down")}, nil)

	res := o.Sync(context.Background(), true, "10.0.0.1")

	require.True(t, res.Success)
	assert.Equal(t, 1, fetcher.calls)
}

func TestSyncFetchFailure(t *testing.T) {
	st := &fakeStore{}
	fetcher := &fakeFetcher{err: errors.New("dial tcp: timeout")}
	o := newTestOrchestrator(st, fetcher, &fakeLimiter{allowed: true}, nil)

	res := o.Sync(context.Background(), false, "10.0.0.1")

	assert.False(t, res.Success)
	assert.Equal(t, "Failed to sync. Using cached data if available.", res.Message)
	assert.Contains(t, res.Error, "dial tcp: timeout")

	require.Len(t, st.recorded, 1)
	assert.Equal(t, store.FetchStatusError, st.recorded[0].status)
	assert.Contains(t, st.recorded[0].errMsg, "dial tcp: timeout")
	assert.Empty(t, st.players, "failed fetch must not write players")
}

func TestSyncEmptyPageKeepsRoster(t *testing.T) {
	st := &fakeStore{}
	fetcher := &fakeFetcher{html: emptyPage}
	o := newTestOrchestrator(st, fetcher, &fakeLimiter{allowed: true}, nil)

	res := o.Sync(context.Background(), false, "10.0.0.1")

	require.True(t, res.Success)
	assert.Zero(t, res.PlayersCount)
	assert.Empty(t, st.players, "empty scrape must not touch the roster")
	assert.Empty(t, st.marked, "empty scrape must not mark players missing")

	// TTL still resets so readers see fresh data rather than retrying.
	require.Len(t, st.recorded, 1)
	assert.Equal(t, store.FetchStatusSuccess, st.recorded[0].status)
}

func TestSyncSkipsBadRecords(t *testing.T) {
	st := &fakeStore{playerErrs: map[string]error{"201": errors.New("value too long")}}
	fetcher := &fakeFetcher{html: rosterPage}
	o := newTestOrchestrator(st, fetcher, &fakeLimiter{allowed: true}, nil)

	res := o.Sync(context.Background(), false, "10.0.0.1")

	require.True(t, res.Success, "one bad record must not fail the sync")
	assert.Equal(t, 1, res.PlayersCount)
	require.Len(t, st.marked, 1)
	assert.Equal(t, []string{"201", "202"}, st.marked[0],
		"a player on the page keeps a clean absence streak even when its write fails")
}

func TestSyncFailsWhenNothingPersists(t *testing.T) {
	st := &fakeStore{playerErrs: map[string]error{
		"201": errors.New("disk full"),
		"202": errors.New("disk full"),
	}}
	fetcher := &fakeFetcher{html: rosterPage}
	o := newTestOrchestrator(st, fetcher, &fakeLimiter{allowed: true}, nil)

	res := o.Sync(context.Background(), false, "10.0.0.1")

	assert.False(t, res.Success)
	assert.Empty(t, st.marked, "a fully failed persist must not mark players missing")

	require.Len(t, st.recorded, 1)
	assert.Equal(t, store.FetchStatusError, st.recorded[0].status)
}

func TestSyncPrunesWhenConfigured(t *testing.T) {
	st := &fakeStore{}
	fetcher := &fakeFetcher{html: rosterPage}
	cfg := DefaultConfig()
	cfg.PruneAfterMisses = 3
	o := newTestOrchestrator(st, fetcher, &fakeLimiter{allowed: true}, cfg)

	res := o.Sync(context.Background(), false, "10.0.0.1")

	require.True(t, res.Success)
	assert.Equal(t, []int{3}, st.pruned)
}

func TestSyncConcurrentCallsShareOneRun(t *testing.T) {
	st := &fakeStore{}
	release := make(chan struct{})
	started := make(chan struct{})

	var fetchOnce sync.Once
	fetcher := &blockingFetcher{
		html: rosterPage,
		onFetch: func() {
			fetchOnce.Do(func() { close(started) })
			<-release
		},
	}
	o := newTestOrchestrator(st, fetcher, &fakeLimiter{allowed: true}, nil)

	var wg sync.WaitGroup
	results := make([]Result, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = o.Sync(context.Background(), false, "10.0.0.1")
	}()

	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1] = o.Sync(context.Background(), false, "10.0.0.2")
	}()

	// Give the second caller time to join the in-flight run before
	// releasing the fetch.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.LessOrEqual(t, fetcher.calls, 2)
	assert.LessOrEqual(t, len(st.recorded), 2)
}

type blockingFetcher struct {
	html    string
	onFetch func()
	calls   int
}

func (f *blockingFetcher) FetchTeamPage(_ context.Context) (string, error) {
	f.calls++
	if f.onFetch != nil {
		f.onFetch()
	}
	return f.html, nil
}

func TestPlayerToStore(t *testing.T) {
	p := cricclubs.Player{
		PlayerID:     "42",
		Name:         "Asha Rao",
		Role:         "Bowler",
		PhotoURL:     cricclubs.NoPhotoURL,
		JerseyNumber: 9,
		IsCaptain:    true,
		ProfileURL:   "https://cricclubs.com/TDCA/viewPlayer.do?playerId=42&clubId=1809",
	}

	sp := playerToStore(p, "1809")

	assert.Equal(t, "42", sp.PlayerID)
	assert.Equal(t, "1809", sp.ClubID)
	assert.True(t, sp.Role.Valid)
	assert.Equal(t, "Bowler", sp.Role.String)
	assert.True(t, sp.JerseyNumber.Valid)
	assert.Equal(t, int32(9), sp.JerseyNumber.Int32)
	assert.True(t, sp.IsCaptain)
}

func TestPlayerToStoreOmitsUnknownJersey(t *testing.T) {
	sp := playerToStore(cricclubs.Player{PlayerID: "42", Name: "Asha Rao"}, "1809")
	assert.False(t, sp.JerseyNumber.Valid)
	assert.False(t, sp.Role.Valid)
}

func TestSingleFlightSequentialRunsDoNotShare(t *testing.T) {
	var g singleFlight
	runs := 0

	for i := 0; i < 3; i++ {
		res, shared := g.Do("players", func() Result {
			runs++
			return Result{Success: true, Message: fmt.Sprintf("run %d", runs)}
		})
		assert.False(t, shared)
		assert.True(t, res.Success)
	}

	assert.Equal(t, 3, runs, "sequential calls each execute")
}
