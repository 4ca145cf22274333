package service

import (
	"context"
	"log"
	"time"

	"github.com/rebelscc/pavilion/internal/store"
	"github.com/rebelscc/pavilion/internal/store/repository"
)

// CacheStatus is the staleness signal the presentation layer renders next
// to a manual refresh action.
type CacheStatus struct {
	LastUpdated *time.Time `json:"lastUpdated"`
	IsStale     bool       `json:"isStale"`
	Status      string     `json:"status"`
}

// StatusService reports cache freshness for the roster data
type StatusService struct {
	meta *repository.CacheMetaRepository
	key  string
	now  func() time.Time
}

// NewStatusService creates a status service for a cache key
func NewStatusService(repos *repository.Store, cacheKey string) *StatusService {
	return &StatusService{
		meta: repos.Meta,
		key:  cacheKey,
		now:  time.Now,
	}
}

// CacheStatus returns the current freshness signal. A missing or unreadable
// meta row reads as stale with status "unknown", never as an error.
func (s *StatusService) CacheStatus(ctx context.Context) CacheStatus {
	meta, err := s.meta.Get(ctx, s.key)
	if err != nil {
		log.Printf("[service] fetching cache meta: %v", err)
		meta = nil
	}
	return ComputeCacheStatus(meta, s.now())
}

// ComputeCacheStatus derives the staleness signal from a cache meta row.
// Data is stale strictly after ttl_hours have elapsed; exactly at the
// boundary it is still fresh.
func ComputeCacheStatus(meta *store.CacheMeta, now time.Time) CacheStatus {
	if meta == nil {
		return CacheStatus{LastUpdated: nil, IsStale: true, Status: store.FetchStatusUnknown}
	}

	status := meta.FetchStatus
	if status == "" {
		status = store.FetchStatusUnknown
	}

	var lastUpdated *time.Time
	if meta.LastFetchedAt.Valid {
		t := meta.LastFetchedAt.Time
		lastUpdated = &t
	}

	return CacheStatus{
		LastUpdated: lastUpdated,
		IsStale:     meta.Stale(now),
		Status:      status,
	}
}
