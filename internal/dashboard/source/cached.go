package source

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hotelpulse/hotelpulse/internal/dashboard"
)

// sharedFetchTimeout bounds a collapsed upstream fetch once it no longer follows any
// single caller's context.
const sharedFetchTimeout = 30 * time.Second

// CacheRecorder observes cache lookups.
type CacheRecorder interface {
	ObserveCache(hit bool)
}

// CachedFetcher puts the versioned Redis cache in front of another fetcher and collapses
// identical concurrent fetches into one upstream call.
type CachedFetcher struct {
	next     dashboard.Fetcher
	cache    *Cache
	group    singleflight.Group
	logger   *slog.Logger
	recorder CacheRecorder
}

// NewCachedFetcher wraps next.
func NewCachedFetcher(next dashboard.Fetcher, cache *Cache, logger *slog.Logger, recorder CacheRecorder) *CachedFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedFetcher{next: next, cache: cache, logger: logger, recorder: recorder}
}

// Fetch implements dashboard.Fetcher.
func (f *CachedFetcher) Fetch(ctx context.Context, q dashboard.Query) (*dashboard.RawPeriodPayload, error) {
	key, err := f.cache.BuildKey(ctx, keyParts(q)...)
	if err != nil {
		// a broken cache must not take the dashboard down with it
		f.logger.Warn("dashboard cache unavailable", slog.Any("error", err))
		return f.next.Fetch(ctx, q)
	}

	// The shared call outlives the caller that started it; waiters that join later
	// must not inherit its cancellation.
	resultChan := f.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		var payload dashboard.RawPeriodPayload
		hit, err := f.cache.FetchJSON(loadCtx, key, &payload, func(ctx context.Context) (any, error) {
			return f.next.Fetch(ctx, q)
		})
		if err != nil {
			return nil, err
		}
		if f.recorder != nil {
			f.recorder.ObserveCache(hit)
		}
		return &payload, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*dashboard.RawPeriodPayload), nil
	}
}

// Bump invalidates every cached payload.
func (f *CachedFetcher) Bump(ctx context.Context) error {
	return f.cache.Bump(ctx)
}

func keyParts(q dashboard.Query) []string {
	ids := append([]string(nil), q.HotelIDs...)
	sort.Strings(ids)
	return []string{dashboard.FormatDay(q.Range.From), dashboard.FormatDay(q.Range.To), strings.Join(ids, ",")}
}
