// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cve

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/bonial-oss/cve-pulse/internal/cache"
	"github.com/bonial-oss/cve-pulse/internal/filter"
	"github.com/bonial-oss/cve-pulse/internal/input"
	"github.com/bonial-oss/cve-pulse/internal/types"
)

// ErrNoData is returned when a refresh cycle got no records for any year.
var ErrNoData = errors.New("no vulnerability data found for any year")

// Fetcher performs GET requests against the backend.
type Fetcher interface {
	GetJSON(ctx context.Context, path string) ([]byte, error)
}

// ProgressFunc is called after each year of a refresh cycle with the number
// of records the year contributed and the error that made it contribute
// none, if any.
type ProgressFunc func(year string, records int, err error)

type Option func(*Source)

func WithLogger(l *zap.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// WithStartYear overrides the oldest year fetched.
func WithStartYear(year int) Option {
	return func(s *Source) { s.startYear = year }
}

func WithProgress(fn ProgressFunc) Option {
	return func(s *Source) { s.progress = fn }
}

// Source provides the aggregated CVE dataset with snapshot caching.
type Source struct {
	fetcher   Fetcher
	cache     *cache.Cache
	logger    *zap.Logger
	startYear int
	progress  ProgressFunc

	mu      sync.Mutex
	gen     uint64
	current *flight

	// writeMu serializes snapshot writes.
	writeMu sync.Mutex
}

// flight is one refresh cycle shared by every caller waiting on it.
type flight struct {
	gen        uint64
	cancel     context.CancelFunc
	waiters    int
	superseded bool

	done chan struct{}
	snap *types.Snapshot
	err  error
}

func NewSource(fetcher Fetcher, c *cache.Cache, opts ...Option) *Source {
	s := &Source{
		fetcher:   fetcher,
		cache:     c,
		logger:    zap.NewNop(),
		startYear: filter.FirstYear,
		progress:  func(string, int, error) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Years returns the years a refresh cycle fetches, newest first.
func (s *Source) Years() []string {
	return filter.YearRange(s.startYear, s.cache.Now().Year())
}

// Load returns the cached snapshot when it is still valid, otherwise it
// refreshes. Concurrent misses share one refresh cycle, and a refresh already
// in flight is joined rather than replaced.
//
// Logic:
//  1. Valid snapshot in cache -> return it, no network.
//  2. Expired or undecodable snapshot -> delete it, refresh.
//  3. No snapshot or unreadable cache -> refresh.
func (s *Source) Load(ctx context.Context) (*types.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if snap, ok := s.fresh(ctx); ok {
		return snap, nil
	}
	for {
		f := s.join(ctx)
		snap, err := s.wait(ctx, f)
		if err != nil && ctx.Err() == nil && s.wasSuperseded(f) {
			// A forced refresh replaced the one we joined; wait for that instead.
			continue
		}
		return snap, err
	}
}

// Cached returns the stored snapshot regardless of its age, or nil when there
// is none or it cannot be read. It never touches the network.
func (s *Source) Cached(ctx context.Context) *types.Snapshot {
	snap, err := s.cache.Load(ctx)
	switch {
	case err == nil:
		return snap
	case !errors.Is(err, cache.ErrMiss):
		s.logger.Warn("cached snapshot unreadable", zap.Error(err))
	}
	return nil
}

// ForceRefresh drops the cached snapshot and refreshes.
func (s *Source) ForceRefresh(ctx context.Context) (*types.Snapshot, error) {
	return s.supersede(ctx, true)
}

// Refresh fetches every year, normalizes the records and replaces the cached
// snapshot. A failing year is logged and skipped. Starting a refresh cancels
// one still in flight on the same Source; callers of the cancelled one that
// came through Refresh get context.Canceled, while Load callers move on to the
// new cycle. A cancelled cycle does not write the cache.
func (s *Source) Refresh(ctx context.Context) (*types.Snapshot, error) {
	return s.supersede(ctx, false)
}

func (s *Source) supersede(ctx context.Context, drop bool) (*types.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	f := s.start(ctx, func(ctx context.Context, gen uint64) (*types.Snapshot, error) {
		if drop {
			s.clear(ctx)
		}
		return s.refresh(ctx, gen)
	})
	s.mu.Unlock()
	return s.wait(ctx, f)
}

// fresh returns the cached snapshot if it is still valid. An expired or
// unreadable snapshot is deleted.
func (s *Source) fresh(ctx context.Context) (*types.Snapshot, bool) {
	snap, err := s.cache.Load(ctx)
	switch {
	case err == nil && s.cache.IsFresh(snap):
		s.logger.Debug("loaded snapshot from cache",
			zap.Time("created", snap.CreatedAt()), zap.Int("records", len(snap.NormalizedRecords)))
		return snap, true
	case err == nil:
		s.logger.Info("cached snapshot expired", zap.Time("created", snap.CreatedAt()))
		s.clear(ctx)
	case errors.Is(err, cache.ErrMiss):
		s.logger.Debug("no cached snapshot")
	default:
		s.logger.Warn("reading cached snapshot failed", zap.Error(err))
		s.clear(ctx)
	}
	return nil, false
}

// join returns the refresh in flight, starting one if there is none.
func (s *Source) join(ctx context.Context) *flight {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f := s.current; f != nil {
		f.waiters++
		return f
	}
	return s.start(ctx, func(ctx context.Context, gen uint64) (*types.Snapshot, error) {
		// The previous cycle may have stored a snapshot since our cache miss.
		if snap, ok := s.fresh(ctx); ok {
			return snap, nil
		}
		return s.refresh(ctx, gen)
	})
}

// start runs fn as a new refresh generation, cancelling the previous one.
// The cycle outlives the caller that started it as long as someone waits on
// it. s.mu must be held.
func (s *Source) start(parent context.Context, fn func(context.Context, uint64) (*types.Snapshot, error)) *flight {
	if prev := s.current; prev != nil {
		prev.superseded = true
		prev.cancel()
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	s.gen++
	f := &flight{gen: s.gen, cancel: cancel, waiters: 1, done: make(chan struct{})}
	s.current = f

	go func() {
		defer cancel()
		f.snap, f.err = fn(ctx, f.gen)

		s.mu.Lock()
		if s.current == f {
			s.current = nil
		}
		s.mu.Unlock()
		close(f.done)
	}()
	return f
}

// wait blocks until f finishes or ctx is done. The last waiter to give up
// cancels the cycle.
func (s *Source) wait(ctx context.Context, f *flight) (*types.Snapshot, error) {
	select {
	case <-f.done:
		return f.snap, f.err
	case <-ctx.Done():
		s.mu.Lock()
		f.waiters--
		if f.waiters == 0 {
			f.cancel()
			if s.current == f {
				s.current = nil
			}
		}
		s.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (s *Source) wasSuperseded(f *flight) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f.superseded
}

func (s *Source) refresh(ctx context.Context, gen uint64) (*types.Snapshot, error) {
	snap := &types.Snapshot{
		YearBuckets:       []types.YearBucket{},
		NormalizedRecords: []types.Record{},
		YearsWithData:     []string{},
	}

	for _, year := range s.Years() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := s.fetchYear(ctx, year)
		s.progress(year, len(records), err)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Warn("fetching year failed", zap.String("year", year), zap.Error(err))
			continue
		}
		if len(records) == 0 {
			s.logger.Debug("no data for year", zap.String("year", year))
			continue
		}

		snap.YearBuckets = append(snap.YearBuckets, types.YearBucket{Year: year, Data: records})
		for _, raw := range records {
			snap.NormalizedRecords = append(snap.NormalizedRecords, Normalize(raw, year))
		}
		snap.YearsWithData = append(snap.YearsWithData, year)
		s.logger.Debug("loaded year", zap.String("year", year), zap.Int("records", len(records)),
			zap.Int("total", len(snap.NormalizedRecords)))
	}

	if len(snap.NormalizedRecords) == 0 {
		return nil, ErrNoData
	}
	snap.Timestamp = s.cache.Now().UnixMilli()

	if err := s.persist(ctx, gen, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Source) fetchYear(ctx context.Context, year string) ([]types.RawRecord, error) {
	data, err := s.fetcher.GetJSON(ctx, "/scrape-by-date/"+year)
	if err != nil {
		return nil, err
	}
	parsed, err := input.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing year %s: %w", year, err)
	}
	if parsed.Shape == input.ShapeUnknown {
		s.logger.Warn("unexpected response shape", zap.String("year", year))
	}
	return parsed.Records, nil
}

// persist writes snap unless a newer refresh has started since gen. Write
// failures are logged only.
func (s *Source) persist(ctx context.Context, gen uint64, snap *types.Snapshot) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	superseded := s.gen != gen
	s.mu.Unlock()
	if superseded {
		return context.Canceled
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.cache.Store(ctx, snap); err != nil {
		s.logger.Warn("saving snapshot failed", zap.Error(err))
		return nil
	}
	s.logger.Debug("snapshot saved", zap.Int("records", len(snap.NormalizedRecords)))
	return nil
}

func (s *Source) clear(ctx context.Context) {
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Warn("clearing cached snapshot failed", zap.Error(err))
	}
}
