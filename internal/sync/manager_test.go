// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/database"
	"github.com/yksingh/codenotify/internal/models"
)

// mockStore implements ContestStore in memory, keyed by the natural key.
type mockStore struct {
	mu            stdsync.Mutex
	contests      map[string]*models.Contest
	insertErr     error
	deactivations map[models.Platform][]string
	cleanupCutoff time.Time
	refreshCalls  int
}

func newMockStore() *mockStore {
	return &mockStore{
		contests:      make(map[string]*models.Contest),
		deactivations: make(map[models.Platform][]string),
	}
}

func (s *mockStore) GetContestByKey(_ context.Context, platform models.Platform, platformID string) (*models.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contests[string(platform)+"/"+platformID]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *mockStore) InsertContest(_ context.Context, c *models.Contest) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	cp := *c
	cp.ID = int64(len(s.contests) + 1)
	s.contests[cp.Key().String()] = &cp
	return cp.ID, nil
}

func (s *mockStore) UpdateContestTracked(_ context.Context, c *models.Contest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := c.Key().String()
	if _, ok := s.contests[key]; !ok {
		return database.ErrNotFound
	}
	cp := *c
	s.contests[key] = &cp
	return nil
}

func (s *mockStore) DeactivateMissingContests(_ context.Context, platform models.Platform, seen []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deactivations[platform] = append([]string(nil), seen...)
	return 0, nil
}

func (s *mockStore) RefreshContestPhases(_ context.Context, _ time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls++
	return 0, nil
}

func (s *mockStore) CleanupFinishedContests(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupCutoff = cutoff
	return 3, nil
}

// fakeAdapter returns a canned result or error and counts calls.
type fakeAdapter struct {
	platform models.Platform
	fetch    func(ctx context.Context) (*FetchResult, error)
	calls    int
}

func (f *fakeAdapter) Platform() models.Platform { return f.platform }

func (f *fakeAdapter) Fetch(ctx context.Context) (*FetchResult, error) {
	f.calls++
	return f.fetch(ctx)
}

func newTestManager(store ContestStore, cache *StalenessCache, adapters ...Adapter) *Manager {
	cfg := &config.Config{}
	cfg.Sync.RetryAttempts = 3
	cfg.Sync.RetryDelay = time.Millisecond
	cfg.Sync.CleanupDays = 90

	m := &Manager{
		store:       store,
		cache:       cache,
		cfg:         cfg,
		adapters:    make(map[models.Platform]Adapter),
		lastResults: make(map[models.Platform]models.SyncResult),
		stopChan:    make(chan struct{}),
	}
	for _, a := range adapters {
		m.adapters[a.Platform()] = a
	}
	return m
}

func syncContest(platform models.Platform, id, name string, start time.Time) *models.Contest {
	end := start.Add(2 * time.Hour)
	return &models.Contest{
		Platform:        platform,
		PlatformID:      id,
		Name:            name,
		Phase:           models.PhaseBefore,
		Type:            models.ContestTypeCF,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: 120,
	}
}

func TestSyncPlatformReconcileCounts(t *testing.T) {
	store := newMockStore()
	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)

	// Pre-seed one unchanged and one stale contest.
	unchanged := syncContest(models.PlatformCodeforces, "100", "Round 100", start)
	if _, err := store.InsertContest(context.Background(), unchanged); err != nil {
		t.Fatal(err)
	}
	stale := syncContest(models.PlatformCodeforces, "101", "Round 101 (old name)", start)
	if _, err := store.InsertContest(context.Background(), stale); err != nil {
		t.Fatal(err)
	}

	renamed := syncContest(models.PlatformCodeforces, "101", "Round 101 (Div. 1)", start)
	fresh := syncContest(models.PlatformCodeforces, "102", "Round 102", start)

	adapter := &fakeAdapter{
		platform: models.PlatformCodeforces,
		fetch: func(ctx context.Context) (*FetchResult, error) {
			return &FetchResult{
				Contests: []*models.Contest{unchanged, renamed, fresh},
				Dropped:  1,
			}, nil
		},
	}

	m := newTestManager(store, nil, adapter)
	result, err := m.SyncPlatform(context.Background(), models.PlatformCodeforces, false)
	if err != nil {
		t.Fatalf("SyncPlatform failed: %v", err)
	}

	if result.Synced != 1 {
		t.Errorf("expected 1 synced, got %d", result.Synced)
	}
	if result.Updated != 1 {
		t.Errorf("expected 1 updated, got %d", result.Updated)
	}
	if result.Failed != 1 {
		t.Errorf("expected 1 failed (dropped upstream), got %d", result.Failed)
	}
	if result.Total() != 3 {
		t.Errorf("expected total 3, got %d", result.Total())
	}

	got, err := store.GetContestByKey(context.Background(), models.PlatformCodeforces, "101")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Round 101 (Div. 1)" {
		t.Errorf("update not applied, name is %q", got.Name)
	}

	seen := store.deactivations[models.PlatformCodeforces]
	if len(seen) != 3 {
		t.Errorf("expected 3 seen ids passed to deactivation, got %v", seen)
	}
	if store.refreshCalls != 1 {
		t.Errorf("expected 1 phase refresh, got %d", store.refreshCalls)
	}

	if m.LastSyncTime().IsZero() {
		t.Error("last sync time not recorded")
	}
	if _, ok := m.LastResults()[models.PlatformCodeforces]; !ok {
		t.Error("last result not recorded")
	}
}

func TestSyncRetriesTransientErrors(t *testing.T) {
	store := newMockStore()
	start := time.Now().Add(time.Hour).UTC()

	adapter := &fakeAdapter{platform: models.PlatformAtCoder}
	adapter.fetch = func(ctx context.Context) (*FetchResult, error) {
		if adapter.calls < 3 {
			return nil, ErrUpstreamUnavailable
		}
		return &FetchResult{Contests: []*models.Contest{syncContest(models.PlatformAtCoder, "abc420", "ABC 420", start)}}, nil
	}

	m := newTestManager(store, nil, adapter)
	result, err := m.SyncPlatform(context.Background(), models.PlatformAtCoder, false)
	if err != nil {
		t.Fatalf("SyncPlatform failed: %v", err)
	}
	if adapter.calls != 3 {
		t.Errorf("expected 3 fetch attempts, got %d", adapter.calls)
	}
	if result.Synced != 1 {
		t.Errorf("expected 1 synced after retries, got %d", result.Synced)
	}
}

func TestSyncDoesNotRetryMalformed(t *testing.T) {
	store := newMockStore()
	adapter := &fakeAdapter{
		platform: models.PlatformLeetCode,
		fetch: func(ctx context.Context) (*FetchResult, error) {
			return nil, ErrUpstreamMalformed
		},
	}

	m := newTestManager(store, nil, adapter)
	result, err := m.SyncPlatform(context.Background(), models.PlatformLeetCode, false)
	if err != nil {
		t.Fatalf("SyncPlatform failed: %v", err)
	}
	if adapter.calls != 1 {
		t.Errorf("malformed payload should not be retried, got %d attempts", adapter.calls)
	}
	if result.Error == "" {
		t.Error("expected platform-level error in result")
	}
	if result.Total() != 0 {
		t.Errorf("expected no contests touched, got %d", result.Total())
	}
}

func TestSyncRetryBudgetExhausted(t *testing.T) {
	store := newMockStore()
	adapter := &fakeAdapter{
		platform: models.PlatformCodeChef,
		fetch: func(ctx context.Context) (*FetchResult, error) {
			return nil, ErrUpstreamUnavailable
		},
	}

	m := newTestManager(store, nil, adapter)
	result, err := m.SyncPlatform(context.Background(), models.PlatformCodeChef, false)
	if err != nil {
		t.Fatalf("SyncPlatform failed: %v", err)
	}
	if adapter.calls != 3 {
		t.Errorf("expected retry budget of 3 attempts, got %d", adapter.calls)
	}
	if result.Error == "" {
		t.Error("expected platform-level error after exhausted retries")
	}
}

func TestOneFailingPlatformDoesNotBlockOthers(t *testing.T) {
	store := newMockStore()
	start := time.Now().Add(time.Hour).UTC()

	failing := &fakeAdapter{
		platform: models.PlatformCodeforces,
		fetch: func(ctx context.Context) (*FetchResult, error) {
			return nil, ErrUpstreamMalformed
		},
	}
	healthy := &fakeAdapter{
		platform: models.PlatformAtCoder,
		fetch: func(ctx context.Context) (*FetchResult, error) {
			return &FetchResult{Contests: []*models.Contest{syncContest(models.PlatformAtCoder, "abc421", "ABC 421", start)}}, nil
		},
	}

	m := newTestManager(store, nil, failing, healthy)
	results, err := m.TriggerSync(context.Background(), false)
	if err != nil {
		t.Fatalf("TriggerSync failed: %v", err)
	}

	if results[models.PlatformCodeforces].Error == "" {
		t.Error("expected error for failing platform")
	}
	if results[models.PlatformAtCoder].Synced != 1 {
		t.Errorf("healthy platform should still sync, got %+v", results[models.PlatformAtCoder])
	}
}

func TestTriggerSyncRejectsConcurrentRuns(t *testing.T) {
	m := newTestManager(newMockStore(), nil)

	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	if _, err := m.TriggerSync(context.Background(), false); !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}
	if _, err := m.SyncPlatform(context.Background(), models.PlatformCodeforces, false); err == nil {
		t.Fatal("expected error for concurrent platform sync")
	}
}

func TestSyncPlatformUnknownPlatform(t *testing.T) {
	m := newTestManager(newMockStore(), nil)
	if _, err := m.SyncPlatform(context.Background(), models.PlatformCodeforces, false); err == nil {
		t.Fatal("expected error for disabled platform")
	}
}

func TestStalenessCacheSkipsFreshPlatform(t *testing.T) {
	cache, err := OpenStalenessCache(config.CacheConfig{StalenessTTL: time.Minute})
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	store := newMockStore()
	start := time.Now().Add(time.Hour).UTC()
	adapter := &fakeAdapter{
		platform: models.PlatformCodeforces,
		fetch: func(ctx context.Context) (*FetchResult, error) {
			return &FetchResult{Contests: []*models.Contest{syncContest(models.PlatformCodeforces, "200", "Round 200", start)}}, nil
		},
	}

	m := newTestManager(store, cache, adapter)

	// First sync fetches and records freshness.
	if _, err := m.SyncPlatform(context.Background(), models.PlatformCodeforces, false); err != nil {
		t.Fatal(err)
	}
	if adapter.calls != 1 {
		t.Fatalf("expected 1 fetch, got %d", adapter.calls)
	}

	// Second routine sync is skipped while fresh.
	result, err := m.SyncPlatform(context.Background(), models.PlatformCodeforces, false)
	if err != nil {
		t.Fatal(err)
	}
	if adapter.calls != 1 {
		t.Errorf("fresh platform should not be fetched again, got %d calls", adapter.calls)
	}
	if result.Total() != 0 || result.Error != "" {
		t.Errorf("skipped sync should report an empty result, got %+v", result)
	}

	// Force bypasses freshness.
	if _, err := m.SyncPlatform(context.Background(), models.PlatformCodeforces, true); err != nil {
		t.Fatal(err)
	}
	if adapter.calls != 2 {
		t.Errorf("forced sync should fetch, got %d calls", adapter.calls)
	}
}

func TestStalenessCacheLastSynced(t *testing.T) {
	cache, err := OpenStalenessCache(config.CacheConfig{StalenessTTL: time.Minute})
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	if _, ok := cache.LastSynced(models.PlatformAtCoder); ok {
		t.Fatal("expected no entry before MarkSynced")
	}

	at := time.Now().UTC().Truncate(time.Second)
	if err := cache.MarkSynced(models.PlatformAtCoder, at); err != nil {
		t.Fatal(err)
	}

	got, ok := cache.LastSynced(models.PlatformAtCoder)
	if !ok {
		t.Fatal("expected entry after MarkSynced")
	}
	if !got.Equal(at) {
		t.Errorf("expected %v, got %v", at, got)
	}

	if !cache.IsFresh(models.PlatformAtCoder) {
		t.Error("expected platform to be fresh")
	}
	if cache.IsFresh(models.PlatformLeetCode) {
		t.Error("unrelated platform should not be fresh")
	}

	if err := cache.Invalidate(models.PlatformAtCoder); err != nil {
		t.Fatal(err)
	}
	if cache.IsFresh(models.PlatformAtCoder) {
		t.Error("expected platform to be stale after invalidation")
	}
}

func TestRunCleanupCutoff(t *testing.T) {
	store := newMockStore()
	m := newTestManager(store, nil)

	deleted, err := m.RunCleanup(context.Background())
	if err != nil {
		t.Fatalf("RunCleanup failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}

	want := time.Now().UTC().AddDate(0, 0, -90)
	if diff := store.cleanupCutoff.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("cutoff %v not near %v", store.cleanupCutoff, want)
	}
}

func TestManagerStartStop(t *testing.T) {
	store := newMockStore()
	cfg := &config.Config{}
	cfg.Sync.Enabled = false
	cfg.Sync.CleanupEnabled = true
	cfg.Sync.CleanupSchedule = "0 2 * * *"
	cfg.Sync.CleanupDays = 90
	cfg.Sync.RetryAttempts = 1
	cfg.Sync.RetryDelay = time.Millisecond

	m := NewManager(store, nil, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := m.Start(ctx); err == nil {
		t.Fatal("second Start should fail")
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := m.Stop(); err == nil {
		t.Fatal("second Stop should fail")
	}
}

func TestManagerStartRejectsBadSchedule(t *testing.T) {
	cfg := &config.Config{}
	cfg.Sync.Enabled = true
	cfg.Sync.Schedule = "not a cron"
	cfg.Platforms.Codeforces = config.PlatformConfig{Enabled: true, Timeout: time.Second, RateLimit: 1}

	m := NewManager(newMockStore(), nil, cfg)
	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	m := newTestManager(newMockStore(), nil)
	m.cfg.Sync.RetryDelay = time.Minute // force a long wait

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- m.retryWithBackoff(ctx, func() error {
			calls++
			return ErrUpstreamUnavailable
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("retryWithBackoff did not return after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", calls)
	}
}

func TestSyncAllRunsPlatformsConcurrently(t *testing.T) {
	store := newMockStore()
	start := time.Now().Add(time.Hour).UTC()

	// Each adapter waits for the other inside Fetch. The rendezvous only
	// completes when both platforms are in flight at once.
	cfReady := make(chan struct{})
	acReady := make(chan struct{})
	rendezvous := func(announce chan<- struct{}, wait <-chan struct{}) error {
		close(announce)
		select {
		case <-wait:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("peer platform never started")
		}
	}

	cf := &fakeAdapter{platform: models.PlatformCodeforces}
	cf.fetch = func(ctx context.Context) (*FetchResult, error) {
		if err := rendezvous(cfReady, acReady); err != nil {
			return nil, err
		}
		return &FetchResult{Contests: []*models.Contest{syncContest(models.PlatformCodeforces, "300", "Round 300", start)}}, nil
	}
	ac := &fakeAdapter{platform: models.PlatformAtCoder}
	ac.fetch = func(ctx context.Context) (*FetchResult, error) {
		if err := rendezvous(acReady, cfReady); err != nil {
			return nil, err
		}
		return &FetchResult{Contests: []*models.Contest{syncContest(models.PlatformAtCoder, "abc430", "ABC 430", start)}}, nil
	}

	m := newTestManager(store, nil, cf, ac)
	m.cfg.Sync.RetryAttempts = 1

	results, err := m.TriggerSync(context.Background(), false)
	if err != nil {
		t.Fatalf("TriggerSync failed: %v", err)
	}
	for platform, r := range results {
		if r.Error != "" {
			t.Errorf("%s did not overlap with its peer: %s", platform, r.Error)
		}
		if r.Synced != 1 {
			t.Errorf("%s expected 1 synced, got %+v", platform, r)
		}
	}
}

func TestForcedSyncInvalidatesFreshness(t *testing.T) {
	cache, err := OpenStalenessCache(config.CacheConfig{StalenessTTL: time.Minute})
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	store := newMockStore()
	start := time.Now().Add(time.Hour).UTC()
	adapter := &fakeAdapter{platform: models.PlatformCodeChef}
	adapter.fetch = func(ctx context.Context) (*FetchResult, error) {
		if adapter.calls == 1 {
			return &FetchResult{Contests: []*models.Contest{syncContest(models.PlatformCodeChef, "START150", "Starters 150", start)}}, nil
		}
		return nil, ErrUpstreamMalformed
	}

	m := newTestManager(store, cache, adapter)
	m.cfg.Sync.RetryAttempts = 1

	if _, err := m.SyncPlatform(context.Background(), models.PlatformCodeChef, false); err != nil {
		t.Fatal(err)
	}
	if !cache.IsFresh(models.PlatformCodeChef) {
		t.Fatal("expected platform fresh after successful sync")
	}

	// A failed forced sync must not leave the stale freshness entry behind,
	// or routine cycles would keep skipping a platform whose data the caller
	// just declared suspect.
	result, err := m.SyncPlatform(context.Background(), models.PlatformCodeChef, true)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error == "" {
		t.Fatal("expected platform-level error from forced sync")
	}
	if cache.IsFresh(models.PlatformCodeChef) {
		t.Error("expected platform stale after failed forced sync")
	}
}
