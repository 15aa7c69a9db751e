// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

/*
manager.go - Sync Manager Lifecycle and Orchestration

The manager owns the periodic contest synchronization: it drives one adapter
per enabled platform, reconciles fetched contests against the store, and runs
the retention cleanup.

Lifecycle Methods:
  - NewManager(): Initialize manager with configuration and dependencies
  - Start(): Begin the cron-driven sync and cleanup loops
  - Stop(): Gracefully shut down and wait for in-flight work
  - TriggerSync(): Manual sync execution (rejects concurrent runs)
  - SyncPlatform(): Sync a single platform, optionally bypassing freshness

Thread Safety:
  - syncMu: Prevents concurrent sync execution
  - mu: Protects shared state (running, lastSync, lastResults)
  - Both loops use the shared WaitGroup for coordinated shutdown
*/

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/database"
	"github.com/yksingh/codenotify/internal/logging"
	"github.com/yksingh/codenotify/internal/metrics"
	"github.com/yksingh/codenotify/internal/models"
	"github.com/yksingh/codenotify/internal/schedule"
)

// ContestStore defines the store operations the sync manager needs.
type ContestStore interface {
	GetContestByKey(ctx context.Context, platform models.Platform, platformID string) (*models.Contest, error)
	InsertContest(ctx context.Context, c *models.Contest) (int64, error)
	UpdateContestTracked(ctx context.Context, c *models.Contest) error
	DeactivateMissingContests(ctx context.Context, platform models.Platform, seen []string) (int64, error)
	RefreshContestPhases(ctx context.Context, now time.Time) (int64, error)
	CleanupFinishedContests(ctx context.Context, cutoff time.Time) (int64, error)
}

// Manager orchestrates contest synchronization from all enabled platforms.
type Manager struct {
	store    ContestStore
	adapters map[models.Platform]Adapter
	cache    *StalenessCache
	cfg      *config.Config

	lastSync    time.Time
	lastResults map[models.Platform]models.SyncResult
	running     bool
	mu          sync.RWMutex
	syncMu      sync.Mutex // Protects concurrent sync execution
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// NewManager creates a sync manager with one circuit-breaker-wrapped adapter
// per enabled platform. The staleness cache may be nil, in which case every
// sync fetches.
func NewManager(store ContestStore, cache *StalenessCache, cfg *config.Config) *Manager {
	m := &Manager{
		store:       store,
		cache:       cache,
		cfg:         cfg,
		adapters:    make(map[models.Platform]Adapter),
		lastResults: make(map[models.Platform]models.SyncResult),
		stopChan:    make(chan struct{}),
	}

	ua := cfg.Platforms.UserAgent
	if cfg.Platforms.Codeforces.Enabled {
		m.register(NewCodeforcesAdapter(cfg.Platforms.Codeforces, ua))
	}
	if cfg.Platforms.LeetCode.Enabled {
		m.register(NewLeetCodeAdapter(cfg.Platforms.LeetCode, ua))
	}
	if cfg.Platforms.CodeChef.Enabled {
		m.register(NewCodeChefAdapter(cfg.Platforms.CodeChef, ua))
	}
	if cfg.Platforms.AtCoder.Enabled {
		m.register(NewAtCoderAdapter(cfg.Platforms.AtCoder, ua))
	}

	logging.Info().
		Bool("enabled", cfg.Sync.Enabled).
		Str("schedule", cfg.Sync.Schedule).
		Int("platforms", len(m.adapters)).
		Int("retry_attempts", cfg.Sync.RetryAttempts).
		Msg("Sync manager config loaded")

	return m
}

func (m *Manager) register(a Adapter) {
	m.adapters[a.Platform()] = withBreaker(a)
}

// Platforms returns the enabled platforms in no particular order.
func (m *Manager) Platforms() []models.Platform {
	out := make([]models.Platform, 0, len(m.adapters))
	for p := range m.adapters {
		out = append(out, p)
	}
	return out
}

// Start begins the cron-driven sync and cleanup loops.
func (m *Manager) Start(ctx context.Context) error {
	var syncCron, cleanupCron *schedule.Cron
	var err error

	if m.cfg.Sync.Enabled && len(m.adapters) > 0 {
		if syncCron, err = schedule.ParseCron(m.cfg.Sync.Schedule); err != nil {
			return fmt.Errorf("sync schedule: %w", err)
		}
	}
	if m.cfg.Sync.CleanupEnabled {
		if cleanupCron, err = schedule.ParseCron(m.cfg.Sync.CleanupSchedule); err != nil {
			return fmt.Errorf("cleanup schedule: %w", err)
		}
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is already running")
	}
	m.running = true
	m.mu.Unlock()

	logging.Info().Msg("Starting sync manager...")

	if syncCron != nil {
		m.wg.Add(2)

		// Initial sync runs in the background so startup is not blocked.
		go func() {
			defer m.wg.Done()
			m.syncMu.Lock()
			defer m.syncMu.Unlock()
			m.syncAllLocked(ctx, false)
		}()

		go m.syncLoop(ctx, syncCron)
	} else {
		logging.Info().Msg("Periodic sync disabled")
	}

	if cleanupCron != nil {
		m.wg.Add(1)
		go m.cleanupLoop(ctx, cleanupCron)
	}

	return nil
}

// Stop gracefully stops the synchronization loops.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is not running")
	}
	m.running = false
	m.mu.Unlock()

	logging.Info().Msg("Stopping sync manager...")
	close(m.stopChan)
	m.wg.Wait()
	logging.Info().Msg("Sync manager stopped")

	return nil
}

// syncLoop fires a full sync at each cron tick.
func (m *Manager) syncLoop(ctx context.Context, cron *schedule.Cron) {
	defer m.wg.Done()

	for {
		next := cron.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-m.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			m.syncMu.Lock()
			m.syncAllLocked(ctx, false)
			m.syncMu.Unlock()
		}
	}
}

// cleanupLoop removes old finished contests at each cron tick.
func (m *Manager) cleanupLoop(ctx context.Context, cron *schedule.Cron) {
	defer m.wg.Done()

	for {
		next := cron.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-m.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			if _, err := m.RunCleanup(ctx); err != nil {
				logging.Error().Err(err).Msg("Cleanup failed")
			}
		}
	}
}

// TriggerSync runs a full sync of all platforms on demand. It returns
// ErrSyncInProgress when another sync is still running rather than queueing
// behind it.
func (m *Manager) TriggerSync(ctx context.Context, force bool) (map[models.Platform]models.SyncResult, error) {
	if !m.syncMu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer m.syncMu.Unlock()

	return m.syncAllLocked(ctx, force), nil
}

// syncAllLocked syncs every enabled platform, one goroutine per platform.
// Caller holds syncMu. A slow or failing platform never blocks the others;
// store writes are per-record atomic, so concurrent platforms do not
// interfere.
func (m *Manager) syncAllLocked(ctx context.Context, force bool) map[models.Platform]models.SyncResult {
	results := make(map[models.Platform]models.SyncResult, len(m.adapters))

	var (
		wg        sync.WaitGroup
		resultsMu sync.Mutex
	)
	for platform := range m.adapters {
		wg.Add(1)
		go func(p models.Platform) {
			defer wg.Done()
			r := m.syncPlatformLocked(ctx, p, force)
			resultsMu.Lock()
			results[p] = r
			resultsMu.Unlock()
		}(platform)
	}
	wg.Wait()

	m.mu.Lock()
	m.lastSync = time.Now().UTC()
	for p, r := range results {
		m.lastResults[p] = r
	}
	m.mu.Unlock()

	return results
}

// SyncPlatform syncs a single platform on demand. Force bypasses the
// staleness cache.
func (m *Manager) SyncPlatform(ctx context.Context, platform models.Platform, force bool) (models.SyncResult, error) {
	if _, ok := m.adapters[platform]; !ok {
		return models.SyncResult{}, fmt.Errorf("%w: %s", ErrPlatformNotEnabled, platform)
	}
	if !m.syncMu.TryLock() {
		return models.SyncResult{}, ErrSyncInProgress
	}
	defer m.syncMu.Unlock()

	result := m.syncPlatformLocked(ctx, platform, force)

	m.mu.Lock()
	m.lastSync = time.Now().UTC()
	m.lastResults[platform] = result
	m.mu.Unlock()

	return result, nil
}

// syncPlatformLocked fetches and reconciles one platform. Caller holds syncMu.
func (m *Manager) syncPlatformLocked(ctx context.Context, platform models.Platform, force bool) models.SyncResult {
	adapter := m.adapters[platform]
	name := string(platform)

	if !force && m.cache != nil && m.cache.IsFresh(platform) {
		metrics.SyncSkippedFresh.WithLabelValues(name).Inc()
		logging.Debug().Str("platform", name).Msg("Skipping sync, data still fresh")
		return models.SyncResult{}
	}
	if force && m.cache != nil {
		// A forced sync means the caller distrusts the stored data. Drop
		// the freshness entry up front so a failed forced fetch leaves
		// the platform stale for the next routine cycle.
		if err := m.cache.Invalidate(platform); err != nil {
			logging.Warn().Err(err).Str("platform", name).Msg("Failed to invalidate sync freshness")
		}
	}

	start := time.Now()

	var fetched *FetchResult
	err := m.retryWithBackoff(ctx, func() error {
		var ferr error
		fetched, ferr = adapter.Fetch(ctx)
		return ferr
	})
	if err != nil {
		errType := "unavailable"
		if errors.Is(err, ErrUpstreamMalformed) {
			errType = "malformed"
		}
		metrics.SyncErrors.WithLabelValues(name, errType).Inc()
		logging.Error().Err(err).Str("platform", name).Msg("Platform sync failed")
		return models.SyncResult{Error: err.Error()}
	}

	result := m.reconcile(ctx, platform, fetched)

	if _, err := m.store.RefreshContestPhases(ctx, time.Now().UTC()); err != nil {
		logging.Error().Err(err).Str("platform", name).Msg("Phase refresh failed")
	}

	if m.cache != nil {
		if err := m.cache.MarkSynced(platform, time.Now().UTC()); err != nil {
			logging.Warn().Err(err).Str("platform", name).Msg("Failed to record sync freshness")
		}
	}

	duration := time.Since(start)
	metrics.RecordSyncOutcome(name, result.Synced, result.Updated, result.Failed, duration)
	logging.Info().
		Str("platform", name).
		Int("synced", result.Synced).
		Int("updated", result.Updated).
		Int("failed", result.Failed).
		Dur("duration", duration).
		Msg("Platform sync completed")

	return result
}

// reconcile applies one platform's fetched contests to the store. New keys
// insert, changed tracked fields update, identical records are skipped.
// Contests the source stopped reporting before their start are deactivated.
func (m *Manager) reconcile(ctx context.Context, platform models.Platform, fetched *FetchResult) models.SyncResult {
	result := models.SyncResult{Failed: fetched.Dropped}
	seen := make([]string, 0, len(fetched.Contests))

	for _, c := range fetched.Contests {
		seen = append(seen, c.PlatformID)

		existing, err := m.store.GetContestByKey(ctx, c.Platform, c.PlatformID)
		switch {
		case errors.Is(err, database.ErrNotFound):
			if _, err := m.store.InsertContest(ctx, c); err != nil {
				result.Failed++
				metrics.SyncErrors.WithLabelValues(string(platform), "database").Inc()
				logging.Error().Err(err).Str("contest", c.Key().String()).Msg("Insert failed")
				continue
			}
			result.Synced++
		case err != nil:
			result.Failed++
			metrics.SyncErrors.WithLabelValues(string(platform), "database").Inc()
			logging.Error().Err(err).Str("contest", c.Key().String()).Msg("Lookup failed")
		case !models.TrackedFieldsEqual(existing, c):
			c.ID = existing.ID
			if err := m.store.UpdateContestTracked(ctx, c); err != nil {
				result.Failed++
				metrics.SyncErrors.WithLabelValues(string(platform), "database").Inc()
				logging.Error().Err(err).Str("contest", c.Key().String()).Msg("Update failed")
				continue
			}
			result.Updated++
		}
	}

	deactivated, err := m.store.DeactivateMissingContests(ctx, platform, seen)
	if err != nil {
		metrics.SyncErrors.WithLabelValues(string(platform), "database").Inc()
		logging.Error().Err(err).Str("platform", string(platform)).Msg("Deactivation failed")
	} else if deactivated > 0 {
		logging.Info().Str("platform", string(platform)).Int64("count", deactivated).Msg("Deactivated vanished contests")
	}

	return result
}

// RunCleanup deletes finished contests older than the retention window.
// Idempotent: a second run right after the first deletes nothing.
func (m *Manager) RunCleanup(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -m.cfg.Sync.CleanupDays)
	deleted, err := m.store.CleanupFinishedContests(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup finished contests: %w", err)
	}
	logging.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Retention cleanup completed")
	return deleted, nil
}

// LastSyncTime returns the timestamp of the last completed sync.
func (m *Manager) LastSyncTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

// LastResults returns a copy of the most recent per-platform sync results.
func (m *Manager) LastResults() map[models.Platform]models.SyncResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[models.Platform]models.SyncResult, len(m.lastResults))
	for p, r := range m.lastResults {
		out[p] = r
	}
	return out
}
