// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/logging"
	"github.com/yksingh/codenotify/internal/metrics"
	"github.com/yksingh/codenotify/internal/models"
)

// SchedulerStore defines the store operations the scheduler needs.
type SchedulerStore interface {
	ContestsInNotificationWindow(ctx context.Context, now time.Time, window time.Duration) ([]*models.Contest, error)
	MarkContestNotified(ctx context.Context, id int64) (bool, error)
	ListActiveUsers(ctx context.Context) ([]*models.User, error)
	InsertNotification(ctx context.Context, n *models.Notification) error
	UpdateNotificationResult(ctx context.Context, id string, status models.NotificationStatus, messageID, errMsg string) error
}

// Scheduler periodically scans for contests entering the notification
// window and expands each into per-user per-channel dispatch jobs.
//
// The claim on a contest (MarkContestNotified) is atomic and one-way: under
// concurrent ticks exactly one claimer proceeds, and delivery failures never
// unmark the contest. A user is eligible when they subscribe to the
// contest's platform and their own lead time already covers the time to
// start; users with shorter lead times are simply not notified for that
// contest.
type Scheduler struct {
	store      SchedulerStore
	dispatcher *Dispatcher
	cfg        config.NotificationsConfig

	running  bool
	mu       sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup

	// now is swappable for tests.
	now func() time.Time
}

// NewScheduler creates the notification trigger scheduler.
func NewScheduler(store SchedulerStore, dispatcher *Dispatcher, cfg config.NotificationsConfig) *Scheduler {
	return &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		cfg:        cfg,
		stopChan:   make(chan struct{}),
		now:        time.Now,
	}
}

// Start begins the periodic scan loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("notification scheduler is already running")
	}
	s.running = true

	interval := s.cfg.CheckInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	logging.Info().
		Dur("check_interval", interval).
		Int("window_hours", s.cfg.WindowHours).
		Msg("Starting notification scheduler...")

	s.wg.Add(1)
	go s.loop(ctx, interval)
	return nil
}

// Stop halts the scan loop and waits for the current tick.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return fmt.Errorf("notification scheduler is not running")
	}
	s.running = false

	close(s.stopChan)
	s.wg.Wait()
	logging.Info().Msg("Notification scheduler stopped")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	// One pass right away so a restart does not wait a full interval.
	if err := s.CheckOnce(ctx); err != nil {
		logging.Error().Err(err).Msg("Notification scan failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			if err := s.CheckOnce(ctx); err != nil {
				logging.Error().Err(err).Msg("Notification scan failed")
			}
		}
	}
}

// CheckOnce runs a single scan pass. The pass aborts before claiming
// anything if either query fails, so no contest is marked without a chance
// to dispatch.
func (s *Scheduler) CheckOnce(ctx context.Context) error {
	now := s.now().UTC()
	window := time.Duration(s.cfg.WindowHours) * time.Hour

	contests, err := s.store.ContestsInNotificationWindow(ctx, now, window)
	if err != nil {
		return fmt.Errorf("scan notification window: %w", err)
	}
	if len(contests) == 0 {
		return nil
	}

	users, err := s.store.ListActiveUsers(ctx)
	if err != nil {
		return fmt.Errorf("list active users: %w", err)
	}

	for _, contest := range contests {
		claimed, err := s.store.MarkContestNotified(ctx, contest.ID)
		if err != nil {
			logging.Error().Err(err).Int64("contest_id", contest.ID).Msg("Failed to claim contest")
			continue
		}
		if !claimed {
			// Another tick got there first.
			continue
		}
		metrics.NotificationsClaimed.Inc()

		enqueued := s.dispatchContest(ctx, contest, users, now)
		logging.Info().
			Int64("contest_id", contest.ID).
			Str("contest", contest.Key().String()).
			Int("notifications", enqueued).
			Msg("Contest claimed for notification")
	}
	return nil
}

// dispatchContest creates and enqueues the notification rows for one
// claimed contest. Returns the number of jobs enqueued.
func (s *Scheduler) dispatchContest(ctx context.Context, contest *models.Contest, users []*models.User, now time.Time) int {
	timeToStart := contest.TimeToStart(now)
	enqueued := 0

	for _, user := range users {
		if !user.SubscribedTo(contest.Platform) {
			continue
		}
		if time.Duration(user.Prefs.NotifyBeforeHours)*time.Hour < timeToStart {
			continue
		}

		for _, channel := range user.EnabledChannels() {
			n := &models.Notification{
				ID:        uuid.NewString(),
				UserID:    user.ID,
				ContestID: contest.ID,
				Channel:   channel,
				Target:    user.ChannelTarget(channel),
				Status:    models.NotificationPending,
				CreatedAt: now,
			}
			if err := s.store.InsertNotification(ctx, n); err != nil {
				logging.Error().Err(err).Str("notification_id", n.ID).Msg("Failed to insert notification")
				continue
			}
			if err := s.dispatcher.Enqueue(Job{Notification: n, Contest: contest, User: user}); err != nil {
				// The contest is already claimed, so no later tick will
				// recreate this row. Mark it failed to keep it
				// redeliverable instead of stranding it pending.
				logging.Error().Err(err).Str("notification_id", n.ID).Msg("Failed to enqueue notification")
				if uerr := s.store.UpdateNotificationResult(ctx, n.ID, models.NotificationFailed, "", err.Error()); uerr != nil {
					logging.Error().Err(uerr).Str("notification_id", n.ID).Msg("Failed to record enqueue failure")
				}
				continue
			}
			enqueued++
		}
	}
	return enqueued
}
