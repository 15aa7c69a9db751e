// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/logging"
	"github.com/yksingh/codenotify/internal/metrics"
	"github.com/yksingh/codenotify/internal/models"
)

// NotificationStore defines the store operations the dispatcher needs.
type NotificationStore interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
	UpdateNotificationResult(ctx context.Context, id string, status models.NotificationStatus, messageID, errMsg string) error
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	GetContestByID(ctx context.Context, id int64) (*models.Contest, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// ErrNotRedeliverable is returned when a redelivery targets a notification
// that is not in the failed state.
var ErrNotRedeliverable = errors.New("only failed notifications can be redelivered")

// Job is one pending delivery: a notification row plus the contest and user
// it refers to.
type Job struct {
	Notification *models.Notification
	Contest      *models.Contest
	User         *models.User
}

// Dispatcher runs deliveries through a bounded worker pool. Each job ends in
// exactly one terminal notification row: sent with the provider message id,
// or failed with the error detail. Transient failures are retried with
// exponential backoff inside the job; permanent ones fail immediately.
type Dispatcher struct {
	store    NotificationStore
	registry *Registry
	cfg      config.NotificationsConfig

	queue    chan Job
	running  bool
	mu       sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher over the given channel registry.
func NewDispatcher(store NotificationStore, registry *Registry, cfg config.NotificationsConfig) *Dispatcher {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		store:    store,
		registry: registry,
		cfg:      cfg,
		queue:    make(chan Job, queueSize),
		stopChan: make(chan struct{}),
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return fmt.Errorf("dispatcher is already running")
	}
	d.running = true

	workers := d.cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	logging.Info().Int("workers", workers).Int("queue_size", cap(d.queue)).Msg("Starting notification dispatcher...")

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	return nil
}

// Stop waits for in-flight deliveries, then marks any jobs still queued as
// failed. Their contests are already claimed, so no scheduler pass would
// recreate the rows; the failed state keeps them reachable for redelivery.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return fmt.Errorf("dispatcher is not running")
	}
	d.running = false

	close(d.stopChan)
	d.wg.Wait()
	d.failQueued()
	logging.Info().Msg("Notification dispatcher stopped")
	return nil
}

// failQueued records every job left in the queue as failed. Called after the
// workers have exited; the shutdown context is gone, so a fresh one is used.
func (d *Dispatcher) failQueued() {
	ctx := context.Background()
	for {
		select {
		case job := <-d.queue:
			if err := d.store.UpdateNotificationResult(ctx, job.Notification.ID, models.NotificationFailed, "", "dispatcher stopped before delivery"); err != nil {
				logging.Error().Err(err).Str("notification_id", job.Notification.ID).Msg("Failed to record undelivered notification")
				continue
			}
			logging.Warn().
				Str("notification_id", job.Notification.ID).
				Str("channel", string(job.Notification.Channel)).
				Msg("Notification not delivered before shutdown, marked failed")
		default:
			metrics.NotificationQueueDepth.Set(0)
			return
		}
	}
}

// Enqueue adds a job to the dispatch queue. It fails fast when the queue is
// full rather than blocking the scheduler tick.
func (d *Dispatcher) Enqueue(job Job) error {
	select {
	case d.queue <- job:
		metrics.NotificationQueueDepth.Set(float64(len(d.queue)))
		return nil
	default:
		return fmt.Errorf("notification queue is full (%d)", cap(d.queue))
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopChan:
			return
		case job := <-d.queue:
			metrics.NotificationQueueDepth.Set(float64(len(d.queue)))
			d.process(ctx, job)
		}
	}
}

// process runs one delivery to its terminal state and records it.
func (d *Dispatcher) process(ctx context.Context, job Job) {
	start := time.Now()
	result := d.deliver(ctx, job)
	duration := time.Since(start)

	channel := string(job.Notification.Channel)
	if result.Success {
		metrics.RecordNotification(channel, "sent", duration)
		if err := d.store.UpdateNotificationResult(ctx, job.Notification.ID, models.NotificationSent, result.MessageID, ""); err != nil {
			logging.Error().Err(err).Str("notification_id", job.Notification.ID).Msg("Failed to record sent notification")
		}
		logging.Info().
			Str("notification_id", job.Notification.ID).
			Str("channel", channel).
			Int64("contest_id", job.Notification.ContestID).
			Int64("user_id", job.Notification.UserID).
			Msg("Notification delivered")
		return
	}

	metrics.RecordNotification(channel, "failed", duration)
	if err := d.store.UpdateNotificationResult(ctx, job.Notification.ID, models.NotificationFailed, "", result.ErrorMessage); err != nil {
		logging.Error().Err(err).Str("notification_id", job.Notification.ID).Msg("Failed to record failed notification")
	}
	logging.Warn().
		Str("notification_id", job.Notification.ID).
		Str("channel", channel).
		Str("error_code", result.ErrorCode).
		Str("error", result.ErrorMessage).
		Msg("Notification delivery failed")
}

// deliver attempts the delivery with retries on transient failures.
func (d *Dispatcher) deliver(ctx context.Context, job Job) *DeliveryResult {
	ch, ok := d.registry.Get(job.Notification.Channel)
	if !ok {
		return &DeliveryResult{
			ErrorMessage: fmt.Sprintf("channel %s is not configured", job.Notification.Channel),
			ErrorCode:    ErrorCodeInvalidConfig,
		}
	}

	params := &SendParams{
		Notification: job.Notification,
		Contest:      job.Contest,
		User:         job.User,
	}

	attempts := d.cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := d.cfg.RetryDelay

	var result *DeliveryResult
	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return &DeliveryResult{ErrorMessage: ctx.Err().Error(), ErrorCode: ErrorCodeTimeout}
		}

		var err error
		result, err = ch.Send(ctx, params)
		if err != nil {
			result = &DeliveryResult{ErrorMessage: err.Error(), ErrorCode: ErrorCodeUnknown}
		}
		if result.Success || !result.IsTransient {
			return result
		}

		if attempt < attempts-1 {
			logging.Warn().
				Str("notification_id", job.Notification.ID).
				Str("channel", string(job.Notification.Channel)).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("Transient delivery failure, retrying")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return result
			}
			delay *= 2
		}
	}
	return result
}

// Redeliver re-sends a single failed notification synchronously. The row
// must be in the failed state; pending and sent rows are refused.
func (d *Dispatcher) Redeliver(ctx context.Context, notificationID string) (*models.Notification, error) {
	n, err := d.store.GetNotification(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.Status != models.NotificationFailed {
		return nil, fmt.Errorf("notification %s is %s: %w", notificationID, n.Status, ErrNotRedeliverable)
	}

	contest, err := d.store.GetContestByID(ctx, n.ContestID)
	if err != nil {
		return nil, fmt.Errorf("load contest %d: %w", n.ContestID, err)
	}
	user, err := d.store.GetUserByID(ctx, n.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", n.UserID, err)
	}

	d.process(ctx, Job{Notification: n, Contest: contest, User: user})
	return d.store.GetNotification(ctx, notificationID)
}
