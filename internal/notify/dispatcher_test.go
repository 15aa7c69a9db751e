// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package notify

import (
	"context"
	"fmt"
	stdsync "sync"
	"testing"
	"time"

	"github.com/yksingh/codenotify/internal/config"
	"github.com/yksingh/codenotify/internal/models"
)

// memStore implements NotificationStore and SchedulerStore in memory.
type memStore struct {
	mu            stdsync.Mutex
	notifications map[string]*models.Notification
	contests      map[int64]*models.Contest
	users         map[int64]*models.User
	windowErr     error
	claimed       map[int64]bool
}

func newMemStore() *memStore {
	return &memStore{
		notifications: make(map[string]*models.Notification),
		contests:      make(map[int64]*models.Contest),
		users:         make(map[int64]*models.User),
		claimed:       make(map[int64]bool),
	}
}

func (s *memStore) InsertNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

func (s *memStore) UpdateNotificationResult(_ context.Context, id string, status models.NotificationStatus, messageID, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return fmt.Errorf("notification %s not found", id)
	}
	now := time.Now().UTC()
	n.Status = status
	n.MessageID = messageID
	n.Error = errMsg
	n.AttemptedAt = &now
	return nil
}

func (s *memStore) GetNotification(_ context.Context, id string) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil, fmt.Errorf("notification %s not found", id)
	}
	cp := *n
	return &cp, nil
}

func (s *memStore) GetContestByID(_ context.Context, id int64) (*models.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contests[id]
	if !ok {
		return nil, fmt.Errorf("contest %d not found", id)
	}
	return c, nil
}

func (s *memStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d not found", id)
	}
	return u, nil
}

func (s *memStore) ContestsInNotificationWindow(_ context.Context, now time.Time, window time.Duration) ([]*models.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.windowErr != nil {
		return nil, s.windowErr
	}
	var out []*models.Contest
	for _, c := range s.contests {
		if s.claimed[c.ID] {
			continue
		}
		ts := c.TimeToStart(now)
		if ts > 0 && ts <= window {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) MarkContestNotified(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed[id] {
		return false, nil
	}
	s.claimed[id] = true
	return true, nil
}

func (s *memStore) ListActiveUsers(_ context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.User
	for _, u := range s.users {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *memStore) notificationsByStatus(status models.NotificationStatus) []*models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Notification
	for _, n := range s.notifications {
		if n.Status == status {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out
}

// fakeChannel returns scripted results and counts calls.
type fakeChannel struct {
	mu      stdsync.Mutex
	name    models.ChannelName
	results []*DeliveryResult
	calls   int
}

func (f *fakeChannel) Name() models.ChannelName { return f.name }

func (f *fakeChannel) Send(_ context.Context, _ *SendParams) (*DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i], nil
}

func (f *fakeChannel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testDispatcherConfig() config.NotificationsConfig {
	return config.NotificationsConfig{
		Enabled:       true,
		WindowHours:   24,
		CheckInterval: time.Minute,
		Workers:       2,
		QueueSize:     16,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}
}

// waitForStatus polls until the notification reaches the status or times out.
func waitForStatus(t *testing.T, store *memStore, id string, status models.NotificationStatus) *models.Notification {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err := store.GetNotification(context.Background(), id)
		if err == nil && n.Status == status {
			return n
		}
		time.Sleep(5 * time.Millisecond)
	}
	n, _ := store.GetNotification(context.Background(), id)
	t.Fatalf("notification %s never reached %s, last state %+v", id, status, n)
	return nil
}

func seedJob(store *memStore, channel models.ChannelName) Job {
	c := notifyContest()
	u := notifyUser()
	store.contests[c.ID] = c
	store.users[u.ID] = u

	n := &models.Notification{
		ID:        "job-" + string(channel),
		UserID:    u.ID,
		ContestID: c.ID,
		Channel:   channel,
		Target:    u.ChannelTarget(channel),
		Status:    models.NotificationPending,
		CreatedAt: time.Now().UTC(),
	}
	store.notifications[n.ID] = n
	return Job{Notification: n, Contest: c, User: u}
}

func TestDispatcherDeliversAndRecords(t *testing.T) {
	store := newMemStore()
	ch := &fakeChannel{
		name:    models.ChannelEmail,
		results: []*DeliveryResult{{Success: true, MessageID: "msg-1"}},
	}
	registry := NewRegistry()
	registry.Register(ch)

	d := NewDispatcher(store, registry, testDispatcherConfig())
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = d.Stop() }()

	job := seedJob(store, models.ChannelEmail)
	if err := d.Enqueue(job); err != nil {
		t.Fatal(err)
	}

	n := waitForStatus(t, store, job.Notification.ID, models.NotificationSent)
	if n.MessageID != "msg-1" {
		t.Errorf("expected message id recorded, got %q", n.MessageID)
	}
	if n.AttemptedAt == nil {
		t.Error("expected attempted_at to be set")
	}
}

func TestDispatcherRetriesTransientFailures(t *testing.T) {
	store := newMemStore()
	ch := &fakeChannel{
		name: models.ChannelWebhook,
		results: []*DeliveryResult{
			{IsTransient: true, ErrorCode: ErrorCodeServerError, ErrorMessage: "status 503"},
			{IsTransient: true, ErrorCode: ErrorCodeServerError, ErrorMessage: "status 503"},
			{Success: true},
		},
	}
	registry := NewRegistry()
	registry.Register(ch)

	d := NewDispatcher(store, registry, testDispatcherConfig())
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = d.Stop() }()

	job := seedJob(store, models.ChannelWebhook)
	if err := d.Enqueue(job); err != nil {
		t.Fatal(err)
	}

	waitForStatus(t, store, job.Notification.ID, models.NotificationSent)
	if got := ch.callCount(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestDispatcherPermanentFailureNotRetried(t *testing.T) {
	store := newMemStore()
	ch := &fakeChannel{
		name:    models.ChannelEmail,
		results: []*DeliveryResult{{ErrorCode: ErrorCodeAuthFailed, ErrorMessage: "bad credentials"}},
	}
	registry := NewRegistry()
	registry.Register(ch)

	d := NewDispatcher(store, registry, testDispatcherConfig())
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = d.Stop() }()

	job := seedJob(store, models.ChannelEmail)
	if err := d.Enqueue(job); err != nil {
		t.Fatal(err)
	}

	n := waitForStatus(t, store, job.Notification.ID, models.NotificationFailed)
	if got := ch.callCount(); got != 1 {
		t.Errorf("permanent failure should not be retried, got %d attempts", got)
	}
	if n.Error != "bad credentials" {
		t.Errorf("expected error detail recorded, got %q", n.Error)
	}
}

func TestDispatcherRetryBudgetExhausted(t *testing.T) {
	store := newMemStore()
	ch := &fakeChannel{
		name:    models.ChannelWebhook,
		results: []*DeliveryResult{{IsTransient: true, ErrorCode: ErrorCodeTimeout, ErrorMessage: "timeout"}},
	}
	registry := NewRegistry()
	registry.Register(ch)

	d := NewDispatcher(store, registry, testDispatcherConfig())
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = d.Stop() }()

	job := seedJob(store, models.ChannelWebhook)
	if err := d.Enqueue(job); err != nil {
		t.Fatal(err)
	}

	waitForStatus(t, store, job.Notification.ID, models.NotificationFailed)
	if got := ch.callCount(); got != 3 {
		t.Errorf("expected retry budget of 3, got %d attempts", got)
	}
}

func TestDispatcherUnknownChannel(t *testing.T) {
	store := newMemStore()
	d := NewDispatcher(store, NewRegistry(), testDispatcherConfig())
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = d.Stop() }()

	job := seedJob(store, models.ChannelWhatsApp)
	if err := d.Enqueue(job); err != nil {
		t.Fatal(err)
	}

	n := waitForStatus(t, store, job.Notification.ID, models.NotificationFailed)
	if n.Error == "" {
		t.Error("expected error detail for unconfigured channel")
	}
}

func TestEnqueueFailsWhenQueueFull(t *testing.T) {
	store := newMemStore()
	cfg := testDispatcherConfig()
	cfg.QueueSize = 1

	// Not started: nothing drains the queue.
	d := NewDispatcher(store, NewRegistry(), cfg)

	job := seedJob(store, models.ChannelEmail)
	if err := d.Enqueue(job); err != nil {
		t.Fatal(err)
	}
	if err := d.Enqueue(job); err == nil {
		t.Fatal("expected error when queue is full")
	}
}

func TestRedeliverFailedNotification(t *testing.T) {
	store := newMemStore()
	ch := &fakeChannel{
		name:    models.ChannelEmail,
		results: []*DeliveryResult{{Success: true, MessageID: "msg-redeliver"}},
	}
	registry := NewRegistry()
	registry.Register(ch)

	d := NewDispatcher(store, registry, testDispatcherConfig())

	job := seedJob(store, models.ChannelEmail)
	job.Notification.Status = models.NotificationFailed
	job.Notification.Error = "smtp down"
	store.notifications[job.Notification.ID] = job.Notification

	n, err := d.Redeliver(context.Background(), job.Notification.ID)
	if err != nil {
		t.Fatalf("Redeliver failed: %v", err)
	}
	if n.Status != models.NotificationSent {
		t.Errorf("expected sent after redelivery, got %s", n.Status)
	}
	if n.MessageID != "msg-redeliver" {
		t.Errorf("expected message id, got %q", n.MessageID)
	}

	// A sent row cannot be redelivered again.
	if _, err := d.Redeliver(context.Background(), job.Notification.ID); err == nil {
		t.Fatal("expected error redelivering a sent notification")
	}
}

func TestRedeliverUnknownNotification(t *testing.T) {
	d := NewDispatcher(newMemStore(), NewRegistry(), testDispatcherConfig())
	if _, err := d.Redeliver(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown notification")
	}
}

// blockingChannel holds every Send until the gate is closed.
type blockingChannel struct {
	name    models.ChannelName
	gate    chan struct{}
	started chan struct{}
}

func (b *blockingChannel) Name() models.ChannelName { return b.name }

func (b *blockingChannel) Send(_ context.Context, _ *SendParams) (*DeliveryResult, error) {
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-b.gate
	return &DeliveryResult{Success: true, MessageID: "msg-late"}, nil
}

func TestStopLeavesNoPendingRows(t *testing.T) {
	store := newMemStore()
	ch := &blockingChannel{
		name:    models.ChannelEmail,
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	registry := NewRegistry()
	registry.Register(ch)

	cfg := testDispatcherConfig()
	cfg.Workers = 1
	cfg.QueueSize = 8
	d := NewDispatcher(store, registry, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	c := notifyContest()
	u := notifyUser()
	store.contests[c.ID] = c
	store.users[u.ID] = u
	for i := 0; i < 3; i++ {
		n := &models.Notification{
			ID:        fmt.Sprintf("shutdown-%d", i),
			UserID:    u.ID,
			ContestID: c.ID,
			Channel:   models.ChannelEmail,
			Target:    u.Email,
			Status:    models.NotificationPending,
			CreatedAt: time.Now().UTC(),
		}
		store.notifications[n.ID] = n
		if err := d.Enqueue(Job{Notification: n, Contest: c, User: u}); err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			// Make sure the single worker is busy with the first job
			// before the rest pile up in the queue.
			select {
			case <-ch.started:
			case <-time.After(time.Second):
				t.Fatal("first delivery never started")
			}
		}
	}

	stopDone := make(chan error, 1)
	go func() { stopDone <- d.Stop() }()
	close(ch.gate)

	select {
	case err := <-stopDone:
		if err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	if pending := store.notificationsByStatus(models.NotificationPending); len(pending) != 0 {
		t.Fatalf("no row may stay pending after Stop, got %d", len(pending))
	}
	sent := store.notificationsByStatus(models.NotificationSent)
	failed := store.notificationsByStatus(models.NotificationFailed)
	if len(sent)+len(failed) != 3 {
		t.Fatalf("every row must end terminal, got %d sent, %d failed", len(sent), len(failed))
	}
	if first, _ := store.GetNotification(context.Background(), "shutdown-0"); first.Status != models.NotificationSent {
		t.Errorf("in-flight delivery should finish, got %s", first.Status)
	}
}

func TestUndeliveredJobsBecomeRedeliverable(t *testing.T) {
	store := newMemStore()
	ch := &fakeChannel{
		name:    models.ChannelEmail,
		results: []*DeliveryResult{{Success: true, MessageID: "msg-after-restart"}},
	}
	registry := NewRegistry()
	registry.Register(ch)

	// Not started: the job stays in the queue.
	d := NewDispatcher(store, registry, testDispatcherConfig())
	job := seedJob(store, models.ChannelEmail)
	if err := d.Enqueue(job); err != nil {
		t.Fatal(err)
	}

	d.failQueued()

	n, err := store.GetNotification(context.Background(), job.Notification.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n.Status != models.NotificationFailed {
		t.Fatalf("undelivered job should be failed, got %s", n.Status)
	}
	if n.Error == "" {
		t.Error("failed row should say why it was never delivered")
	}

	n, err = d.Redeliver(context.Background(), job.Notification.ID)
	if err != nil {
		t.Fatalf("Redeliver refused an undelivered row: %v", err)
	}
	if n.Status != models.NotificationSent {
		t.Errorf("expected sent after redelivery, got %s", n.Status)
	}
}
