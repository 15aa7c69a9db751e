// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package services

import (
	"context"
	"fmt"
)

// StartStopManager is the lifecycle shared by the background components:
// sync.Manager, notify.Scheduler and notify.Dispatcher. Start spawns the
// component's internal goroutines and returns immediately; Stop blocks
// until they have drained.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// JobService wraps a Start/Stop component as a supervised service.
//
// It adapts the Start/Stop lifecycle to suture's Serve pattern:
//  1. Calls Start(ctx) to begin the component
//  2. Waits for context cancellation
//  3. Calls Stop() for graceful shutdown
type JobService struct {
	manager StartStopManager
	name    string
}

// NewJobService creates a supervised wrapper around manager. The name
// identifies the service in supervisor logs.
func NewJobService(name string, manager StartStopManager) *JobService {
	return &JobService{manager: manager, name: name}
}

// NewSyncService wraps the platform sync manager for the jobs layer.
func NewSyncService(manager StartStopManager) *JobService {
	return NewJobService("sync-manager", manager)
}

// NewSchedulerService wraps the notification scheduler for the jobs layer.
func NewSchedulerService(manager StartStopManager) *JobService {
	return NewJobService("notification-scheduler", manager)
}

// NewDispatcherService wraps the notification dispatcher for the jobs layer.
func NewDispatcherService(manager StartStopManager) *JobService {
	return NewJobService("notification-dispatcher", manager)
}

// Serve implements suture.Service.
//
// If Start fails the error is returned immediately, causing suture to
// restart the service according to its backoff policy. On context
// cancellation the component is stopped and ctx.Err() is returned so
// suture treats the exit as intentional.
func (s *JobService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	// Stop blocks until the component's goroutines complete. A stop
	// failure still surfaces; the restart is suppressed by ctx anyway.
	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("%s stop failed: %w", s.name, err)
	}

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *JobService) String() string {
	return s.name
}
