// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockManager is a test double for StartStopManager.
type mockManager struct {
	startErr   error
	stopErr    error
	startCount atomic.Int32
	stopCount  atomic.Int32
}

func (m *mockManager) Start(ctx context.Context) error {
	m.startCount.Add(1)
	return m.startErr
}

func (m *mockManager) Stop() error {
	m.stopCount.Add(1)
	return m.stopErr
}

func TestJobService_Interface(t *testing.T) {
	var _ suture.Service = (*JobService)(nil)
}

func TestJobServiceNames(t *testing.T) {
	m := &mockManager{}
	tests := []struct {
		svc  *JobService
		want string
	}{
		{NewSyncService(m), "sync-manager"},
		{NewSchedulerService(m), "notification-scheduler"},
		{NewDispatcherService(m), "notification-dispatcher"},
		{NewJobService("cleanup", m), "cleanup"},
	}
	for _, tt := range tests {
		if got := tt.svc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestJobService_Serve(t *testing.T) {
	t.Run("start then stop on cancellation", func(t *testing.T) {
		m := &mockManager{}
		svc := NewSyncService(m)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			errCh <- svc.Serve(ctx)
		}()

		// Give Serve a moment to call Start before canceling
		deadline := time.After(time.Second)
		for m.startCount.Load() == 0 {
			select {
			case <-deadline:
				t.Fatal("Start was not called")
			default:
				time.Sleep(time.Millisecond)
			}
		}
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve error = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after cancellation")
		}

		if m.stopCount.Load() != 1 {
			t.Errorf("Stop calls = %d, want 1", m.stopCount.Load())
		}
	})

	t.Run("start failure returns immediately", func(t *testing.T) {
		startErr := errors.New("database unavailable")
		m := &mockManager{startErr: startErr}
		svc := NewSchedulerService(m)

		err := svc.Serve(context.Background())
		if !errors.Is(err, startErr) {
			t.Errorf("Serve error = %v, want %v", err, startErr)
		}
		if m.stopCount.Load() != 0 {
			t.Error("Stop should not be called when Start fails")
		}
	})

	t.Run("stop failure surfaces", func(t *testing.T) {
		stopErr := errors.New("drain timeout")
		m := &mockManager{stopErr: stopErr}
		svc := NewDispatcherService(m)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			errCh <- svc.Serve(ctx)
		}()
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, stopErr) {
				t.Errorf("Serve error = %v, want %v", err, stopErr)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return")
		}
	})
}
