// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type countingService struct {
	serves atomic.Int32
}

func (s *countingService) Serve(ctx context.Context) error {
	s.serves.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return "counting-service" }

func TestTreeServesAndStopsChildren(t *testing.T) {
	tree := NewTree(slog.Default(), DefaultTreeConfig())

	apiSvc := &countingService{}
	gcSvc := &countingService{}
	tree.AddAPIService(apiSvc)
	tree.AddMaintenanceService(gcSvc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for apiSvc.serves.Load() == 0 || gcSvc.serves.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("services did not start")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("tree stopped with error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancellation")
	}
}

func TestTreeConfigDefaults(t *testing.T) {
	tree := NewTree(slog.Default(), TreeConfig{})
	if tree.config.FailureThreshold != 5.0 {
		t.Fatalf("FailureThreshold = %v", tree.config.FailureThreshold)
	}
	if tree.config.ShutdownTimeout != 10*time.Second {
		t.Fatalf("ShutdownTimeout = %v", tree.config.ShutdownTimeout)
	}
}
