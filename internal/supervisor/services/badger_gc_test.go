// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type fakeGCRunner struct {
	runs atomic.Int32
	err  error
}

func (f *fakeGCRunner) RunGC() error {
	f.runs.Add(1)
	return f.err
}

func TestBadgerGCServiceRunsPeriodically(t *testing.T) {
	runner := &fakeGCRunner{}
	svc := NewBadgerGCService(runner, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Serve() error = %v", err)
	}
	if runner.runs.Load() < 2 {
		t.Fatalf("RunGC ran %d times, want >= 2", runner.runs.Load())
	}
}

func TestBadgerGCServiceTreatsNoRewriteAsNormal(t *testing.T) {
	runner := &fakeGCRunner{err: badger.ErrNoRewrite}
	svc := NewBadgerGCService(runner, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()

	// The loop must keep running through ErrNoRewrite rounds.
	_ = svc.Serve(ctx)
	if runner.runs.Load() < 2 {
		t.Fatalf("RunGC ran %d times, want >= 2", runner.runs.Load())
	}
}

func TestBadgerGCServiceDefaultInterval(t *testing.T) {
	svc := NewBadgerGCService(&fakeGCRunner{}, 0)
	if svc.interval != 30*time.Minute {
		t.Fatalf("default interval = %v", svc.interval)
	}
	if svc.String() != "badger-gc" {
		t.Fatalf("String() = %q", svc.String())
	}
}
