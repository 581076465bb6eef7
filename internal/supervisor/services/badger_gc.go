// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package services

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Ngyama/bgm-game-report/internal/logging"
)

// GCRunner runs one round of value log garbage collection. Satisfied by the
// detail cache store.
type GCRunner interface {
	RunGC() error
}

// BadgerGCService periodically runs the Badger value log GC. Badger does not
// garbage-collect its value log on its own; without this loop the detail
// cache directory grows without bound.
type BadgerGCService struct {
	store    GCRunner
	interval time.Duration
	name     string
}

// NewBadgerGCService creates the GC loop service.
func NewBadgerGCService(store GCRunner, interval time.Duration) *BadgerGCService {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &BadgerGCService{
		store:    store,
		interval: interval,
		name:     "badger-gc",
	}
}

// Serve implements suture.Service. badger.ErrNoRewrite means there was
// nothing to collect and is not treated as a failure.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			err := s.store.RunGC()
			switch {
			case err == nil:
				logging.Debug().Dur("elapsed", time.Since(start)).Msg("badger value log GC completed")
			case errors.Is(err, badger.ErrNoRewrite):
				// Nothing to collect this round.
			default:
				logging.Warn().Err(err).Msg("badger value log GC failed")
			}
		}
	}
}

// String implements fmt.Stringer; suture uses it in log messages.
func (s *BadgerGCService) String() string {
	return s.name
}
