// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

// Package enrich implements the bounded-concurrency subject detail fetcher:
// it turns a set of subject IDs into a detail map, consulting the durable
// detail store before touching the network and holding a fixed ceiling on
// in-flight API requests.
package enrich

import (
	"context"
	"sync"

	"github.com/Ngyama/bgm-game-report/internal/bangumi"
	"github.com/Ngyama/bgm-game-report/internal/cache"
	"github.com/Ngyama/bgm-game-report/internal/logging"
	"github.com/Ngyama/bgm-game-report/internal/metrics"
	"github.com/Ngyama/bgm-game-report/internal/models"
)

// DefaultConcurrency is the detail request ceiling used when none is
// configured.
const DefaultConcurrency = 10

// SubjectGetter is the slice of the Bangumi client the fetcher needs.
type SubjectGetter interface {
	GetSubject(ctx context.Context, id int) (*bangumi.SubjectPayload, error)
}

// Fetcher enriches subject IDs with detail data under a fixed concurrency
// ceiling.
type Fetcher struct {
	client      SubjectGetter
	store       *cache.DetailStore
	concurrency int
}

// NewFetcher creates a fetcher. The store may be nil, in which case every
// call goes to the network.
func NewFetcher(client SubjectGetter, store *cache.DetailStore, concurrency int) *Fetcher {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Fetcher{client: client, store: store, concurrency: concurrency}
}

// EnrichSubjects returns a detail for every unique subject ID in ids.
//
// The result is a pure function of the deduplicated ID set: a cached subject
// short-circuits the network entirely, and a failed fetch degrades to the
// default detail instead of propagating. The returned map always has one
// entry per unique ID.
//
// At most `concurrency` detail requests are in flight simultaneously; excess
// requests queue on the semaphore and are admitted as slots free up. The
// call returns only after every subject resolved (fetched, cached, or
// degraded).
func (f *Fetcher) EnrichSubjects(ctx context.Context, ids []int) map[int]models.SubjectDetail {
	results := make(map[int]models.SubjectDetail, len(ids))
	seen := make(map[int]struct{}, len(ids))

	// Resolve every cache hit before spawning workers, so the map is only
	// ever written from one goroutine at a time: hits here, misses under mu
	// below.
	missing := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if f.store != nil {
			if detail, ok := f.store.Get(id); ok {
				results[id] = detail
				continue
			}
		}
		missing = append(missing, id)
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, f.concurrency)
	)

	for _, id := range missing {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			detail := f.fetchOne(ctx, id)

			mu.Lock()
			results[id] = detail
			mu.Unlock()
		}(id)
	}

	wg.Wait()
	return results
}

// fetchOne fetches and parses one subject, degrading to the default detail
// on any failure. Successful fetches populate the store before returning.
func (f *Fetcher) fetchOne(ctx context.Context, id int) models.SubjectDetail {
	metrics.EnrichInFlight.Inc()
	defer metrics.EnrichInFlight.Dec()

	payload, err := f.client.GetSubject(ctx, id)
	if err != nil {
		metrics.EnrichDegraded.Inc()
		logging.Warn().Err(err).Int("subject_id", id).Msg("subject detail degraded to default")
		return models.DefaultSubjectDetail()
	}

	detail := bangumi.ParseSubjectDetail(payload)

	if f.store != nil {
		if err := f.store.Set(id, detail); err != nil {
			logging.Err(err).Int("subject_id", id).Msg("failed to cache subject detail")
		}
	}

	return detail
}
