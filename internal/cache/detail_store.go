// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

// Package cache provides the two caching layers of the report pipeline:
// a durable BadgerDB store memoizing subject detail fetches, and an
// in-memory TTL cache for whole assembled reports.
package cache

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/Ngyama/bgm-game-report/internal/logging"
	"github.com/Ngyama/bgm-game-report/internal/metrics"
	"github.com/Ngyama/bgm-game-report/internal/models"
)

// DetailStore is a durable key-value memoization layer for subject details.
//
// Keys carry a schema version: bumping cache.schema_version in config
// invalidates every previously stored detail without touching the database.
// An unparseable stored value is purged and reported as a miss, so cache
// corruption degrades to a refetch rather than an error.
//
// The store gives no transactional read-then-write guarantee. Two concurrent
// fills for the same uncached subject may both fetch and both write; that is
// acceptable because writes for the same key are idempotent (same key,
// equivalent value).
type DetailStore struct {
	db      *badger.DB
	version int
}

// NewDetailStore creates a detail store on top of an open Badger database.
func NewDetailStore(db *badger.DB, schemaVersion int) *DetailStore {
	return &DetailStore{db: db, version: schemaVersion}
}

// key builds the versioned cache key for a subject.
func (s *DetailStore) key(subjectID int) []byte {
	return []byte(fmt.Sprintf("detail:v%d:%d", s.version, subjectID))
}

// Get returns the cached detail for a subject, or ok=false on a miss.
// Corrupt entries are purged and counted as misses.
func (s *DetailStore) Get(subjectID int) (models.SubjectDetail, bool) {
	var detail models.SubjectDetail
	var corrupt bool

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(subjectID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &detail); err != nil {
				corrupt = true
				return err
			}
			return nil
		})
	})

	if corrupt {
		metrics.DetailCacheCorrupt.Inc()
		metrics.DetailCacheMisses.Inc()
		logging.Warn().Int("subject_id", subjectID).Msg("purging corrupt detail cache entry")
		s.purge(subjectID)
		return models.SubjectDetail{}, false
	}
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logging.Err(err).Int("subject_id", subjectID).Msg("detail cache read failed")
		}
		metrics.DetailCacheMisses.Inc()
		return models.SubjectDetail{}, false
	}

	metrics.DetailCacheHits.Inc()
	return detail, true
}

// Set stores the detail for a subject. Duplicate concurrent writes for the
// same key are safe to coalesce.
func (s *DetailStore) Set(subjectID int, detail models.SubjectDetail) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal subject detail: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(subjectID), data)
	})
	if err != nil {
		return fmt.Errorf("set subject detail: %w", err)
	}
	return nil
}

// purge removes a cache entry, ignoring not-found.
func (s *DetailStore) purge(subjectID int) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key(subjectID))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		logging.Err(err).Int("subject_id", subjectID).Msg("detail cache purge failed")
	}
}

// RunGC runs one round of the Badger value log garbage collector.
// Returns badger.ErrNoRewrite when there was nothing to collect.
func (s *DetailStore) RunGC() error {
	return s.db.RunValueLogGC(0.5)
}
