// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package cache

import (
	"reflect"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/Ngyama/bgm-game-report/internal/models"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()

	opts := badger.DefaultOptions(t.TempDir()).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDetailStoreRoundTrip(t *testing.T) {
	store := NewDetailStore(openTestDB(t), 1)

	detail := models.SubjectDetail{
		Tags:       []string{"Galgame", "恋爱"},
		Platform:   "Windows",
		Developers: []string{"Key"},
		Scenarists: []string{"麻枝准"},
	}
	if err := store.Set(8, detail); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := store.Get(8)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !reflect.DeepEqual(got, detail) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, detail)
	}
}

func TestDetailStoreMiss(t *testing.T) {
	store := NewDetailStore(openTestDB(t), 1)
	if _, ok := store.Get(404); ok {
		t.Error("expected miss for unknown subject")
	}
}

func TestDetailStoreSchemaVersionInvalidates(t *testing.T) {
	db := openTestDB(t)

	v1 := NewDetailStore(db, 1)
	if err := v1.Set(8, models.DefaultSubjectDetail()); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	v2 := NewDetailStore(db, 2)
	if _, ok := v2.Get(8); ok {
		t.Error("schema version bump should invalidate previous entries")
	}
	if _, ok := v1.Get(8); !ok {
		t.Error("old-version entry should still be readable by old store")
	}
}

func TestDetailStoreCorruptEntryPurged(t *testing.T) {
	db := openTestDB(t)
	store := NewDetailStore(db, 1)

	// Plant an unparseable value under the store's key.
	err := db.Update(func(txn *badger.Txn) error {
		return txn.Set(store.key(8), []byte("{not json"))
	})
	if err != nil {
		t.Fatalf("plant corrupt entry: %v", err)
	}

	if _, ok := store.Get(8); ok {
		t.Fatal("corrupt entry must read as a miss")
	}

	// The corrupt entry must be gone so a fresh Set/Get works.
	err = db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(store.key(8))
		return err
	})
	if err != badger.ErrKeyNotFound {
		t.Errorf("expected corrupt entry purged, got %v", err)
	}

	if err := store.Set(8, models.DefaultSubjectDetail()); err != nil {
		t.Fatalf("Set after purge failed: %v", err)
	}
	if _, ok := store.Get(8); !ok {
		t.Error("expected hit after refill")
	}
}
