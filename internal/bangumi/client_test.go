// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package bangumi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ngyama/bgm-game-report/internal/config"
	"github.com/Ngyama/bgm-game-report/internal/models"
)

func testClientConfig(baseURL string, pageSize int) *config.BangumiConfig {
	return &config.BangumiConfig{
		BaseURL:   baseURL,
		UserAgent: "bgm-game-report-test/1.0",
		PageSize:  pageSize,
		Timeout:   5 * time.Second,
		// No rate limiting in tests
		RequestsPerSecond: 0,
	}
}

// collectionsServer serves a synthetic paginated collection of `total` items.
// Each response honors the requested offset/limit and reports the total.
func collectionsServer(t *testing.T, total int, requests *atomic.Int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"total":%d,"limit":%d,"offset":%d,"data":[`, total, limit, offset)
		first := true
		for i := offset; i < total && i < offset+limit; i++ {
			if !first {
				fmt.Fprint(w, ",")
			}
			first = false
			fmt.Fprintf(w, `{"subject_id":%d,"subject_type":4,"rate":0,"type":2,"updated_at":"2025-03-01T12:00:00+08:00","subject":{"id":%d,"name":"game %d"}}`, i+1, i+1, i+1)
		}
		fmt.Fprint(w, "]}")
	}))
}

func TestFetchAllCollectionsAccumulatesTotal(t *testing.T) {
	tests := []struct {
		name         string
		total        int
		pageSize     int
		wantRequests int64
	}{
		{"exact multiple", 60, 30, 2},
		{"partial last page", 61, 30, 3},
		{"single page", 7, 30, 1},
		{"page size one", 4, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests atomic.Int64
			srv := collectionsServer(t, tt.total, &requests)
			defer srv.Close()

			client := NewClient(testClientConfig(srv.URL, tt.pageSize))
			items, err := client.FetchAllCollections(context.Background(), "sai")
			if err != nil {
				t.Fatalf("FetchAllCollections failed: %v", err)
			}

			if len(items) != tt.total {
				t.Errorf("expected %d items, got %d", tt.total, len(items))
			}
			if got := requests.Load(); got != tt.wantRequests {
				t.Errorf("expected %d requests (ceil(total/pageSize)), got %d", tt.wantRequests, got)
			}
		})
	}
}

func TestFetchAllCollectionsPageFailureAbortsWhole(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		if n >= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total":90,"limit":30,"offset":0,"data":[{"subject_id":1,"subject_type":4,"type":2,"updated_at":"2025-03-01T12:00:00+08:00","subject":{"id":1}}]}`)
	}))
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL, 30))
	items, err := client.FetchAllCollections(context.Background(), "sai")
	if err == nil {
		t.Fatal("expected error from failing second page")
	}
	if items != nil {
		t.Errorf("expected no partial result, got %d items", len(items))
	}
}

func TestGetUserNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL, 30))
	_, err := client.GetUser(context.Background(), "ghost")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	_, err = client.GetCollectionPage(context.Background(), "ghost", 30, 0)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound from collections, got %v", err)
	}
}

func TestGetUserDecodesProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "bgm-game-report-test/1.0" {
			t.Errorf("missing project user agent, got %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"username":"sai","nickname":"Sai","avatar":{"large":"https://lain.bgm.tv/pic/user/l/sai.jpg"}}`)
	}))
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL, 30))
	profile, err := client.GetUser(context.Background(), "sai")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if profile.Nickname != "Sai" || profile.Avatar.Large == "" {
		t.Errorf("unexpected profile %+v", profile)
	}
}

func TestGetSubjectNonSuccessIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL, 30))
	if _, err := client.GetSubject(context.Background(), 42); err == nil {
		t.Error("expected error for non-success subject response")
	}
}

func TestCollectionItemTimestampParsing(t *testing.T) {
	var requests atomic.Int64
	srv := collectionsServer(t, 1, &requests)
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL, 30))
	items, err := client.FetchAllCollections(context.Background(), "sai")
	if err != nil {
		t.Fatalf("FetchAllCollections failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	cst := time.FixedZone("CST", 8*3600)
	want := time.Date(2025, 3, 1, 12, 0, 0, 0, cst)
	if !items[0].UpdatedAt.Equal(want) {
		t.Errorf("expected %v, got %v", want, items[0].UpdatedAt)
	}
	if items[0].Type != models.CollectionTypeCollected {
		t.Errorf("expected collected type, got %d", items[0].Type)
	}
}
