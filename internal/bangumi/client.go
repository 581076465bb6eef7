// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

/*
client.go - Bangumi v0 REST API Client

Implements the client for the three Bangumi endpoints the report pipeline
consumes: user profile, paginated game collections, and subject detail.

API Reference: https://bangumi.github.io/api/
*/

package bangumi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/Ngyama/bgm-game-report/internal/config"
	"github.com/Ngyama/bgm-game-report/internal/metrics"
	"github.com/Ngyama/bgm-game-report/internal/models"
)

// ErrUserNotFound indicates the requested Bangumi user does not exist.
var ErrUserNotFound = errors.New("bangumi user not found")

// ClientInterface defines the Bangumi API operations used by the pipeline.
// Both Client and CircuitBreakerClient implement the subject-detail part.
type ClientInterface interface {
	GetUser(ctx context.Context, username string) (*models.UserProfile, error)
	GetCollectionPage(ctx context.Context, username string, limit, offset int) (*models.CollectionPage, error)
	GetSubject(ctx context.Context, id int) (*SubjectPayload, error)
	FetchAllCollections(ctx context.Context, username string) ([]models.CollectionItem, error)
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// Client provides access to the Bangumi v0 REST API.
//
// Outbound calls are rate limited as a courtesy to the public API; the
// limiter blocks (honoring ctx) rather than failing when the budget is
// exhausted.
type Client struct {
	baseURL    string
	userAgent  string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new Bangumi API client from configuration.
func NewClient(cfg *config.BangumiConfig) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		pageSize:  cfg.PageSize,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: limiter,
	}
}

// GetUser retrieves a Bangumi user profile.
func (c *Client) GetUser(ctx context.Context, username string) (*models.UserProfile, error) {
	endpoint := "/users/" + url.PathEscape(username)

	resp, err := c.doRequest(ctx, endpoint, "user")
	if err != nil {
		return nil, fmt.Errorf("bangumi user request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("bangumi user", resp)
	}

	var profile models.UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode bangumi user: %w", err)
	}

	return &profile, nil
}

// GetCollectionPage retrieves one page of a user's game collection.
// Offset-based pagination: the response reports the server-side total.
func (c *Client) GetCollectionPage(ctx context.Context, username string, limit, offset int) (*models.CollectionPage, error) {
	endpoint := fmt.Sprintf("/users/%s/collections?subject_type=%d&limit=%d&offset=%d",
		url.PathEscape(username), models.SubjectTypeGame, limit, offset)

	resp, err := c.doRequest(ctx, endpoint, "collections")
	if err != nil {
		return nil, fmt.Errorf("bangumi collections request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("bangumi collections", resp)
	}

	var page models.CollectionPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode bangumi collections page: %w", err)
	}

	return &page, nil
}

// FetchAllCollections pages through a user's game collection until the
// cumulative offset reaches the server-reported total, accumulating every
// page in arrival order.
//
// Any page failure aborts the whole fetch with no partial result; callers
// decide whether to retry. Items are not deduplicated across pages.
func (c *Client) FetchAllCollections(ctx context.Context, username string) ([]models.CollectionItem, error) {
	var items []models.CollectionItem
	offset := 0

	for {
		page, err := c.GetCollectionPage(ctx, username, c.pageSize, offset)
		if err != nil {
			return nil, err
		}

		items = append(items, page.Data...)

		offset += c.pageSize
		if offset >= page.Total {
			break
		}
	}

	return items, nil
}

// GetSubject retrieves the detail payload for a single subject.
func (c *Client) GetSubject(ctx context.Context, id int) (*SubjectPayload, error) {
	endpoint := "/subjects/" + strconv.Itoa(id)

	resp, err := c.doRequest(ctx, endpoint, "subject")
	if err != nil {
		return nil, fmt.Errorf("bangumi subject request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("bangumi subject", resp)
	}

	var payload SubjectPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode bangumi subject: %w", err)
	}

	return &payload, nil
}

// doRequest performs a rate-limited HTTP GET against the Bangumi API.
func (c *Client) doRequest(ctx context.Context, endpoint, metricName string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.BangumiRequestDuration.WithLabelValues(metricName).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BangumiRequestErrors.WithLabelValues(metricName).Inc()
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		metrics.BangumiRequestErrors.WithLabelValues(metricName).Inc()
	}

	return resp, nil
}

// statusError builds an error for a non-success API response, including a
// body excerpt when one can be read.
func statusError(operation string, resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body)", operation, resp.StatusCode)
	}
	return fmt.Errorf("%s returned status %d: %s", operation, resp.StatusCode, string(body))
}
