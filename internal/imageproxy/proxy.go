// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

// Package imageproxy rewrites upstream cover URLs onto this service's own
// image endpoint and streams the images through, so report snapshots render
// from a single origin.
package imageproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Ngyama/bgm-game-report/internal/logging"
)

// ErrHostNotAllowed indicates the requested upstream host is outside the
// configured allow-list.
var ErrHostNotAllowed = errors.New("upstream host not allowed")

// ErrInvalidImageURL indicates the url parameter could not be parsed or is
// not an absolute http(s) URL.
var ErrInvalidImageURL = errors.New("invalid image url")

// Rewriter maps an upstream image URL to the URL a report should carry.
type Rewriter interface {
	Rewrite(imageURL string) string
}

// NopRewriter passes URLs through unchanged. Used when the proxy is disabled.
type NopRewriter struct{}

// Rewrite returns imageURL untouched.
func (NopRewriter) Rewrite(imageURL string) string { return imageURL }

// URLRewriter rewrites allow-listed upstream URLs onto the service's
// /api/v1/image endpoint. URLs with other hosts pass through unchanged.
type URLRewriter struct {
	publicBaseURL string
	allowedHosts  map[string]struct{}
}

var _ Rewriter = (*URLRewriter)(nil)
var _ Rewriter = NopRewriter{}

// NewURLRewriter creates a rewriter anchored at publicBaseURL, e.g.
// "https://report.example.com". Trailing slashes are trimmed.
func NewURLRewriter(publicBaseURL string, allowedHosts []string) *URLRewriter {
	hosts := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		hosts[strings.ToLower(h)] = struct{}{}
	}
	return &URLRewriter{
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		allowedHosts:  hosts,
	}
}

// Allowed reports whether host may be proxied.
func (r *URLRewriter) Allowed(host string) bool {
	_, ok := r.allowedHosts[strings.ToLower(host)]
	return ok
}

// Rewrite maps imageURL onto the image endpoint when its host is allowed.
// Empty, unparseable, and non-allow-listed URLs are returned unchanged.
func (r *URLRewriter) Rewrite(imageURL string) string {
	if imageURL == "" {
		return imageURL
	}
	parsed, err := url.Parse(imageURL)
	if err != nil || !r.Allowed(parsed.Hostname()) {
		return imageURL
	}
	return fmt.Sprintf("%s/api/v1/image?url=%s", r.publicBaseURL, url.QueryEscape(imageURL))
}

// Fetcher streams allow-listed upstream images. It validates the target URL
// before any network activity.
type Fetcher struct {
	rewriter   *URLRewriter
	httpClient *http.Client
}

// NewFetcher creates an image fetcher sharing the rewriter's allow-list.
func NewFetcher(rewriter *URLRewriter, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		rewriter:   rewriter,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Validate parses rawURL and checks it against the allow-list.
func (f *Fetcher) Validate(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, ErrInvalidImageURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return nil, ErrInvalidImageURL
	}
	if !f.rewriter.Allowed(parsed.Hostname()) {
		return nil, ErrHostNotAllowed
	}
	return parsed, nil
}

// Serve streams the upstream image to w. rawURL must already have passed
// Validate; a second check guards against handler misuse.
func (f *Fetcher) Serve(ctx context.Context, w http.ResponseWriter, rawURL string) error {
	target, err := f.Validate(rawURL)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream image returned status %d", resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	// Covers are immutable per URL; let clients and CDNs hold them.
	w.Header().Set("Cache-Control", "public, max-age=86400")

	if _, err := io.Copy(w, resp.Body); err != nil {
		// Headers are already written; log instead of surfacing an error
		// the handler can no longer act on.
		logging.Warn().Err(err).Str("url", rawURL).Msg("image stream interrupted")
	}
	return nil
}
