// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

// Package api provides the HTTP surface of the report service: health
// endpoints, the annual report endpoint, a user profile passthrough, and the
// same-origin image proxy.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Ngyama/bgm-game-report/internal/bangumi"
	"github.com/Ngyama/bgm-game-report/internal/cache"
	"github.com/Ngyama/bgm-game-report/internal/imageproxy"
	"github.com/Ngyama/bgm-game-report/internal/logging"
	"github.com/Ngyama/bgm-game-report/internal/metrics"
	"github.com/Ngyama/bgm-game-report/internal/models"
	"github.com/Ngyama/bgm-game-report/internal/report"
)

// Error codes returned in the response envelope.
const (
	codeValidation     = "VALIDATION_ERROR"
	codeUserNotFound   = "USER_NOT_FOUND"
	codeEmptyYear      = "EMPTY_YEAR"
	codeUpstreamError  = "UPSTREAM_ERROR"
	codeInvalidURL     = "INVALID_URL"
	codeHostNotAllowed = "HOST_NOT_ALLOWED"
	codeProxyDisabled  = "PROXY_DISABLED"
)

// ReportBuilder assembles annual reports. Satisfied by *report.Builder.
type ReportBuilder interface {
	Build(ctx context.Context, username string, year int, excluded *report.ExclusionSet) (*models.AnnualReport, error)
}

// UserSource resolves Bangumi user profiles. Satisfied by the Bangumi client.
type UserSource interface {
	GetUser(ctx context.Context, username string) (*models.UserProfile, error)
}

// Handler contains dependencies for API handlers.
type Handler struct {
	builder   ReportBuilder
	users     UserSource
	reports   *cache.ReportCache
	rewriter  imageproxy.Rewriter
	images    *imageproxy.Fetcher // nil when the proxy is disabled
	validate  *validator.Validate
	loc       *time.Location
	startTime time.Time
}

// NewHandler creates the API handler. images may be nil when the image proxy
// is disabled; rewriter must never be nil (use imageproxy.NopRewriter).
func NewHandler(builder ReportBuilder, users UserSource, reports *cache.ReportCache, rewriter imageproxy.Rewriter, images *imageproxy.Fetcher, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		builder:   builder,
		users:     users,
		reports:   reports,
		rewriter:  rewriter,
		images:    images,
		validate:  validator.New(),
		loc:       loc,
		startTime: time.Now(),
	}
}

// Health returns overall service health and uptime.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]any{
			"status":         "healthy",
			"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthLive is the liveness probe: the process is up and serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]any{"status": "alive"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady is the readiness probe. The service carries no warm-up state
// beyond construction, so readiness tracks liveness.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]any{"status": "ready"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// reportRequest carries the validated query parameters of the report endpoint.
type reportRequest struct {
	Username string `validate:"required,min=1,max=64"`
	Year     int    `validate:"gte=2000,lte=2100"`
}

// Report builds (or serves from cache) the annual report for one user.
//
// Query parameters:
//   - username (required)
//   - year (optional, defaults to the current year in the report timezone)
//   - exclude (optional, comma-separated entries: a subject ID, or
//     subjectID:unixTimestamp for one exact collection entry)
//
// Reports built without exclusions are TTL-cached; an exclusion set changes
// the output, so those requests always rebuild.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	req := reportRequest{
		Username: r.URL.Query().Get("username"),
		Year:     getIntParam(r, "year", time.Now().In(h.loc).Year()),
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation,
			"username is required and year must be between 2000 and 2100", nil)
		return
	}

	excluded, err := parseExcludeParam(r.URL.Query().Get("exclude"))
	if err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}

	cacheKey := cache.ReportKey(req.Username, req.Year)
	if excluded.Empty() {
		if cached, ok := h.reports.Get(cacheKey); ok {
			metrics.ReportCacheHits.Inc()
			h.respondReport(w, cached, 0, true)
			return
		}
	}

	start := time.Now()
	rep, err := h.builder.Build(r.Context(), req.Username, req.Year, excluded)
	if err != nil {
		h.respondReportError(w, req.Username, req.Year, err)
		return
	}
	rewriteReportImages(rep, h.rewriter)

	if excluded.Empty() {
		h.reports.Set(cacheKey, rep)
	}
	h.respondReport(w, rep, time.Since(start).Milliseconds(), false)
}

func (h *Handler) respondReport(w http.ResponseWriter, rep *models.AnnualReport, buildMS int64, cached bool) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   rep,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			BuildTimeMS: buildMS,
			Cached:      cached,
		},
	})
}

func (h *Handler) respondReportError(w http.ResponseWriter, username string, year int, err error) {
	switch {
	case errors.Is(err, bangumi.ErrUserNotFound):
		respondError(w, http.StatusNotFound, codeUserNotFound,
			"bangumi user not found: "+username, nil)
	case errors.Is(err, report.ErrEmptyYear):
		respondError(w, http.StatusNotFound, codeEmptyYear,
			"no collected games in "+strconv.Itoa(year), nil)
	default:
		respondError(w, http.StatusBadGateway, codeUpstreamError,
			"failed to fetch data from the Bangumi API", err)
	}
}

// User is a profile passthrough used by the frontend before a report request.
func (h *Handler) User(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		respondError(w, http.StatusBadRequest, codeValidation, "username is required", nil)
		return
	}

	user, err := h.users.GetUser(r.Context(), username)
	if err != nil {
		if errors.Is(err, bangumi.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, codeUserNotFound,
				"bangumi user not found: "+username, nil)
			return
		}
		respondError(w, http.StatusBadGateway, codeUpstreamError,
			"failed to fetch user from the Bangumi API", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     user,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// Image streams an allow-listed upstream image through this origin.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		respondError(w, http.StatusNotFound, codeProxyDisabled, "image proxy is disabled", nil)
		return
	}

	rawURL := r.URL.Query().Get("url")
	err := h.images.Serve(r.Context(), w, rawURL)
	switch {
	case err == nil:
	case errors.Is(err, imageproxy.ErrInvalidImageURL):
		respondError(w, http.StatusBadRequest, codeInvalidURL, "url must be an absolute http(s) URL", nil)
	case errors.Is(err, imageproxy.ErrHostNotAllowed):
		respondError(w, http.StatusForbidden, codeHostNotAllowed, "upstream host is not allow-listed", nil)
	default:
		respondError(w, http.StatusBadGateway, codeUpstreamError, "failed to fetch upstream image", err)
	}
}

// parseExcludeParam parses the exclude query parameter. Each comma-separated
// entry is either a bare subject ID or subjectID:unixTimestamp.
func parseExcludeParam(raw string) (*report.ExclusionSet, error) {
	excluded := report.NewExclusionSet()
	if raw == "" {
		return excluded, nil
	}

	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		idPart, tsPart, hasTS := strings.Cut(token, ":")
		subjectID, err := strconv.Atoi(idPart)
		if err != nil || subjectID <= 0 {
			return nil, errors.New("exclude entries must be subject IDs, got " + strconv.Quote(token))
		}

		if !hasTS {
			excluded.AddSubject(subjectID)
			continue
		}
		ts, err := strconv.ParseInt(tsPart, 10, 64)
		if err != nil {
			return nil, errors.New("exclude entry has an invalid timestamp: " + strconv.Quote(token))
		}
		excluded.AddIdentity(subjectID, time.Unix(ts, 0))
	}
	return excluded, nil
}

// rewriteReportImages maps every image URL in the report through the
// configured rewriter so snapshots render same-origin.
func rewriteReportImages(rep *models.AnnualReport, rewriter imageproxy.Rewriter) {
	if rep == nil || rewriter == nil {
		return
	}

	rep.Avatar = rewriter.Rewrite(rep.Avatar)
	for mi := range rep.Months {
		for ii := range rep.Months[mi].Items {
			rep.Months[mi].Items[ii].Image = rewriter.Rewrite(rep.Months[mi].Items[ii].Image)
		}
	}
	for i := range rep.TopRated {
		rep.TopRated[i].Image = rewriter.Rewrite(rep.TopRated[i].Image)
	}
	for i := range rep.BottomRated {
		rep.BottomRated[i].Image = rewriter.Rewrite(rep.BottomRated[i].Image)
	}

	logging.Debug().Str("report_id", rep.ID).Msg("report image URLs rewritten")
}
