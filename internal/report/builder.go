// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package report

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Ngyama/bgm-game-report/internal/logging"
	"github.com/Ngyama/bgm-game-report/internal/metrics"
	"github.com/Ngyama/bgm-game-report/internal/models"
)

// ErrEmptyYear indicates the user has no collected games in the target year.
var ErrEmptyYear = errors.New("no collected games in the requested year")

// CollectionSource is the slice of the Bangumi client the builder needs.
type CollectionSource interface {
	GetUser(ctx context.Context, username string) (*models.UserProfile, error)
	FetchAllCollections(ctx context.Context, username string) ([]models.CollectionItem, error)
}

// Enricher resolves subject IDs to detail records.
type Enricher interface {
	EnrichSubjects(ctx context.Context, ids []int) map[int]models.SubjectDetail
}

// Builder orchestrates the full report pipeline: collection fetch, year
// filter, detail enrichment, and aggregation.
type Builder struct {
	source   CollectionSource
	enricher Enricher
	loc      *time.Location
}

// NewBuilder creates a report builder resolving timestamps in loc.
func NewBuilder(source CollectionSource, enricher Enricher, loc *time.Location) *Builder {
	if loc == nil {
		loc = time.Local
	}
	return &Builder{source: source, enricher: enricher, loc: loc}
}

// Build assembles the annual report for one user and year.
//
// A user or collection fetch failure is fatal and surfaced to the caller;
// per-subject enrichment failures are absorbed inside the enricher. The
// exclusion set is applied during the year filter, before enrichment, so
// excluded subjects cost no detail fetches.
func (b *Builder) Build(ctx context.Context, username string, year int, excluded *ExclusionSet) (*models.AnnualReport, error) {
	start := time.Now()
	defer func() {
		metrics.ReportBuildDuration.Observe(time.Since(start).Seconds())
	}()

	user, err := b.source.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}

	items, err := b.source.FetchAllCollections(ctx, username)
	if err != nil {
		return nil, err
	}

	filtered := FilterYear(items, year, excluded, b.loc)
	if len(filtered) == 0 {
		return nil, ErrEmptyYear
	}

	ids := uniqueSubjectIDs(filtered)
	details := b.enricher.EnrichSubjects(ctx, ids)

	top, bottom := RankByRating(filtered)
	developers, scenarists := StaffRanking(filtered, details)

	report := &models.AnnualReport{
		ID:          uuid.NewString(),
		Year:        year,
		Username:    user.Username,
		Nickname:    user.Nickname,
		Avatar:      user.Avatar.Large,
		GeneratedAt: time.Now().In(b.loc),

		TotalGames: len(filtered),

		Months:        MonthlyGroups(filtered, b.loc),
		MonthlyCounts: MonthlyCounts(filtered, b.loc),

		TopRated:    top,
		BottomRated: bottom,
		Platforms:   PlatformRanking(filtered, details),
		Developers:  developers,
		Scenarists:  scenarists,

		GenreRadar: RescaleRadar(GenreRadar(filtered, details)),
		StyleRadar: RescaleRadar(StyleRadar(filtered, details)),
	}
	report.RatedGames, report.AvgRating = ratingStats(filtered)

	logging.Info().
		Str("username", username).
		Int("year", year).
		Int("total_games", report.TotalGames).
		Int("subjects_enriched", len(details)).
		Dur("elapsed", time.Since(start)).
		Msg("annual report built")

	return report, nil
}

// uniqueSubjectIDs returns the deduplicated subject IDs of the items, in
// first-appearance order.
func uniqueSubjectIDs(items []models.CollectionItem) []int {
	seen := make(map[int]struct{}, len(items))
	ids := make([]int, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.SubjectID]; dup {
			continue
		}
		seen[item.SubjectID] = struct{}{}
		ids = append(ids, item.SubjectID)
	}
	return ids
}

// ratingStats returns the rated item count and the mean rating rounded to
// one decimal. Zero rated items yields a zero mean.
func ratingStats(items []models.CollectionItem) (int, float64) {
	count, sum := 0, 0
	for _, item := range items {
		if item.Rate > 0 {
			count++
			sum += item.Rate
		}
	}
	if count == 0 {
		return 0, 0
	}
	return count, math.Round(float64(sum)/float64(count)*10) / 10
}
