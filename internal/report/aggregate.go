// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

// Package report implements the aggregation engine: pure functions that turn
// the enriched collection into the derived views of the annual report, plus
// the builder that orchestrates the full pipeline.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Ngyama/bgm-game-report/internal/models"
)

// Ranking sizes.
const (
	topRatedSize    = 5
	bottomRatedSize = 3
	// minRatedForBottom avoids a degenerate overlap between the top-5 and
	// bottom-3 lists on small collections.
	minRatedForBottom = topRatedSize + bottomRatedSize
	radarAxes         = 6
	platformRankSize  = 4
	staffRankSize     = 3
)

// ExclusionSet is the per-request soft-delete set. It is threaded explicitly
// through filtering rather than held as ambient session state. Entries are
// excluded either by full identity (subject ID plus update timestamp) or by
// subject ID alone.
type ExclusionSet struct {
	identities map[string]struct{}
	subjects   map[int]struct{}
}

// NewExclusionSet creates an empty exclusion set.
func NewExclusionSet() *ExclusionSet {
	return &ExclusionSet{
		identities: make(map[string]struct{}),
		subjects:   make(map[int]struct{}),
	}
}

// AddIdentity excludes one exact (subject, timestamp) entry.
func (s *ExclusionSet) AddIdentity(subjectID int, updatedAt time.Time) {
	s.identities[fmt.Sprintf("%d:%d", subjectID, updatedAt.Unix())] = struct{}{}
}

// AddSubject excludes every entry of a subject regardless of timestamp.
func (s *ExclusionSet) AddSubject(subjectID int) {
	s.subjects[subjectID] = struct{}{}
}

// Empty reports whether the set excludes nothing. Nil-safe.
func (s *ExclusionSet) Empty() bool {
	return s == nil || (len(s.identities) == 0 && len(s.subjects) == 0)
}

// Excludes reports whether the item is excluded. Nil-safe.
func (s *ExclusionSet) Excludes(item models.CollectionItem) bool {
	if s == nil {
		return false
	}
	if _, ok := s.subjects[item.SubjectID]; ok {
		return true
	}
	_, ok := s.identities[item.IdentityKey()]
	return ok
}

// FilterYear retains collected-type items whose update timestamp falls in
// the target year (resolved in loc) and whose identity is not excluded.
// The result is ordered newest first.
func FilterYear(items []models.CollectionItem, year int, excluded *ExclusionSet, loc *time.Location) []models.CollectionItem {
	filtered := make([]models.CollectionItem, 0, len(items))
	for _, item := range items {
		if item.Type != models.CollectionTypeCollected {
			continue
		}
		if item.UpdatedAt.In(loc).Year() != year {
			continue
		}
		if excluded.Excludes(item) {
			continue
		}
		filtered = append(filtered, item)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].UpdatedAt.After(filtered[j].UpdatedAt)
	})
	return filtered
}

// GroupByMonth partitions items by the calendar month (1-12) of their update
// timestamp. Months with zero items are absent from the map.
func GroupByMonth(items []models.CollectionItem, loc *time.Location) map[int][]models.CollectionItem {
	grouped := make(map[int][]models.CollectionItem)
	for _, item := range items {
		month := int(item.UpdatedAt.In(loc).Month())
		grouped[month] = append(grouped[month], item)
	}
	return grouped
}

// MonthlyGroups builds the gallery view: present months only, newest month
// first, items projected to gallery entries.
func MonthlyGroups(items []models.CollectionItem, loc *time.Location) []models.MonthlyGroup {
	grouped := GroupByMonth(items, loc)

	months := make([]int, 0, len(grouped))
	for month := range grouped {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(months)))

	groups := make([]models.MonthlyGroup, 0, len(months))
	for _, month := range months {
		group := models.MonthlyGroup{
			Month: month,
			Label: fmt.Sprintf("%02d", month),
			Items: make([]models.GameEntry, 0, len(grouped[month])),
		}
		for _, item := range grouped[month] {
			group.Items = append(group.Items, models.GameEntry{
				SubjectID: item.SubjectID,
				Name:      item.Subject.Name,
				NameCN:    item.Subject.NameCN,
				Image:     item.Subject.Images.Best(),
				Rate:      item.Rate,
				Comment:   item.Comment,
				UpdatedAt: item.UpdatedAt,
			})
		}
		groups = append(groups, group)
	}
	return groups
}

// MonthlyCounts returns the zero-filled per-month item counts used for
// chart continuity: every month is represented, index 0 = January.
func MonthlyCounts(items []models.CollectionItem, loc *time.Location) [12]int {
	var counts [12]int
	for _, item := range items {
		counts[int(item.UpdatedAt.In(loc).Month())-1]++
	}
	return counts
}

// RankByRating returns the top and bottom rated lists.
//
// Only rated items (rate > 0) participate. The top list holds up to five
// items, highest first. The bottom list is returned only when at least eight
// rated items exist, and is reversed so the lowest-rated item comes first.
func RankByRating(items []models.CollectionItem) (top, bottom []models.RatedRank) {
	rated := make([]models.CollectionItem, 0, len(items))
	for _, item := range items {
		if item.Rate > 0 {
			rated = append(rated, item)
		}
	}

	sort.SliceStable(rated, func(i, j int) bool {
		return rated[i].Rate > rated[j].Rate
	})

	for i := 0; i < len(rated) && i < topRatedSize; i++ {
		top = append(top, ratedRank(i+1, rated[i]))
	}

	if len(rated) < minRatedForBottom {
		return top, nil
	}
	// Walk from the end so the lowest-rated item appears first.
	for i := 0; i < bottomRatedSize; i++ {
		bottom = append(bottom, ratedRank(i+1, rated[len(rated)-1-i]))
	}
	return top, bottom
}

func ratedRank(rank int, item models.CollectionItem) models.RatedRank {
	return models.RatedRank{
		Rank:      rank,
		SubjectID: item.SubjectID,
		Name:      item.Subject.Name,
		NameCN:    item.Subject.NameCN,
		Image:     item.Subject.Images.Best(),
		Rate:      item.Rate,
	}
}

// combinedTags merges a subject's enriched tags with the user's own tags on
// the item, enrichment first so vocabulary matching prefers subject tags.
func combinedTags(item models.CollectionItem, details map[int]models.SubjectDetail) []string {
	detail := details[item.SubjectID]
	tags := make([]string, 0, len(detail.Tags)+len(item.Tags))
	tags = append(tags, detail.Tags...)
	tags = append(tags, item.Tags...)
	return tags
}

// GenreRadar computes the genre-frequency radar vector: for each item, the
// first tag matching the genre vocabulary (case-insensitive) increments that
// genre's bucket, so each item contributes to at most one bucket. Returns
// the top buckets normalized to 0-100 against the maximum count.
func GenreRadar(items []models.CollectionItem, details map[int]models.SubjectDetail) []models.RadarAxis {
	counts := make(map[string]int)

	for _, item := range items {
		for _, tag := range combinedTags(item, details) {
			if genre, ok := matchVocabulary(GenreVocabulary, tag); ok {
				counts[genre]++
				break
			}
		}
	}

	return normalizeRadar(topCounts(counts, radarAxes))
}

// StyleRadar computes the galgame-style radar vector: items carrying at
// least one marker tag increment every matching style bucket, each at most
// once per item. Same output shape as GenreRadar.
func StyleRadar(items []models.CollectionItem, details map[int]models.SubjectDetail) []models.RadarAxis {
	counts := make(map[string]int)

	for _, item := range items {
		tags := combinedTags(item, details)
		if !hasGalgameMarker(tags) {
			continue
		}

		for _, style := range StyleVocabulary {
			for _, tag := range tags {
				if strings.EqualFold(tag, style) {
					counts[style]++
					break
				}
			}
		}
	}

	return normalizeRadar(topCounts(counts, radarAxes))
}

func matchVocabulary(vocabulary []string, tag string) (string, bool) {
	for _, entry := range vocabulary {
		if strings.EqualFold(entry, tag) {
			return entry, true
		}
	}
	return "", false
}

func hasGalgameMarker(tags []string) bool {
	for _, tag := range tags {
		for _, marker := range galgameMarkers {
			if strings.EqualFold(tag, marker) {
				return true
			}
		}
	}
	return false
}

// topCounts returns the n highest-count buckets, ties broken by name for
// deterministic output.
func topCounts(counts map[string]int, n int) []models.RadarAxis {
	axes := make([]models.RadarAxis, 0, len(counts))
	for name, count := range counts {
		axes = append(axes, models.RadarAxis{Name: name, Count: count})
	}

	sort.Slice(axes, func(i, j int) bool {
		if axes[i].Count != axes[j].Count {
			return axes[i].Count > axes[j].Count
		}
		return axes[i].Name < axes[j].Name
	})

	if len(axes) > n {
		axes = axes[:n]
	}
	return axes
}

// normalizeRadar sets Score to the 0-100 linear normalization against the
// maximum bucket count. A zero maximum yields all-zero scores.
func normalizeRadar(axes []models.RadarAxis) []models.RadarAxis {
	maxCount := 0
	for _, axis := range axes {
		if axis.Count > maxCount {
			maxCount = axis.Count
		}
	}
	if maxCount == 0 {
		return axes
	}

	for i := range axes {
		axes[i].Score = float64(axes[i].Count) / float64(maxCount) * 100
	}
	return axes
}

// RescaleRadar fills the Display value of each axis.
//
// When the dominant bucket's count is at least the sum of all other buckets,
// every bucket is compressed with a square-root transform against the max
// (sqrt(v)/sqrt(max) * 150); otherwise a straight linear scale against the
// max (v/max * 100) is used. This is a chart-legibility policy, not a
// statistical one: it exists purely to keep the radar readable when one
// category dominates. The predicate and both formulas are kept exactly as
// the original frontend applied them.
func RescaleRadar(axes []models.RadarAxis) []models.RadarAxis {
	maxCount, total := 0, 0
	for _, axis := range axes {
		total += axis.Count
		if axis.Count > maxCount {
			maxCount = axis.Count
		}
	}
	if maxCount == 0 {
		return axes
	}

	dominant := maxCount >= total-maxCount
	for i := range axes {
		v := float64(axes[i].Count)
		if dominant {
			axes[i].Display = math.Sqrt(v) / math.Sqrt(float64(maxCount)) * 150
		} else {
			axes[i].Display = v / float64(maxCount) * 100
		}
	}
	return axes
}

// PlatformRanking counts items by platform, renaming "PC" to "Windows" and
// excluding the Unknown sentinel. Returns the top four platforms.
func PlatformRanking(items []models.CollectionItem, details map[int]models.SubjectDetail) []models.PlatformRank {
	counts := make(map[string]int)
	for _, item := range items {
		platform := details[item.SubjectID].Platform
		if platform == "PC" {
			platform = "Windows"
		}
		if platform == "" || platform == models.PlatformUnknown {
			continue
		}
		counts[platform]++
	}

	ranks := make([]models.PlatformRank, 0, len(counts))
	for platform, count := range counts {
		ranks = append(ranks, models.PlatformRank{Platform: platform, Count: count})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Count != ranks[j].Count {
			return ranks[i].Count > ranks[j].Count
		}
		return ranks[i].Platform < ranks[j].Platform
	})

	if len(ranks) > platformRankSize {
		ranks = ranks[:platformRankSize]
	}
	return ranks
}

// StaffRanking counts distinct-per-item developer and scenarist occurrences
// across the filtered set and returns the top three of each. The detail
// lists are already deduplicated per item, so a name counts once per item.
func StaffRanking(items []models.CollectionItem, details map[int]models.SubjectDetail) (developers, scenarists []models.StaffRank) {
	devCounts := make(map[string]int)
	scenCounts := make(map[string]int)

	for _, item := range items {
		detail := details[item.SubjectID]
		for _, name := range detail.Developers {
			devCounts[name]++
		}
		for _, name := range detail.Scenarists {
			scenCounts[name]++
		}
	}

	return topStaff(devCounts, staffRankSize), topStaff(scenCounts, staffRankSize)
}

func topStaff(counts map[string]int, n int) []models.StaffRank {
	ranks := make([]models.StaffRank, 0, len(counts))
	for name, count := range counts {
		ranks = append(ranks, models.StaffRank{Name: name, Count: count})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Count != ranks[j].Count {
			return ranks[i].Count > ranks[j].Count
		}
		return ranks[i].Name < ranks[j].Name
	})

	if len(ranks) > n {
		ranks = ranks[:n]
	}
	return ranks
}
