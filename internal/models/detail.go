// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package models

// PlatformUnknown is the sentinel platform assigned when a subject detail
// fetch fails or the subject carries no platform information.
const PlatformUnknown = "Unknown"

// MaxDetailTags caps the number of tags retained per subject detail.
const MaxDetailTags = 10

// SubjectDetail is the enrichment record for a single subject: the data the
// collections feed does not carry but the report aggregation needs.
//
// A SubjectDetail is a pure function of the subject ID. Once fetched it is
// persisted in the detail store and reused indefinitely; only a cache schema
// version bump or a corrupt stored value forces a refetch.
type SubjectDetail struct {
	Tags       []string `json:"tags"`       // at most MaxDetailTags entries
	Platform   string   `json:"platform"`   // PlatformUnknown on failure
	Developers []string `json:"developers"` // deduplicated
	Scenarists []string `json:"scenarists"` // deduplicated
}

// DefaultSubjectDetail returns the degraded-default detail used when a
// per-subject fetch fails. A single bad subject never blocks aggregation of
// the rest of the collection.
func DefaultSubjectDetail() SubjectDetail {
	return SubjectDetail{
		Tags:       []string{},
		Platform:   PlatformUnknown,
		Developers: []string{},
		Scenarists: []string{},
	}
}
