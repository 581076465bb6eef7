// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package models

import (
	"time"
)

// AnnualReport is the complete year-in-review payload for one user.
//
// Every field is recomputed from the collection feed plus the enrichment map;
// nothing here has an independent lifecycle. Reports are cached whole with a
// short TTL and carry an ID for shareable links.
type AnnualReport struct {
	ID          string    `json:"id"`
	Year        int       `json:"year"`
	Username    string    `json:"username"`
	Nickname    string    `json:"nickname"`
	Avatar      string    `json:"avatar"`
	GeneratedAt time.Time `json:"generated_at"`

	// Core statistics
	TotalGames int     `json:"total_games"`
	RatedGames int     `json:"rated_games"`
	AvgRating  float64 `json:"avg_rating"`

	// Gallery data
	Months        []MonthlyGroup `json:"months"`         // present months, newest first
	MonthlyCounts [12]int        `json:"monthly_counts"` // index 0 = January, zero-filled

	// Rankings
	TopRated    []RatedRank    `json:"top_rated"`              // up to 5, highest first
	BottomRated []RatedRank    `json:"bottom_rated,omitempty"` // up to 3, lowest first
	Platforms   []PlatformRank `json:"platforms"`              // top 4
	Developers  []StaffRank    `json:"developers"`             // top 3
	Scenarists  []StaffRank    `json:"scenarists"`             // top 3

	// Radar vectors
	GenreRadar []RadarAxis `json:"genre_radar"` // top 6 genre buckets
	StyleRadar []RadarAxis `json:"style_radar"` // top 6 galgame style buckets
}

// MonthlyGroup is one calendar month of the chronological gallery.
type MonthlyGroup struct {
	Month int         `json:"month"` // 1-12
	Label string      `json:"label"` // zero-padded, e.g. "03"
	Items []GameEntry `json:"items"`
}

// GameEntry is the gallery projection of a collection item.
type GameEntry struct {
	SubjectID int       `json:"subject_id"`
	Name      string    `json:"name"`
	NameCN    string    `json:"name_cn"`
	Image     string    `json:"image"`
	Rate      int       `json:"rate"`
	Comment   string    `json:"comment,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RatedRank is one entry of the top/bottom rated lists.
type RatedRank struct {
	Rank      int    `json:"rank"`
	SubjectID int    `json:"subject_id"`
	Name      string `json:"name"`
	NameCN    string `json:"name_cn"`
	Image     string `json:"image"`
	Rate      int    `json:"rate"`
}

// RadarAxis is one bucket of a tag-frequency radar vector.
//
// Count is the raw bucket count. Score is the count normalized to a 0-100
// scale against the maximum bucket. Display is the chart-legibility rescaling
// of the same count: a square-root compression when one bucket dominates the
// distribution, linear otherwise. Display exists purely to keep the rendered
// radar readable; it is not a statistical quantity.
type RadarAxis struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Score   float64 `json:"score"`
	Display float64 `json:"display"`
}

// PlatformRank is one entry of the platform frequency ranking.
type PlatformRank struct {
	Platform string `json:"platform"`
	Count    int    `json:"count"`
}

// StaffRank is one entry of the developer/scenarist frequency ranking.
type StaffRank struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
