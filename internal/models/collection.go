// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

// Package models provides data structures shared across the application:
// the Bangumi collection domain model, subject enrichment records, and the
// derived annual report views.
package models

import (
	"fmt"
	"time"
)

// Collection types as defined by the Bangumi API for games.
const (
	CollectionTypeWish      = 1 // wish-listed
	CollectionTypeCollected = 2 // collected / played
	CollectionTypeDoing     = 3 // playing
	CollectionTypeOnHold    = 4 // on hold
	CollectionTypeDropped   = 5 // dropped
)

// SubjectTypeGame is the Bangumi subject_type discriminator for games.
const SubjectTypeGame = 4

// SubjectImages holds the cover image URL set for a subject.
type SubjectImages struct {
	Large  string `json:"large"`
	Common string `json:"common"`
	Medium string `json:"medium"`
	Small  string `json:"small"`
	Grid   string `json:"grid"`
}

// Best returns the preferred cover URL, falling back through the size set.
func (im SubjectImages) Best() string {
	switch {
	case im.Large != "":
		return im.Large
	case im.Common != "":
		return im.Common
	case im.Medium != "":
		return im.Medium
	default:
		return im.Small
	}
}

// Subject is the nested subject snapshot carried inside a collection item.
type Subject struct {
	ID     int           `json:"id"`
	Name   string        `json:"name"`
	NameCN string        `json:"name_cn"`
	Images SubjectImages `json:"images"`
	Date   string        `json:"date"` // release date, YYYY-MM-DD
	Score  float64       `json:"score"`
}

// CollectionItem is one user-catalogued entry from the collections feed.
//
// Identity for de-duplication and exclusion purposes is the pair
// (SubjectID, UpdatedAt): a user may re-update the same subject, producing
// multiple entries that differ only in timestamp. Items are never mutated
// locally; exclusion happens through a per-request exclusion set.
type CollectionItem struct {
	SubjectID   int       `json:"subject_id"`
	SubjectType int       `json:"subject_type"`
	Rate        int       `json:"rate"` // 0 = unrated, 1-10 otherwise
	Comment     string    `json:"comment"`
	Tags        []string  `json:"tags"`
	Type        int       `json:"type"` // collection type discriminator
	UpdatedAt   time.Time `json:"updated_at"`
	Subject     Subject   `json:"subject"`
}

// IdentityKey returns the de-duplication identity of the item.
func (it CollectionItem) IdentityKey() string {
	return fmt.Sprintf("%d:%d", it.SubjectID, it.UpdatedAt.Unix())
}

// CollectionPage is one page of the paginated collections endpoint.
type CollectionPage struct {
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
	Data   []CollectionItem `json:"data"`
}

// UserProfile is the Bangumi user profile consumed by the report header.
type UserProfile struct {
	Username string      `json:"username"`
	Nickname string      `json:"nickname"`
	Avatar   UserAvatars `json:"avatar"`
}

// UserAvatars holds the avatar URL set for a user.
type UserAvatars struct {
	Large  string `json:"large"`
	Medium string `json:"medium"`
	Small  string `json:"small"`
}
