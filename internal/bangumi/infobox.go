// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package bangumi

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/Ngyama/bgm-game-report/internal/models"
)

// SubjectPayload is the boundary shape of GET /subjects/{id}. Only the
// fields the enrichment pipeline consumes are modeled.
type SubjectPayload struct {
	ID       int            `json:"id"`
	Platform string         `json:"platform"`
	Tags     []SubjectTag   `json:"tags"`
	Infobox  []InfoboxField `json:"infobox"`
}

// SubjectTag is one community tag on a subject.
type SubjectTag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// InfoboxField is one key/value entry of a subject's infobox.
type InfoboxField struct {
	Key   string       `json:"key"`
	Value InfoboxValue `json:"value"`
}

// InfoboxValue models the loose infobox value shape: the API serializes it
// as either a scalar string or a list of {"v": ...} objects. It is decoded
// as a tagged union at the boundary and normalized to a uniform string list,
// instead of runtime type inspection downstream.
type InfoboxValue struct {
	scalar string
	list   []string
}

// UnmarshalJSON decodes the scalar-or-list union.
func (v *InfoboxValue) UnmarshalJSON(data []byte) error {
	var scalar string
	if err := json.Unmarshal(data, &scalar); err == nil {
		v.scalar = scalar
		v.list = nil
		return nil
	}

	var entries []struct {
		V string `json:"v"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		// Unknown shape (numbers, nested objects): treat as absent rather
		// than failing the whole subject decode.
		v.scalar = ""
		v.list = nil
		return nil
	}

	v.scalar = ""
	v.list = make([]string, 0, len(entries))
	for _, e := range entries {
		v.list = append(v.list, e.V)
	}
	return nil
}

// Strings returns the normalized list-of-strings form of the value.
func (v InfoboxValue) Strings() []string {
	if v.scalar != "" {
		return []string{v.scalar}
	}
	return v.list
}

// Infobox keys naming developers and scenarists. The wiki data is
// community-edited, so several spellings coexist.
var (
	developerKeys = []string{"开发", "开发商", "游戏开发商", "developer"}
	scenaristKeys = []string{"剧本", "剧本家", "编剧", "脚本", "scenario"}
)

func keyMatches(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// staffSeparators splits multi-name infobox values.
var staffSeparators = []string{"、", "／", "/", "，", ","}

// ParseSubjectDetail reduces a subject payload to the enrichment record the
// aggregation engine consumes: at most MaxDetailTags tag names, the platform
// string (defaulted to Unknown), and deduplicated staff name lists.
func ParseSubjectDetail(p *SubjectPayload) models.SubjectDetail {
	detail := models.DefaultSubjectDetail()
	if p == nil {
		return detail
	}

	for _, tag := range p.Tags {
		if len(detail.Tags) >= models.MaxDetailTags {
			break
		}
		if tag.Name != "" {
			detail.Tags = append(detail.Tags, tag.Name)
		}
	}

	if p.Platform != "" {
		detail.Platform = p.Platform
	}

	for _, field := range p.Infobox {
		key := strings.ToLower(strings.TrimSpace(field.Key))
		if keyMatches(developerKeys, key) {
			detail.Developers = appendNames(detail.Developers, field.Value)
		}
		if keyMatches(scenaristKeys, key) {
			detail.Scenarists = appendNames(detail.Scenarists, field.Value)
		}
	}

	return detail
}

// appendNames splits, trims, and deduplicates staff names from an infobox
// value into the accumulator.
func appendNames(acc []string, value InfoboxValue) []string {
	seen := make(map[string]struct{}, len(acc))
	for _, name := range acc {
		seen[name] = struct{}{}
	}

	for _, raw := range value.Strings() {
		for _, name := range splitNames(raw) {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			acc = append(acc, name)
		}
	}
	return acc
}

func splitNames(raw string) []string {
	parts := []string{raw}
	for _, sep := range staffSeparators {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}

	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}
