// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package bangumi

import (
	"reflect"
	"testing"

	"github.com/goccy/go-json"

	"github.com/Ngyama/bgm-game-report/internal/models"
)

func TestInfoboxValueUnmarshalScalar(t *testing.T) {
	var v InfoboxValue
	if err := json.Unmarshal([]byte(`"Key"`), &v); err != nil {
		t.Fatalf("unmarshal scalar: %v", err)
	}
	if got := v.Strings(); !reflect.DeepEqual(got, []string{"Key"}) {
		t.Errorf("expected [Key], got %v", got)
	}
}

func TestInfoboxValueUnmarshalList(t *testing.T) {
	var v InfoboxValue
	if err := json.Unmarshal([]byte(`[{"v":"麻枝准"},{"v":"樫田レオ"}]`), &v); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if got := v.Strings(); !reflect.DeepEqual(got, []string{"麻枝准", "樫田レオ"}) {
		t.Errorf("unexpected list %v", got)
	}
}

func TestInfoboxValueUnknownShapeIsAbsent(t *testing.T) {
	var v InfoboxValue
	if err := json.Unmarshal([]byte(`12345`), &v); err != nil {
		t.Fatalf("unknown shape should not error: %v", err)
	}
	if got := v.Strings(); len(got) != 0 {
		t.Errorf("expected empty value, got %v", got)
	}
}

func TestParseSubjectDetail(t *testing.T) {
	payload := &SubjectPayload{}
	if err := json.Unmarshal([]byte(`{
		"id": 8,
		"platform": "PC",
		"tags": [{"name":"Galgame","count":100},{"name":"恋爱","count":50}],
		"infobox": [
			{"key": "开发", "value": "Key"},
			{"key": "剧本", "value": [{"v":"麻枝准"},{"v":"麻枝准"}]}
		]
	}`), payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	detail := ParseSubjectDetail(payload)
	if !reflect.DeepEqual(detail.Tags, []string{"Galgame", "恋爱"}) {
		t.Errorf("unexpected tags %v", detail.Tags)
	}
	if detail.Platform != "PC" {
		t.Errorf("expected platform PC, got %q", detail.Platform)
	}
	if !reflect.DeepEqual(detail.Developers, []string{"Key"}) {
		t.Errorf("unexpected developers %v", detail.Developers)
	}
	if !reflect.DeepEqual(detail.Scenarists, []string{"麻枝准"}) {
		t.Errorf("scenarists should deduplicate, got %v", detail.Scenarists)
	}
}

func TestParseSubjectDetailDefaults(t *testing.T) {
	detail := ParseSubjectDetail(&SubjectPayload{ID: 1})
	if detail.Platform != models.PlatformUnknown {
		t.Errorf("expected Unknown platform, got %q", detail.Platform)
	}
	if len(detail.Tags) != 0 || len(detail.Developers) != 0 || len(detail.Scenarists) != 0 {
		t.Errorf("expected empty lists, got %+v", detail)
	}

	if nilDetail := ParseSubjectDetail(nil); nilDetail.Platform != models.PlatformUnknown {
		t.Errorf("nil payload should yield default detail, got %+v", nilDetail)
	}
}

func TestParseSubjectDetailCapsTags(t *testing.T) {
	payload := &SubjectPayload{Platform: "Windows"}
	for i := 0; i < 15; i++ {
		payload.Tags = append(payload.Tags, SubjectTag{Name: string(rune('a' + i))})
	}

	detail := ParseSubjectDetail(payload)
	if len(detail.Tags) != models.MaxDetailTags {
		t.Errorf("expected %d tags, got %d", models.MaxDetailTags, len(detail.Tags))
	}
}

func TestSplitNamesSeparators(t *testing.T) {
	got := splitNames("Key、ビジュアルアーツ / Nitroplus，枕")
	want := []string{"Key", "ビジュアルアーツ", "Nitroplus", "枕"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
