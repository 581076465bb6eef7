// bgm-game-report - Bangumi Annual Game Report Service
// Copyright 2026 Ngyama
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Ngyama/bgm-game-report

package report

// GenreVocabulary is the fixed genre bucket set for the genre radar.
// Tags are matched case-insensitively; each item contributes to at most one
// bucket (its first matching tag wins).
var GenreVocabulary = []string{
	"RPG",
	"ADV",
	"AVG",
	"ACT",
	"SLG",
	"STG",
	"SIM",
	"FPS",
	"RTS",
	"PUZ",
	"SPT",
	"MUG",
	"Roguelike",
	"Galgame",
	"视觉小说",
	"卡牌",
}

// galgameMarkers identifies items that qualify for the style radar: an item
// participates when at least one of its tags matches a marker.
var galgameMarkers = []string{
	"galgame",
	"gal",
	"视觉小说",
	"adv",
	"avg",
	"文字冒险",
	"乙女向",
}

// StyleVocabulary is the fixed style bucket set for the galgame radar.
// Unlike the genre radar, an item increments every matching style bucket,
// each at most once per item.
var StyleVocabulary = []string{
	"恋爱",
	"奇幻",
	"科幻",
	"悬疑",
	"推理",
	"治愈",
	"致郁",
	"催泪",
	"校园",
	"日常",
	"战斗",
	"传奇",
	"都市",
	"历史",
	"百合",
	"末世",
}
