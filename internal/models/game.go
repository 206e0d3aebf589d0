// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Game is a single playable entry in the catalog. Views and Likes only ever
// grow; they are changed through atomic increments, never by Update.
type Game struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	TitleEn       string    `json:"titleEn"`
	Description   string    `json:"description"`
	DescriptionEn string    `json:"descriptionEn"`
	ImageURL      string    `json:"imageUrl"`
	GameURL       string    `json:"gameUrl"`
	CategoryID    string    `json:"categoryId"`
	Tags          []string  `json:"tags"`
	Screenshots   []string  `json:"screenshots"`
	Developer     string    `json:"developer,omitempty"`
	ReleaseDate   string    `json:"releaseDate,omitempty"`
	Content       string    `json:"content,omitempty"`
	ContentEn     string    `json:"contentEn,omitempty"`
	Views         int64     `json:"views"`
	Likes         int64     `json:"likes"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	// Virtual fields populated by the catalog service on detail reads.
	Category      *CategorySummary `json:"category,omitempty"`
	ContentHTML   string           `json:"contentHtml,omitempty"`
	ContentEnHTML string           `json:"contentEnHtml,omitempty"`
}

// CounterField names one of the monotonically increasing game counters.
type CounterField string

const (
	CounterViews CounterField = "views"
	CounterLikes CounterField = "likes"
)

// Valid reports whether f names a known counter.
func (f CounterField) Valid() bool {
	return f == CounterViews || f == CounterLikes
}

// GameSort selects the ordering of a game listing.
type GameSort string

const (
	SortNewest GameSort = ""
	SortViews  GameSort = "views"
	SortLikes  GameSort = "likes"
	SortTitle  GameSort = "title"
)

// ParseGameSort converts a query-string value into a GameSort. Unknown
// values are reported with ok=false.
func ParseGameSort(s string) (GameSort, bool) {
	switch GameSort(s) {
	case SortNewest, SortViews, SortLikes, SortTitle:
		return GameSort(s), true
	case "newest":
		return SortNewest, true
	}
	return SortNewest, false
}

// Pagination defaults for game listings.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// GameQuery filters, sorts, and pages a game listing.
type GameQuery struct {
	CategoryID string
	Search     string
	Sort       GameSort
	Page       int
	Limit      int
}

// Normalize clamps Page and Limit into their allowed ranges.
func (q GameQuery) Normalize() GameQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// Offset returns the number of rows to skip for the requested page.
func (q GameQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// GamePage is one page of a game listing.
type GamePage struct {
	Data       []Game `json:"data"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}

// NewGamePage builds a page from a slice of games, the unpaged total, and
// the (normalized) query that produced them.
func NewGamePage(items []Game, total int, q GameQuery) *GamePage {
	if items == nil {
		items = []Game{}
	}
	totalPages := 0
	if q.Limit > 0 {
		totalPages = (total + q.Limit - 1) / q.Limit
	}
	return &GamePage{
		Data:       items,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages,
	}
}

// GameTotals aggregates counters across every game.
type GameTotals struct {
	Games int   `json:"games"`
	Views int64 `json:"views"`
	Likes int64 `json:"likes"`
}
