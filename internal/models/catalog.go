package models

import "time"

// Stats summarizes the catalog for dashboards.
type Stats struct {
	TotalGames      int   `json:"totalGames"`
	TotalCategories int   `json:"totalCategories"`
	TotalViews      int64 `json:"totalViews"`
	TotalLikes      int64 `json:"totalLikes"`
}

// Home is the landing-page payload: every category plus two short game
// lists.
type Home struct {
	Categories []Category `json:"categories"`
	Popular    []Game     `json:"popular"`
	Newest     []Game     `json:"newest"`
}

// DriftEntry describes one category whose stored count disagreed with the
// number of games referencing it.
type DriftEntry struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Stored     int    `json:"stored"`
	Actual     int    `json:"actual"`
}

// ReconcileReport is the outcome of a reconciliation pass.
type ReconcileReport struct {
	Checked   int          `json:"checked"`
	Repaired  []DriftEntry `json:"repaired"`
	StartedAt time.Time    `json:"startedAt"`
	Duration  string       `json:"duration"`
}

// SyncLogEntry records a count mutation that failed and may have left a
// category's count out of step with its games.
type SyncLogEntry struct {
	ID         int64     `json:"id"`
	CategoryID string    `json:"categoryId"`
	Delta      int       `json:"delta"`
	Reason     string    `json:"reason"`
	Error      string    `json:"error"`
	LoggedAt   time.Time `json:"loggedAt"`
}
