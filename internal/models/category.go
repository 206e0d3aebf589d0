// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import "time"

// DefaultIcon is shown for categories created without an icon.
const DefaultIcon = "🎮"

// Category groups games in the catalog. Count is a denormalized cache of
// the number of games whose CategoryID equals ID; it is maintained by the
// catalog service and repaired by reconciliation.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	NameEn    string    `json:"nameEn"`
	Icon      string    `json:"icon"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CategorySummary is the subset of a category embedded in game responses.
type CategorySummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	NameEn string `json:"nameEn"`
	Icon   string `json:"icon"`
}

// Summary returns the embeddable view of the category.
func (c *Category) Summary() *CategorySummary {
	icon := c.Icon
	if icon == "" {
		icon = DefaultIcon
	}
	return &CategorySummary{ID: c.ID, Name: c.Name, NameEn: c.NameEn, Icon: icon}
}
