package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"stonegames/internal/models"
)

// Defaults for the landing page and the sync log.
const (
	defaultHomeLimit = 8
	maxHomeLimit     = 24
)

// parseGameQuery reads categoryId, search, sortBy, page and limit. Missing
// or malformed numbers fall back to their defaults and an unknown sort key
// means newest first; the catalog clamps the rest.
func parseGameQuery(v url.Values) models.GameQuery {
	sort, _ := models.ParseGameSort(strings.TrimSpace(v.Get("sortBy")))
	return models.GameQuery{
		CategoryID: v.Get("categoryId"),
		Search:     v.Get("search"),
		Sort:       sort,
		Page:       intParam(v, "page", models.DefaultPage),
		Limit:      intParam(v, "limit", models.DefaultLimit),
	}
}

// intParam parses a positive integer query parameter.
func intParam(v url.Values, key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v.Get(key)))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
