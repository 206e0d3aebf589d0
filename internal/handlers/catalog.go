// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers exposes the catalog service as a JSON API.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stonegames/internal/catalog"
)

// Catalog serves the category, game and maintenance endpoints.
type Catalog struct {
	svc *catalog.Service
}

// NewCatalog creates a Catalog handler over svc.
func NewCatalog(svc *catalog.Service) *Catalog {
	return &Catalog{svc: svc}
}

// --- Categories ---

// ListCategories handles GET /api/categories.
func (h *Catalog) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetCategory handles GET /api/categories/{id}.
func (h *Catalog) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateCategory handles POST /api/categories.
func (h *Catalog) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in catalog.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		badRequest(w, err.Error())
		return
	}
	c, err := h.svc.CreateCategory(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCategory handles PUT /api/categories/{id}.
func (h *Catalog) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in catalog.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		badRequest(w, err.Error())
		return
	}
	c, err := h.svc.UpdateCategory(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCategory handles DELETE /api/categories/{id}. A category that
// still has games is refused with 409 and the number of blocking games.
func (h *Catalog) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

// --- Games ---

// ListGames handles GET /api/games.
func (h *Catalog) ListGames(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListGames(r.Context(), parseGameQuery(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetGame handles GET /api/games/{id}. Every successful read counts as a
// view.
func (h *Catalog) GetGame(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.GetGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// CreateGame handles POST /api/games.
func (h *Catalog) CreateGame(w http.ResponseWriter, r *http.Request) {
	var in catalog.GameInput
	if err := decodeJSON(w, r, &in); err != nil {
		badRequest(w, err.Error())
		return
	}
	g, err := h.svc.CreateGame(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// UpdateGame handles PUT /api/games/{id}. Only the fields present in the
// body change.
func (h *Catalog) UpdateGame(w http.ResponseWriter, r *http.Request) {
	var patch catalog.GamePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		badRequest(w, err.Error())
		return
	}
	g, err := h.svc.UpdateGame(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// DeleteGame handles DELETE /api/games/{id}.
func (h *Catalog) DeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteGame(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "game deleted"})
}

// LikeGame handles POST /api/games/{id}/like.
func (h *Catalog) LikeGame(w http.ResponseWriter, r *http.Request) {
	likes, err := h.svc.LikeGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"likes": likes})
}

// ViewGame handles POST /api/games/{id}/view.
func (h *Catalog) ViewGame(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ViewGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"views": views})
}

// --- Overview ---

// Home handles GET /api/home.
func (h *Catalog) Home(w http.ResponseWriter, r *http.Request) {
	limit := min(intParam(r.URL.Query(), "limit", defaultHomeLimit), maxHomeLimit)
	home, err := h.svc.Home(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, home)
}

// Stats handles GET /api/stats.
func (h *Catalog) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- Maintenance ---

// Reconcile handles POST /api/admin/reconcile.
func (h *Catalog) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Reconcile(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// SyncLog handles GET /api/admin/sync-log.
func (h *Catalog) SyncLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.SyncLog(r.Context(), intParam(r.URL.Query(), "limit", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
