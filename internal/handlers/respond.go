// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"stonegames/internal/catalog"
	"stonegames/internal/middleware"
)

// maxBodyBytes caps request payloads. Game content is the largest field.
const maxBodyBytes = 1 << 20

// statusClientClosedRequest is written when the client went away before the
// operation finished. It only shows up in access logs.
const statusClientClosedRequest = 499

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string            `json:"error"`
	Games  *int              `json:"games,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// writeJSON writes data as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a single JSON value from the request body into v.
// Unknown fields are ignored so clients may send back whole records.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: trailing data")
	}
	return nil
}

// writeError maps a catalog error onto an HTTP status and JSON body.
// Unexpected errors are logged; their details never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		inUse *catalog.CategoryInUseError
		verr  *catalog.ValidationError
	)
	switch {
	case errors.Is(err, catalog.ErrInvalidIdentifier):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid input", Fields: verr.Fields})
	case errors.Is(err, catalog.ErrCategoryNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "category not found"})
	case errors.Is(err, catalog.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, catalog.ErrDuplicateName):
		writeJSON(w, http.StatusConflict, errorBody{Error: "category name already exists"})
	case errors.As(err, &inUse):
		games := inUse.Games
		writeJSON(w, http.StatusConflict, errorBody{Error: "category still has games", Games: &games})
	case errors.Is(err, context.Canceled):
		slog.Debug("request cancelled", "path", r.URL.Path, "request_id", middleware.RequestIDFrom(r.Context()))
		writeJSON(w, statusClientClosedRequest, errorBody{Error: "request cancelled"})
	case errors.Is(err, catalog.ErrStorageUnavailable), errors.Is(err, context.DeadlineExceeded):
		slog.Error("storage unavailable",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFrom(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "storage unavailable"})
	default:
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFrom(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

// badRequest writes a 400 with a plain message.
func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
