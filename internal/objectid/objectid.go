// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package objectid validates and generates catalog identifiers. Identifiers
// are 12-byte object IDs rendered as 24 lowercase hexadecimal characters.
package objectid

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalid is returned when an identifier does not have the expected shape.
var ErrInvalid = errors.New("invalid identifier")

// Length is the number of characters in a rendered identifier.
const Length = 24

// placeholders are values produced by client-side templating when an id
// variable was never bound. They are rejected explicitly so log lines make
// the cause obvious.
var placeholders = map[string]bool{
	"":          true,
	"undefined": true,
	"null":      true,
	"NaN":       true,
}

// IsValid reports whether raw is a well-formed identifier. It never touches
// storage and has no side effects.
func IsValid(raw string) bool {
	if placeholders[raw] || len(raw) != Length {
		return false
	}
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return false
	}
	// Hex() is always lowercase, so this also rejects uppercase input.
	return oid.Hex() == raw
}

// Check returns ErrInvalid if raw is not a well-formed identifier.
func Check(raw string) error {
	if !IsValid(raw) {
		return ErrInvalid
	}
	return nil
}

// New generates a fresh identifier.
func New() string {
	return primitive.NewObjectID().Hex()
}
