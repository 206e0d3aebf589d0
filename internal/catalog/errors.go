package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"stonegames/internal/objectid"
	"stonegames/internal/repository"
)

var (
	// ErrInvalidIdentifier is returned for malformed ids before any storage
	// access happens.
	ErrInvalidIdentifier = objectid.ErrInvalid

	// ErrNotFound is returned when a well-formed id matches no record.
	ErrNotFound = errors.New("not found")

	// ErrCategoryNotFound is returned when a game operation references a
	// category that does not exist. It also matches ErrNotFound.
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)

	// ErrDuplicateName is returned when a category's (name, nameEn) pair is
	// already taken.
	ErrDuplicateName = errors.New("category name already exists")

	// ErrCategoryInUse is matched by *CategoryInUseError.
	ErrCategoryInUse = errors.New("category still has games")

	// ErrStorageUnavailable wraps unexpected storage failures. The service
	// never retries them.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvalidInput is matched by *ValidationError.
	ErrInvalidInput = errors.New("invalid input")
)

// CategoryInUseError reports a blocked category deletion.
type CategoryInUseError struct {
	CategoryID string
	Games      int
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("category %s still has %d game(s)", e.CategoryID, e.Games)
}

// Is makes errors.Is(err, ErrCategoryInUse) match.
func (e *CategoryInUseError) Is(target error) bool {
	return target == ErrCategoryInUse
}

// ValidationError lists rejected payload fields, keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrInvalidInput) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// translate maps repository errors onto the catalog taxonomy. Anything the
// catalog does not recognize is reported as ErrStorageUnavailable with the
// original cause attached.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, objectid.ErrInvalid):
		return ErrInvalidIdentifier
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicateKey):
		return ErrDuplicateName
	case errors.Is(err, repository.ErrMissingReference):
		return ErrCategoryNotFound
	case errors.Is(err, repository.ErrInUse):
		return &CategoryInUseError{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case isCatalogError(err):
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

// isCatalogError reports whether err already belongs to the taxonomy.
func isCatalogError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrDuplicateName, ErrCategoryInUse,
		ErrStorageUnavailable, ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
