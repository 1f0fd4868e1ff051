// Package repository implements MySQL persistence for all entities.
// Sentinel errors let handlers map storage failures onto HTTP codes
// without inspecting driver details.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a row does not exist or is excluded by
// the soft-delete predicate. Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert or update violates a unique
// constraint (email, tour name, one review per tour and user).
// Handlers translate it into HTTP 409.
var ErrDuplicate = errors.New("duplicate record")

// isDuplicateErr detects MySQL error 1062 (duplicate entry).
func isDuplicateErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
