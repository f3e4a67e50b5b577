// Package id generates the opaque identifiers used for document lines,
// settings records and audit entries. Document references (FAC2024-0001)
// are produced by the numerator, not here.
package id

import (
	"github.com/google/uuid"
)

// ID is a type alias for UUID.
type ID = uuid.UUID

// New generates a time-ordered UUIDv7 so lines and audit rows sort by creation.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// NewString is New rendered as a string, for records keyed by text.
func NewString() string {
	return New().String()
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}
