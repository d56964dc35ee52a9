// Package id issues the identifiers of returns, items and register lines.
package id

import "github.com/google/uuid"

// ID identifies any stored row.
type ID = uuid.UUID

// New returns a UUIDv7. Its leading timestamp keeps returns and movements
// roughly in creation order inside B-tree indexes.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse reads an ID from its text form.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// Nil is the zero ID.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether v is the zero ID.
func IsNil(v ID) bool {
	return v == uuid.Nil
}
