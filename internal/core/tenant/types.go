// Package tenant provides company (tenant) records and request scoping.
// All business data is partitioned by company_id in a shared schema.
package tenant

import (
	"strings"
	"time"
)

// Status represents tenant lifecycle state.
type Status string

const (
	// StatusActive - tenant can accept requests
	StatusActive Status = "active"

	// StatusSuspended - tenant is temporarily disabled (e.g., payment issues)
	StatusSuspended Status = "suspended"

	// StatusDeleted - tenant is marked for deletion
	StatusDeleted Status = "deleted"
)

// Tenant is a company record. Code is the short identifier printed in
// document numbers (e.g. GR-ACME-20240115-0001).
type Tenant struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// IsActive returns true if tenant can accept requests.
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// NumberCode returns the code normalized for document numbers,
// or fallback when the company has no code.
func (t *Tenant) NumberCode(fallback string) string {
	if t == nil {
		return fallback
	}
	code := strings.ToUpper(strings.TrimSpace(t.Code))
	if code == "" {
		return fallback
	}
	return code
}
