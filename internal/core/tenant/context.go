package tenant

import (
	"context"
	"errors"
)

// Context keys for tenant-related values.
type ctxKey int

const (
	tenantKey ctxKey = iota
)

// ErrNoTenantInContext is returned when a company-scoped operation runs
// without a resolved tenant.
var ErrNoTenantInContext = errors.New("tenant not found in context")

// WithTenant stores tenant info in context.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

// GetTenant retrieves tenant from context.
func GetTenant(ctx context.Context) *Tenant {
	t, _ := ctx.Value(tenantKey).(*Tenant)
	return t
}

// GetTenantID returns tenant ID or empty string.
func GetTenantID(ctx context.Context) string {
	if t := GetTenant(ctx); t != nil {
		return t.ID
	}
	return ""
}

// RequireTenantID returns the tenant ID or ErrNoTenantInContext.
func RequireTenantID(ctx context.Context) (string, error) {
	if tid := GetTenantID(ctx); tid != "" {
		return tid, nil
	}
	return "", ErrNoTenantInContext
}
