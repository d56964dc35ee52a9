package goods_return

import (
	"context"
	"errors"
	"time"

	"stockreturn/internal/core/apperror"
	"stockreturn/internal/core/numerator"
	"stockreturn/internal/core/tenant"
)

const (
	// NumberPrefix starts every return number.
	NumberPrefix = "GR"

	// DefaultCompanyCode is printed when the company cannot be found.
	DefaultCompanyCode = "COMP"

	// NumeratorStrategy is strict: returns are accounting documents and
	// the counter runs on the creating transaction.
	NumeratorStrategy = numerator.StrategyStrict
)

// NumberGenerator issues GR-{companyCode}-{YYYYMMDD}-{NNNN} numbers from a
// counter kept per company and calendar day.
type NumberGenerator struct {
	seq          numerator.Generator
	companies    tenant.Registry
	location     *time.Location
	fallbackCode string
}

// NewNumberGenerator creates a generator. Days are cut in loc (UTC when nil).
func NewNumberGenerator(seq numerator.Generator, companies tenant.Registry, loc *time.Location, fallbackCode string) *NumberGenerator {
	if loc == nil {
		loc = time.UTC
	}
	if fallbackCode == "" {
		fallbackCode = DefaultCompanyCode
	}
	return &NumberGenerator{
		seq:          seq,
		companies:    companies,
		location:     loc,
		fallbackCode: fallbackCode,
	}
}

// Generate returns the next number for the company on the day of at.
// A missing company falls back to the placeholder code; any other lookup or
// counter failure is a generation failure.
func (g *NumberGenerator) Generate(ctx context.Context, companyID string, at time.Time) (string, error) {
	company, err := g.companies.GetByID(ctx, companyID)
	if err != nil {
		if !errors.Is(err, tenant.ErrTenantNotFound) {
			return "", apperror.NewGenerationFailed("goods return", err)
		}
		company = nil
	}

	cfg := numerator.DailyConfig(NumberPrefix, companyID, company.NumberCode(g.fallbackCode))
	number, err := g.seq.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, at.In(g.location))
	if err != nil {
		return "", apperror.NewGenerationFailed("goods return", err)
	}
	return number, nil
}
