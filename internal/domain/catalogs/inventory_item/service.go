package inventory_item

import (
	"context"

	"stockreturn/internal/core/apperror"
	"stockreturn/internal/core/id"
	"stockreturn/internal/core/tenant"
	"stockreturn/internal/domain/registers/stock"
)

// MovementLister reads the stock register for one item.
type MovementLister interface {
	ListByItem(ctx context.Context, companyID string, itemID id.ID, filter stock.MovementFilter) ([]stock.StockMovement, error)
}

// Service exposes read access to inventory items for the caller's company.
type Service struct {
	repo      Repository
	movements MovementLister
}

// NewService creates a new inventory item service.
func NewService(repo Repository, movements MovementLister) *Service {
	return &Service{repo: repo, movements: movements}
}

// Get returns an item of the caller's company. Items of other companies
// are reported as Forbidden.
func (s *Service) Get(ctx context.Context, itemID id.ID) (*Item, error) {
	companyID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, apperror.NewForbidden("company context is required")
	}

	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.BelongsTo(companyID) {
		return nil, apperror.NewForbidden("inventory item belongs to another company").
			WithDetail("item_id", itemID.String())
	}
	return item, nil
}

// Movements returns the stock register history of an item.
func (s *Service) Movements(ctx context.Context, itemID id.ID, filter stock.MovementFilter) ([]stock.StockMovement, error) {
	item, err := s.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.movements.ListByItem(ctx, item.CompanyID, item.ID, filter)
}
