package stock

import (
	"context"
	"fmt"

	"stockreturn/internal/core/apperror"
	"stockreturn/internal/core/id"
	"stockreturn/pkg/logger"
)

// Service provides business operations for the stock register.
// Transactions are managed by the caller.
type Service struct {
	repo Repository
}

// NewService creates a new stock register service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// RecordMovements validates and appends movements.
func (s *Service) RecordMovements(ctx context.Context, movements []StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	for i, m := range movements {
		if m.Quantity <= 0 {
			return apperror.NewValidation(fmt.Sprintf("movement %d: quantity must be positive", i))
		}
		if id.IsNil(m.RecorderID) {
			return apperror.NewValidation(fmt.Sprintf("movement %d: recorder_id is required", i))
		}
		if m.CompanyID == "" {
			return apperror.NewValidation(fmt.Sprintf("movement %d: company_id is required", i))
		}
	}

	inserted, err := s.repo.CreateMovements(ctx, movements)
	if err != nil {
		return fmt.Errorf("create movements: %w", err)
	}

	if inserted < int64(len(movements)) {
		logger.Debug(ctx, "skipped already recorded stock movements",
			"recorder_id", movements[0].RecorderID,
			"skipped", int64(len(movements))-inserted,
		)
	}

	logger.Info(ctx, "recorded stock movements",
		"count", inserted,
		"recorder_id", movements[0].RecorderID,
	)

	return nil
}

// ListByItem returns the movement history of one item.
func (s *Service) ListByItem(ctx context.Context, companyID string, itemID id.ID, filter MovementFilter) ([]StockMovement, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.ListByItem(ctx, companyID, itemID, filter)
}

// GetByRecorder returns the movements a document produced.
func (s *Service) GetByRecorder(ctx context.Context, recorderID id.ID) ([]StockMovement, error) {
	return s.repo.GetMovementsByRecorder(ctx, recorderID)
}
