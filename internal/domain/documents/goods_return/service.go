package goods_return

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"stockreturn/internal/core/apperror"
	"stockreturn/internal/core/entity"
	"stockreturn/internal/core/id"
	"stockreturn/internal/core/tenant"
	"stockreturn/internal/core/tx"
	"stockreturn/internal/domain"
	"stockreturn/internal/domain/audit"
	"stockreturn/internal/domain/catalogs/inventory_item"
	"stockreturn/internal/domain/registers/stock"
	"stockreturn/pkg/logger"
)

// AuditEntity is the entity type of goods return rows in the audit log.
const AuditEntity = "goods_return"

var tracer = otel.Tracer("stockreturn/goods_return")

// MovementRecorder accepts stock movements for recording after the
// return commits. A failure must leave the caller's transaction usable.
type MovementRecorder interface {
	RecordReturnMovement(ctx context.Context, movement stock.StockMovement) error
}

// Config holds service-level switches.
type Config struct {
	// ApprovalRequired starts every new return in pending_approval.
	ApprovalRequired bool
}

// Service provides business operations for goods returns.
type Service struct {
	repo      Repository
	items     inventory_item.Repository
	numbers   *NumberGenerator
	movements MovementRecorder
	audit     audit.Logger
	txManager tx.Manager
	cfg       Config

	now func() time.Time
}

// NewService creates a new goods return service.
func NewService(
	repo Repository,
	items inventory_item.Repository,
	numbers *NumberGenerator,
	movements MovementRecorder,
	auditLog audit.Logger,
	txManager tx.Manager,
	cfg Config,
) *Service {
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	return &Service{
		repo:      repo,
		items:     items,
		numbers:   numbers,
		movements: movements,
		audit:     auditLog,
		txManager: txManager,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func companyFromContext(ctx context.Context) (string, error) {
	companyID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return "", apperror.NewForbidden("company context is required")
	}
	return companyID, nil
}

// Create records a goods return and removes its quantity from stock.
// The stock update, the number and the document commit together; the stock
// movement and the audit entry are best effort.
func (s *Service) Create(ctx context.Context, in CreateInput) (*GoodsReturn, error) {
	ctx, span := tracer.Start(ctx, "goods_return.Create")
	defer span.End()

	companyID, err := companyFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	actor := audit.Actor(ctx)
	now := s.now()
	returnDate := now
	if in.ReturnDate != nil {
		returnDate = in.ReturnDate.UTC()
	}

	var doc *GoodsReturn
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.items.GetByID(ctx, in.InventoryItemID)
		if err != nil {
			return err
		}
		if !item.BelongsTo(companyID) {
			return apperror.NewForbidden("inventory item belongs to another company").
				WithDetail("inventory_item_id", in.InventoryItemID.String())
		}

		total := in.TotalQuantity()
		if total > item.CurrentStock {
			return apperror.NewInsufficientStock(item.ID.String(), total, item.CurrentStock)
		}

		valuation := Value(item.ResolveUnitCost(in.UnitCostOverride), in.DamagedQuantity, in.ReturnedQuantity)

		number, err := s.numbers.Generate(ctx, companyID, now)
		if err != nil {
			return err
		}

		adj := inventory_item.ReturnAdjustment{Damaged: in.DamagedQuantity, Returned: in.ReturnedQuantity}
		levels, err := s.items.ApplyReturn(ctx, companyID, item.ID, adj)
		if err != nil {
			if errors.Is(err, inventory_item.ErrInsufficientStock) {
				return s.insufficientStock(ctx, item, total)
			}
			return fmt.Errorf("apply stock adjustment: %w", err)
		}

		stockBefore, damagedBefore, returnedBefore := levels.Before(adj)
		doc = &GoodsReturn{
			BaseDocument:          entity.NewBaseDocument(actor),
			CompanyID:             companyID,
			ReturnNumber:          number,
			ReturnDate:            returnDate,
			InventoryItemID:       item.ID,
			ItemCode:              item.Code,
			ItemName:              item.Name,
			Unit:                  item.Unit,
			OriginalChallanNumber: in.OriginalChallanNumber,
			OriginalChallanDate:   in.OriginalChallanDate,
			DamagedQuantity:       in.DamagedQuantity,
			ReturnedQuantity:      in.ReturnedQuantity,
			TotalQuantity:         total,
			Valuation:             valuation,
			StockImpact: StockImpact{
				InventoryStockBefore: stockBefore,
				InventoryStockAfter:  levels.CurrentStock,
				DamagedStockBefore:   damagedBefore,
				DamagedStockAfter:    levels.Damaged,
				ReturnedStockBefore:  returnedBefore,
				ReturnedStockAfter:   levels.Returned,
			},
			ReturnReason:      in.ReturnReason,
			ReasonDetails:     in.ReasonDetails,
			BatchNumber:       in.BatchNumber,
			LotNumber:         in.LotNumber,
			SupplierReference: in.SupplierReference,
			Remarks:           in.Remarks,
		}
		doc.initState(in.ApprovalRequired || s.cfg.ApprovalRequired, actor, now)

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create goods return: %w", err)
		}

		if doc.DamagedQuantity > 0 {
			s.recordMovement(ctx, stock.NewGoodsReturnMovement(
				doc.ID, doc.ReturnNumber, doc.ReturnDate, companyID,
				item.ID, item.Code, doc.DamagedQuantity, doc.UnitCost,
				stockBefore, levels.CurrentStock,
			))
		}

		s.logAudit(ctx, doc.ID, audit.ActionCreate, map[string]any{
			"returnNumber":     doc.ReturnNumber,
			"inventoryItemId":  doc.InventoryItemID.String(),
			"damagedQuantity":  doc.DamagedQuantity,
			"returnedQuantity": doc.ReturnedQuantity,
			"totalValue":       doc.TotalValue.String(),
			"stockImpact":      doc.StockImpact,
			"state":            doc.State,
		})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("goods_return.id", doc.ID.String()),
		attribute.String("goods_return.number", doc.ReturnNumber),
	)
	logger.Info(ctx, "goods return created",
		"id", doc.ID,
		"number", doc.ReturnNumber,
		"item_id", doc.InventoryItemID,
		"damaged", doc.DamagedQuantity,
		"returned", doc.ReturnedQuantity,
		"stock_after", doc.StockImpact.InventoryStockAfter,
	)
	return doc, nil
}

// insufficientStock re-reads the item so the error reports what is there now.
func (s *Service) insufficientStock(ctx context.Context, item *inventory_item.Item, requested int64) error {
	available := item.CurrentStock
	if fresh, err := s.items.GetByID(ctx, item.ID); err == nil {
		available = fresh.CurrentStock
	}
	return apperror.NewInsufficientStock(item.ID.String(), requested, available)
}

func (s *Service) recordMovement(ctx context.Context, movement stock.StockMovement) {
	if s.movements == nil {
		return
	}
	if err := s.movements.RecordReturnMovement(ctx, movement); err != nil {
		logger.Warn(ctx, "stock movement not recorded",
			"recorder_id", movement.RecorderID,
			"record_type", movement.RecordType,
			"error", err,
		)
	}
}

func (s *Service) logAudit(ctx context.Context, docID id.ID, action audit.Action, changes map[string]any) {
	if err := s.audit.LogChange(ctx, AuditEntity, docID, action, changes); err != nil {
		logger.Warn(ctx, "audit entry not written", "id", docID, "action", action, "error", err)
	}
}

// Get retrieves a goods return of the current company.
func (s *Service) Get(ctx context.Context, docID id.ID) (*GoodsReturn, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, companyID, docID)
}

// GetByNumber retrieves a goods return by its return number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*GoodsReturn, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return nil, err
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, apperror.NewValidation("return number is required")
	}
	return s.repo.GetByNumber(ctx, companyID, number)
}

// List retrieves goods returns of the current company with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*GoodsReturn], error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return domain.ListResult[*GoodsReturn]{}, err
	}
	filter.CompanyID = companyID
	filter.Normalize()

	if filter.OrderBy != "" {
		if _, ok := SortFields[strings.TrimLeft(filter.OrderBy, "+-")]; !ok {
			return domain.ListResult[*GoodsReturn]{}, apperror.NewValidation("unsupported sort field").
				WithDetail("field", "orderBy").
				WithDetail("value", filter.OrderBy)
		}
	}
	for _, st := range filter.States {
		if !st.IsValid() {
			return domain.ListResult[*GoodsReturn]{}, apperror.NewValidation("unknown state").
				WithDetail("value", string(st))
		}
	}
	for _, r := range filter.Reasons {
		if !r.IsValid() {
			return domain.ListResult[*GoodsReturn]{}, apperror.NewValidation("unknown return reason").
				WithDetail("value", string(r))
		}
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return domain.ListResult[*GoodsReturn]{}, apperror.NewValidation("dateTo is before dateFrom")
	}

	return s.repo.List(ctx, filter)
}

// ChallanSummary returns the active returns against a challan with totals.
// It never writes.
func (s *Service) ChallanSummary(ctx context.Context, challanNumber string) (*ChallanReturns, error) {
	companyID, err := companyFromContext(ctx)
	if err != nil {
		return nil, err
	}
	challanNumber = strings.TrimSpace(challanNumber)
	if challanNumber == "" {
		return nil, apperror.NewValidation("challan number is required")
	}

	var returns []*GoodsReturn
	err = s.readOnly(ctx, func(ctx context.Context) error {
		var err error
		returns, err = s.repo.ListActiveByChallan(ctx, companyID, challanNumber)
		return err
	})
	if err != nil {
		return nil, err
	}

	returns = activeByDateDesc(returns)
	return &ChallanReturns{
		ChallanNumber: challanNumber,
		Returns:       returns,
		Summary:       Summarize(returns),
	}, nil
}

func (s *Service) readOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if ro, ok := s.txManager.(tx.ReadOnlyManager); ok {
		return ro.ReadOnly(ctx, fn)
	}
	return fn(ctx)
}

// Approve approves a pending return.
func (s *Service) Approve(ctx context.Context, docID id.ID, remarks string) (*GoodsReturn, error) {
	return s.transition(ctx, docID, audit.ActionApprove, func(doc *GoodsReturn, actor string, at time.Time) error {
		return doc.Approve(actor, remarks, at)
	})
}

// Reject rejects a pending return and puts its quantity back into stock.
func (s *Service) Reject(ctx context.Context, docID id.ID, remarks string) (*GoodsReturn, error) {
	return s.transition(ctx, docID, audit.ActionReject, func(doc *GoodsReturn, actor string, at time.Time) error {
		return doc.Reject(actor, remarks, at)
	})
}

// MarkProcessed completes an approved return.
func (s *Service) MarkProcessed(ctx context.Context, docID id.ID) (*GoodsReturn, error) {
	return s.transition(ctx, docID, audit.ActionProcess, func(doc *GoodsReturn, actor string, at time.Time) error {
		return doc.MarkProcessed(actor, at)
	})
}

// Cancel cancels an unprocessed return and puts its quantity back into stock.
func (s *Service) Cancel(ctx context.Context, docID id.ID, reason string) (*GoodsReturn, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.NewValidation("cancellation reason is required").
			WithDetail("field", "reason")
	}
	return s.transition(ctx, docID, audit.ActionCancel, func(doc *GoodsReturn, actor string, at time.Time) error {
		return doc.Cancel(actor, reason, at)
	})
}

// transition locks the return, applies a workflow step and persists it.
// A return that stops being active gives its quantity back to the item.
func (s *Service) transition(
	ctx context.Context,
	docID id.ID,
	action audit.Action,
	apply func(doc *GoodsReturn, actor string, at time.Time) error,
) (*GoodsReturn, error) {
	ctx, span := tracer.Start(ctx, "goods_return."+string(action))
	defer span.End()

	companyID, err := companyFromContext(ctx)
	if err != nil {
		return nil, err
	}
	actor := audit.Actor(ctx)
	now := s.now()

	var doc *GoodsReturn
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, companyID, docID)
		if err != nil {
			return err
		}

		from := current.State
		wasActive := current.IsActive()
		if err := apply(current, actor, now); err != nil {
			return err
		}
		current.Touch(actor)

		if wasActive && !current.IsActive() {
			if err := s.reverse(ctx, current); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateState(ctx, current); err != nil {
			return err
		}

		s.logAudit(ctx, current.ID, action, map[string]any{
			"from": from,
			"to":   current.State,
		})
		doc = current
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger.Info(ctx, "goods return state changed",
		"id", doc.ID,
		"number", doc.ReturnNumber,
		"action", action,
		"state", doc.State,
	)
	return doc, nil
}

func (s *Service) reverse(ctx context.Context, doc *GoodsReturn) error {
	adj := inventory_item.ReturnAdjustment{Damaged: doc.DamagedQuantity, Returned: doc.ReturnedQuantity}
	levels, err := s.items.ReverseReturn(ctx, doc.CompanyID, doc.InventoryItemID, adj)
	if err != nil {
		return fmt.Errorf("reverse stock adjustment: %w", err)
	}

	if doc.DamagedQuantity > 0 {
		s.recordMovement(ctx, stock.NewGoodsReturnReversal(
			doc.ID, doc.ReturnNumber, s.now(), doc.CompanyID,
			doc.InventoryItemID, doc.ItemCode, doc.DamagedQuantity, doc.UnitCost,
			levels.CurrentStock-adj.Total(), levels.CurrentStock,
		))
	}
	return nil
}
