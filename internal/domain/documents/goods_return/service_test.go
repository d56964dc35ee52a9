package goods_return

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stockreturn/internal/core/apperror"
	appctx "stockreturn/internal/core/context"
	"stockreturn/internal/core/entity"
	"stockreturn/internal/core/id"
	"stockreturn/internal/core/numerator"
	"stockreturn/internal/core/tenant"
	"stockreturn/internal/core/types"
	"stockreturn/internal/domain"
	"stockreturn/internal/domain/catalogs/inventory_item"
	"stockreturn/internal/domain/registers/stock"
)

const (
	companyA = "company-a"
	companyB = "company-b"
)

type fixture struct {
	svc      *Service
	items    *memItems
	repo     *memRepo
	registry *memRegistry
	recorder *MockMovementRecorder
	item     *inventory_item.Item
}

func newItem(companyID, code string, stockQty int64, avgCost string) *inventory_item.Item {
	return &inventory_item.Item{
		ID:        id.New(),
		CompanyID: companyID,
		Code:      code,
		Name:      "Item " + code,
		Unit:      "pcs",
		Stock: inventory_item.Stock{
			CurrentStock:   stockQty,
			AvailableStock: stockQty,
			AverageCost:    types.MustMoney(avgCost),
			TotalValue:     types.Extend(types.MustMoney(avgCost), stockQty),
		},
		Version: 1,
	}
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	item := newItem(companyA, "ITM-001", 100, "50")
	items := newMemItems(item)
	repo := newMemRepo()
	registry := &memRegistry{companies: map[string]*tenant.Tenant{
		companyA: {ID: companyA, Code: "acme", Status: tenant.StatusActive},
		companyB: {ID: companyB, Code: "BETA", Status: tenant.StatusActive},
	}}
	recorder := new(MockMovementRecorder)
	recorder.On("RecordReturnMovement", mock.Anything, mock.Anything).Return(nil).Maybe()

	numbers := NewNumberGenerator(&numerator.MockGenerator{}, registry, time.UTC, "")
	svc := NewService(repo, items, numbers, recorder, nil, passThroughTx{}, cfg)
	svc.now = func() time.Time { return fixedNow }

	return &fixture{svc: svc, items: items, repo: repo, registry: registry, recorder: recorder, item: item}
}

func companyCtx(companyID string) context.Context {
	ctx := tenant.WithTenant(context.Background(), &tenant.Tenant{ID: companyID})
	return appctx.WithUser(ctx, &appctx.UserContext{UserID: "user-1", TenantID: companyID})
}

func input(itemID id.ID, damaged, returned int64) CreateInput {
	return CreateInput{
		InventoryItemID:       itemID,
		DamagedQuantity:       damaged,
		ReturnedQuantity:      returned,
		OriginalChallanNumber: "CH-2024-001",
	}
}

func requireCode(t *testing.T, err error, code string) *apperror.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
	return appErr
}

func TestCreate_ExampleScenario(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := companyCtx(companyA)

	doc, err := f.svc.Create(ctx, input(f.item.ID, 10, 5))
	require.NoError(t, err)

	assert.Equal(t, "GR-ACME-20240115-0001", doc.ReturnNumber)
	assert.Equal(t, int64(15), doc.TotalQuantity)
	assert.True(t, doc.UnitCost.Equal(types.MustMoney("50")))
	assert.True(t, doc.DamagedValue.Equal(types.MustMoney("500")))
	assert.True(t, doc.ReturnedValue.Equal(types.MustMoney("250")))
	assert.True(t, doc.TotalValue.Equal(types.MustMoney("750")))
	assert.Equal(t, StockImpact{
		InventoryStockBefore: 100,
		InventoryStockAfter:  85,
		DamagedStockBefore:   0,
		DamagedStockAfter:    10,
		ReturnedStockBefore:  0,
		ReturnedStockAfter:   5,
	}, doc.StockImpact)
	assert.Equal(t, "ITM-001", doc.ItemCode)
	assert.Equal(t, "user-1", doc.CreatedBy)

	assert.Equal(t, StateApproved, doc.State)
	assert.Equal(t, ApprovalApproved, doc.Approval.Status)
	assert.Equal(t, ReturnApproved, doc.ReturnStatus)
	assert.Equal(t, StatusActive, doc.Status)

	assert.Equal(t, int64(85), f.items.stockOf(f.item.ID))
	f.recorder.AssertCalled(t, "RecordReturnMovement", mock.Anything, mock.MatchedBy(func(m stock.StockMovement) bool {
		return m.RecorderID == doc.ID &&
			m.Quantity == 10 &&
			m.StockBefore == 100 &&
			m.StockAfter == 85 &&
			m.RecordType == entity.RecordTypeExpense &&
			m.Amount.Equal(types.MustMoney("500"))
	}))

	_, err = f.svc.Create(ctx, input(f.item.ID, 200, 0))
	appErr := requireCode(t, err, apperror.CodeInsufficientStock)
	assert.Equal(t, int64(85), appErr.Details["available"])
	assert.Equal(t, int64(200), appErr.Details["requested"])

	assert.Equal(t, int64(85), f.items.stockOf(f.item.ID))
	assert.Equal(t, 1, f.repo.createCalls)
}

func TestCreate_QuantityAndValuationInvariants(t *testing.T) {
	tests := []struct {
		name      string
		costPrice string
		override  string
		damaged   int64
		returned  int64
		wantUnit  string
	}{
		{"average cost", "", "", 3, 4, "50"},
		{"cost price wins over average", "42.5", "", 2, 0, "42.5"},
		{"override wins over cost price", "42.5", "19.99", 0, 7, "19.99"},
		{"zero override falls through", "42.5", "0", 1, 1, "42.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{})
			if tt.costPrice != "" {
				f.items.items[f.item.ID].CostPrice.Decimal = types.MustMoney(tt.costPrice)
				f.items.items[f.item.ID].CostPrice.Valid = true
			}
			in := input(f.item.ID, tt.damaged, tt.returned)
			if tt.override != "" {
				o := types.MustMoney(tt.override)
				in.UnitCostOverride = &o
			}

			doc, err := f.svc.Create(companyCtx(companyA), in)
			require.NoError(t, err)

			unit := types.MustMoney(tt.wantUnit)
			assert.Equal(t, doc.DamagedQuantity+doc.ReturnedQuantity, doc.TotalQuantity)
			assert.True(t, doc.UnitCost.Equal(unit))
			assert.True(t, doc.DamagedValue.Equal(types.Extend(unit, tt.damaged)))
			assert.True(t, doc.ReturnedValue.Equal(types.Extend(unit, tt.returned)))
			assert.True(t, doc.TotalValue.Equal(doc.DamagedValue.Add(doc.ReturnedValue)))
			assert.True(t, doc.TotalValue.Equal(types.Extend(unit, doc.TotalQuantity)))
		})
	}
}

func TestCreate_ZeroCostWhenNothingKnown(t *testing.T) {
	f := newFixture(t, Config{})
	f.items.items[f.item.ID].AverageCost = types.Zero()

	doc, err := f.svc.Create(companyCtx(companyA), input(f.item.ID, 1, 0))
	require.NoError(t, err)
	assert.True(t, doc.UnitCost.IsZero())
	assert.True(t, doc.TotalValue.IsZero())
}

func TestCreate_AccumulatorsFollowActiveReturns(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := companyCtx(companyA)

	first, err := f.svc.Create(ctx, input(f.item.ID, 3, 2))
	require.NoError(t, err)

	second, err := f.svc.Create(ctx, input(f.item.ID, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(3), second.StockImpact.DamagedStockBefore)
	assert.Equal(t, int64(7), second.StockImpact.DamagedStockAfter)
	assert.Equal(t, int64(2), second.StockImpact.ReturnedStockBefore)
	assert.Equal(t, int64(3), second.StockImpact.ReturnedStockAfter)
	assert.Equal(t, int64(95), second.StockImpact.InventoryStockBefore)
	assert.Equal(t, int64(90), second.StockImpact.InventoryStockAfter)

	_, err = f.svc.Cancel(ctx, first.ID, "entered twice")
	require.NoError(t, err)

	third, err := f.svc.Create(ctx, input(f.item.ID, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(4), third.StockImpact.DamagedStockBefore)
	assert.Equal(t, int64(1), third.StockImpact.ReturnedStockBefore)
	assert.Equal(t, int64(95), third.StockImpact.InventoryStockBefore)
}

func TestCreate_NumbersArePerCompanyAndDay(t *testing.T) {
	f := newFixture(t, Config{})
	itemB := newItem(companyB, "B-1", 10, "1")
	f.items.items[itemB.ID] = itemB

	ctxA := companyCtx(companyA)
	var numbers []string
	for i := 0; i < 3; i++ {
		doc, err := f.svc.Create(ctxA, input(f.item.ID, 1, 0))
		require.NoError(t, err)
		numbers = append(numbers, doc.ReturnNumber)
	}
	assert.Equal(t, []string{
		"GR-ACME-20240115-0001",
		"GR-ACME-20240115-0002",
		"GR-ACME-20240115-0003",
	}, numbers)

	docB, err := f.svc.Create(companyCtx(companyB), input(itemB.ID, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, "GR-BETA-20240115-0001", docB.ReturnNumber)

	f.svc.now = func() time.Time { return fixedNow.Add(24 * time.Hour) }
	next, err := f.svc.Create(ctxA, input(f.item.ID, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, "GR-ACME-20240116-0001", next.ReturnNumber)
}

func TestCreate_ConcurrentCallsNeverOversell(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := companyCtx(companyA)

	const callers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]bool)
		failed  int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := f.svc.Create(ctx, input(f.item.ID, 5, 5))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return
			}
			numbers[doc.ReturnNumber] = true
		}()
	}
	wg.Wait()

	assert.Len(t, numbers, 10)
	assert.Equal(t, 10, failed)
	assert.Equal(t, int64(0), f.items.stockOf(f.item.ID))
}

func TestCreate_StockTakenBetweenReadAndUpdate(t *testing.T) {
	f := newFixture(t, Config{})
	stale := &staleItems{memItems: f.items, staleStock: 1000}
	f.svc.items = stale

	_, err := f.svc.Create(companyCtx(companyA), input(f.item.ID, 150, 0))
	appErr := requireCode(t, err, apperror.CodeInsufficientStock)
	assert.Equal(t, int64(100), appErr.Details["available"])
	assert.Equal(t, int64(100), f.items.stockOf(f.item.ID))
	assert.Equal(t, 0, f.repo.createCalls)
}

// staleItems reports a higher stock on the first read, as if another
// request consumed stock right after it.
type staleItems struct {
	*memItems
	staleStock int64
	reads      int
}

func (s *staleItems) GetByID(ctx context.Context, itemID id.ID) (*inventory_item.Item, error) {
	item, err := s.memItems.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	s.reads++
	if s.reads == 1 {
		item.CurrentStock = s.staleStock
	}
	return item, nil
}

func TestCreate_RejectsInvalidQuantitiesWithoutWrites(t *testing.T) {
	tests := []struct {
		name     string
		damaged  int64
		returned int64
		message  string
	}{
		{"zero total", 0, 0, "total quantity must be greater than 0"},
		{"negative damaged", -1, 5, "damaged quantity cannot be negative"},
		{"negative returned", 5, -1, "returned quantity cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{})

			_, err := f.svc.Create(companyCtx(companyA), input(f.item.ID, tt.damaged, tt.returned))
			appErr := requireCode(t, err, apperror.CodeValidation)
			assert.Equal(t, tt.message, appErr.Message)

			assert.Equal(t, 0, f.items.applyCalls)
			assert.Equal(t, 0, f.repo.createCalls)
			assert.Equal(t, int64(100), f.items.stockOf(f.item.ID))
		})
	}
}

func TestCreate_MovementFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, Config{})
	failing := new(MockMovementRecorder)
	failing.On("RecordReturnMovement", mock.Anything, mock.Anything).Return(errors.New("outbox unavailable"))
	f.svc.movements = failing

	doc, err := f.svc.Create(companyCtx(companyA), input(f.item.ID, 10, 5))
	require.NoError(t, err)
	assert.Equal(t, int64(85), f.items.stockOf(f.item.ID))
	assert.Equal(t, 1, f.repo.createCalls)
	assert.Equal(t, int64(85), doc.StockImpact.InventoryStockAfter)
	failing.AssertNumberOfCalls(t, "RecordReturnMovement", 1)
}

func TestCreate_NoMovementWithoutDamage(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.svc.Create(companyCtx(companyA), input(f.item.ID, 0, 5))
	require.NoError(t, err)
	f.recorder.AssertNotCalled(t, "RecordReturnMovement", mock.Anything, mock.Anything)
}

func TestCreate_ItemErrors(t *testing.T) {
	t.Run("unknown item", func(t *testing.T) {
		f := newFixture(t, Config{})
		_, err := f.svc.Create(companyCtx(companyA), input(id.New(), 1, 0))
		requireCode(t, err, apperror.CodeNotFound)
	})

	t.Run("item of another company", func(t *testing.T) {
		f := newFixture(t, Config{})
		_, err := f.svc.Create(companyCtx(companyB), input(f.item.ID, 1, 0))
		requireCode(t, err, apperror.CodeForbidden)
		assert.Equal(t, int64(100), f.items.stockOf(f.item.ID))
	})

	t.Run("no company in context", func(t *testing.T) {
		f := newFixture(t, Config{})
		_, err := f.svc.Create(context.Background(), input(f.item.ID, 1, 0))
		requireCode(t, err, apperror.CodeForbidden)
	})
}

func TestCreate_NumberGeneration(t *testing.T) {
	t.Run("unknown company uses placeholder code", func(t *testing.T) {
		f := newFixture(t, Config{})
		delete(f.registry.companies, companyA)

		doc, err := f.svc.Create(companyCtx(companyA), input(f.item.ID, 1, 0))
		require.NoError(t, err)
		assert.Equal(t, "GR-COMP-20240115-0001", doc.ReturnNumber)
	})

	t.Run("lookup failure aborts creation", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.registry.err = errors.New("connection refused")

		_, err := f.svc.Create(companyCtx(companyA), input(f.item.ID, 1, 0))
		requireCode(t, err, apperror.CodeGenerationFailed)
		assert.Equal(t, 0, f.items.applyCalls)
		assert.Equal(t, 0, f.repo.createCalls)
	})

	t.Run("counter failure aborts creation", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.svc.numbers = NewNumberGenerator(&numerator.MockGenerator{
			GetNextNumberFunc: func(context.Context, numerator.Config, *numerator.Options, time.Time) (string, error) {
				return "", errors.New("sequence table locked")
			},
		}, f.registry, time.UTC, "")

		_, err := f.svc.Create(companyCtx(companyA), input(f.item.ID, 1, 0))
		requireCode(t, err, apperror.CodeGenerationFailed)
		assert.Equal(t, int64(100), f.items.stockOf(f.item.ID))
	})

	t.Run("day is cut in the configured zone", func(t *testing.T) {
		f := newFixture(t, Config{})
		loc := time.FixedZone("UTC+6", 6*3600)
		f.svc.numbers = NewNumberGenerator(&numerator.MockGenerator{}, f.registry, loc, "")
		f.svc.now = func() time.Time { return time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC) }

		doc, err := f.svc.Create(companyCtx(companyA), input(f.item.ID, 1, 0))
		require.NoError(t, err)
		assert.Equal(t, "GR-ACME-20240116-0001", doc.ReturnNumber)
	})

	t.Run("backdated return is numbered on the creation day", func(t *testing.T) {
		f := newFixture(t, Config{})
		backdated := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
		in := input(f.item.ID, 10, 5)
		in.ReturnDate = &backdated

		doc, err := f.svc.Create(companyCtx(companyA), in)
		require.NoError(t, err)
		assert.Equal(t, "GR-ACME-20240115-0001", doc.ReturnNumber)
		assert.True(t, doc.ReturnDate.Equal(backdated))
		assert.Equal(t, int64(85), f.items.stockOf(f.item.ID))

		today, err := f.svc.Create(companyCtx(companyA), input(f.item.ID, 1, 0))
		require.NoError(t, err)
		assert.Equal(t, "GR-ACME-20240115-0002", today.ReturnNumber)
	})
}

func TestChallanSummary(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := companyCtx(companyA)

	older := fixedNow.Add(-48 * time.Hour)
	in1 := input(f.item.ID, 2, 3)
	in1.ReturnDate = &older
	first, err := f.svc.Create(ctx, in1)
	require.NoError(t, err)

	second, err := f.svc.Create(ctx, input(f.item.ID, 1, 0))
	require.NoError(t, err)

	cancelled, err := f.svc.Create(ctx, input(f.item.ID, 10, 10))
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, cancelled.ID, "wrong challan")
	require.NoError(t, err)

	other := input(f.item.ID, 7, 0)
	other.OriginalChallanNumber = "CH-OTHER"
	_, err = f.svc.Create(ctx, other)
	require.NoError(t, err)

	summary, err := f.svc.ChallanSummary(ctx, "CH-2024-001")
	require.NoError(t, err)

	require.Len(t, summary.Returns, 2)
	assert.Equal(t, second.ID, summary.Returns[0].ID)
	assert.Equal(t, first.ID, summary.Returns[1].ID)
	assert.Equal(t, 2, summary.Summary.TotalReturns)
	assert.Equal(t, int64(3), summary.Summary.TotalDamagedQuantity)
	assert.Equal(t, int64(3), summary.Summary.TotalReturnedQuantity)
	assert.True(t, summary.Summary.TotalValue.Equal(types.MustMoney("300")))

	stockBefore := f.items.stockOf(f.item.ID)
	again, err := f.svc.ChallanSummary(ctx, "CH-2024-001")
	require.NoError(t, err)
	assert.Equal(t, summary, again)
	assert.Equal(t, stockBefore, f.items.stockOf(f.item.ID))

	_, err = f.svc.ChallanSummary(ctx, "  ")
	requireCode(t, err, apperror.CodeValidation)
}

func TestWorkflow_ApprovalRequired(t *testing.T) {
	f := newFixture(t, Config{ApprovalRequired: true})
	ctx := companyCtx(companyA)

	doc, err := f.svc.Create(ctx, input(f.item.ID, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, StatePendingApproval, doc.State)
	assert.Equal(t, ApprovalPending, doc.Approval.Status)
	assert.Equal(t, ReturnPending, doc.ReturnStatus)
	assert.Equal(t, StatusActive, doc.Status)

	_, err = f.svc.MarkProcessed(ctx, doc.ID)
	requireCode(t, err, apperror.CodeInvalidTransition)

	approved, err := f.svc.Approve(ctx, doc.ID, "looks fine")
	require.NoError(t, err)
	assert.Equal(t, ApprovalApproved, approved.Approval.Status)
	assert.Equal(t, "user-1", approved.Approval.By)
	assert.Equal(t, "looks fine", approved.Approval.Remarks)

	processed, err := f.svc.MarkProcessed(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StateProcessed, processed.State)
	assert.Equal(t, ReturnProcessed, processed.ReturnStatus)
	assert.Equal(t, StatusCompleted, processed.Status)
	require.NotNil(t, processed.ProcessedAt)

	_, err = f.svc.Cancel(ctx, doc.ID, "too late")
	requireCode(t, err, apperror.CodeInvalidTransition)
	assert.Equal(t, int64(90), f.items.stockOf(f.item.ID))
	assert.Equal(t, 0, f.items.reverseCall)
}

func TestWorkflow_PerRequestApproval(t *testing.T) {
	f := newFixture(t, Config{})
	in := input(f.item.ID, 1, 0)
	in.ApprovalRequired = true

	doc, err := f.svc.Create(companyCtx(companyA), in)
	require.NoError(t, err)
	assert.Equal(t, StatePendingApproval, doc.State)
}

func TestWorkflow_RejectRestoresStock(t *testing.T) {
	f := newFixture(t, Config{ApprovalRequired: true})
	ctx := companyCtx(companyA)

	doc, err := f.svc.Create(ctx, input(f.item.ID, 10, 5))
	require.NoError(t, err)
	require.Equal(t, int64(85), f.items.stockOf(f.item.ID))

	rejected, err := f.svc.Reject(ctx, doc.ID, "not ours")
	require.NoError(t, err)
	assert.Equal(t, StateRejected, rejected.State)
	assert.Equal(t, ApprovalRejected, rejected.Approval.Status)
	assert.Equal(t, StatusCancelled, rejected.Status)

	assert.Equal(t, int64(100), f.items.stockOf(f.item.ID))
	item, _ := f.items.GetByID(ctx, f.item.ID)
	assert.Equal(t, inventory_item.ReturnTotals{}, item.ReturnTotals)

	f.recorder.AssertCalled(t, "RecordReturnMovement", mock.Anything, mock.MatchedBy(func(m stock.StockMovement) bool {
		return m.RecorderID == doc.ID && m.RecordType == entity.RecordTypeReceipt &&
			m.StockBefore == 85 && m.StockAfter == 100
	}))

	// The stored snapshot is untouched by the reversal.
	stored, err := f.svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(85), stored.StockImpact.InventoryStockAfter)
}

func TestWorkflow_CancelKeepsApprovalStatus(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := companyCtx(companyA)

	doc, err := f.svc.Create(ctx, input(f.item.ID, 0, 5))
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, doc.ID, " ")
	requireCode(t, err, apperror.CodeValidation)

	cancelled, err := f.svc.Cancel(ctx, doc.ID, "duplicate")
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, cancelled.State)
	assert.Equal(t, ApprovalApproved, cancelled.Approval.Status)
	assert.Equal(t, ReturnCancelled, cancelled.ReturnStatus)
	assert.Equal(t, "duplicate", cancelled.CancellationReason)
	assert.Equal(t, int64(100), f.items.stockOf(f.item.ID))
}

func TestWorkflow_OtherCompanyCannotSeeReturn(t *testing.T) {
	f := newFixture(t, Config{})

	doc, err := f.svc.Create(companyCtx(companyA), input(f.item.ID, 1, 0))
	require.NoError(t, err)

	_, err = f.svc.Get(companyCtx(companyB), doc.ID)
	requireCode(t, err, apperror.CodeNotFound)

	_, err = f.svc.Cancel(companyCtx(companyB), doc.ID, "not mine")
	requireCode(t, err, apperror.CodeNotFound)
}

func TestGetByNumber(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := companyCtx(companyA)

	doc, err := f.svc.Create(ctx, input(f.item.ID, 1, 0))
	require.NoError(t, err)

	found, err := f.svc.GetByNumber(ctx, doc.ReturnNumber)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, found.ID)

	_, err = f.svc.GetByNumber(ctx, "")
	requireCode(t, err, apperror.CodeValidation)
}

func TestList(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := companyCtx(companyA)

	_, err := f.svc.Create(ctx, input(f.item.ID, 1, 0))
	require.NoError(t, err)

	res, err := f.svc.List(ctx, ListFilter{ListFilter: domain.ListFilter{Search: "itm-001"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.TotalCount)
	assert.Equal(t, domain.DefaultLimit, res.Limit)

	_, err = f.svc.List(ctx, ListFilter{ListFilter: domain.ListFilter{OrderBy: "-itemName"}})
	requireCode(t, err, apperror.CodeValidation)

	_, err = f.svc.List(ctx, ListFilter{States: []State{"archived"}})
	requireCode(t, err, apperror.CodeValidation)

	from, to := fixedNow, fixedNow.Add(-time.Hour)
	_, err = f.svc.List(ctx, ListFilter{DateFrom: &from, DateTo: &to})
	requireCode(t, err, apperror.CodeValidation)

	other, err := f.svc.List(companyCtx(companyB), ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}
