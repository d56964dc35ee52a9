package goods_return

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"stockreturn/internal/core/apperror"
	"stockreturn/internal/core/id"
	"stockreturn/internal/core/tenant"
	"stockreturn/internal/core/types"
	"stockreturn/internal/domain"
	"stockreturn/internal/domain/catalogs/inventory_item"
	"stockreturn/internal/domain/registers/stock"
)

// passThroughTx runs fn inline.
type passThroughTx struct{}

func (passThroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memItems mirrors the conditional decrement of the SQL store.
type memItems struct {
	mu          sync.Mutex
	items       map[id.ID]*inventory_item.Item
	applyCalls  int
	reverseCall int
}

func newMemItems(items ...*inventory_item.Item) *memItems {
	m := &memItems{items: make(map[id.ID]*inventory_item.Item)}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *memItems) GetByID(_ context.Context, itemID id.ID) (*inventory_item.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("inventory item", itemID)
	}
	cp := *it
	return &cp, nil
}

func (m *memItems) ApplyReturn(_ context.Context, companyID string, itemID id.ID, adj inventory_item.ReturnAdjustment) (*inventory_item.StockLevels, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyCalls++
	it, ok := m.items[itemID]
	if !ok || it.CompanyID != companyID || it.CurrentStock < adj.Total() {
		return nil, inventory_item.ErrInsufficientStock
	}
	it.AvailableStock = max(it.CurrentStock-adj.Total()-it.ReservedStock, 0)
	it.CurrentStock -= adj.Total()
	it.DamagedStock += adj.Damaged
	it.ReturnTotals.Damaged += adj.Damaged
	it.ReturnTotals.Returned += adj.Returned
	it.TotalValue = types.Extend(it.AverageCost, it.CurrentStock)
	it.Version++
	return m.levels(it), nil
}

func (m *memItems) ReverseReturn(_ context.Context, companyID string, itemID id.ID, adj inventory_item.ReturnAdjustment) (*inventory_item.StockLevels, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reverseCall++
	it, ok := m.items[itemID]
	if !ok || it.CompanyID != companyID {
		return nil, apperror.NewNotFound("inventory item", itemID)
	}
	it.CurrentStock += adj.Total()
	it.AvailableStock = max(it.CurrentStock-it.ReservedStock, 0)
	it.DamagedStock = max(it.DamagedStock-adj.Damaged, 0)
	it.ReturnTotals.Damaged -= adj.Damaged
	it.ReturnTotals.Returned -= adj.Returned
	it.TotalValue = types.Extend(it.AverageCost, it.CurrentStock)
	it.Version++
	return m.levels(it), nil
}

func (m *memItems) levels(it *inventory_item.Item) *inventory_item.StockLevels {
	return &inventory_item.StockLevels{
		CurrentStock:   it.CurrentStock,
		AvailableStock: it.AvailableStock,
		DamagedStock:   it.DamagedStock,
		TotalValue:     it.TotalValue,
		ReturnTotals:   it.ReturnTotals,
		Version:        it.Version,
	}
}

func (m *memItems) stockOf(itemID id.ID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[itemID].CurrentStock
}

// memRepo is an in-memory Repository.
type memRepo struct {
	mu          sync.Mutex
	docs        map[id.ID]*GoodsReturn
	createCalls int
}

func newMemRepo() *memRepo {
	return &memRepo{docs: make(map[id.ID]*GoodsReturn)}
}

func (r *memRepo) Create(_ context.Context, doc *GoodsReturn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	for _, d := range r.docs {
		if d.CompanyID == doc.CompanyID && d.ReturnNumber == doc.ReturnNumber {
			return apperror.NewDuplicate("goods return", "return_number", doc.ReturnNumber)
		}
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, companyID string, docID id.ID) (*GoodsReturn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[docID]
	if !ok || d.CompanyID != companyID {
		return nil, apperror.NewNotFound("goods return", docID)
	}
	cp := *d
	return &cp, nil
}

func (r *memRepo) GetByNumber(_ context.Context, companyID, number string) (*GoodsReturn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.CompanyID == companyID && d.ReturnNumber == number {
			cp := *d
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("goods return", number)
}

func (r *memRepo) GetForUpdate(ctx context.Context, companyID string, docID id.ID) (*GoodsReturn, error) {
	return r.GetByID(ctx, companyID, docID)
}

func (r *memRepo) UpdateState(_ context.Context, doc *GoodsReturn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[doc.ID]
	if !ok || stored.Version != doc.Version {
		return apperror.NewConcurrentModification("goods return", doc.ID)
	}
	doc.Version++
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memRepo) List(_ context.Context, filter ListFilter) (domain.ListResult[*GoodsReturn], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*GoodsReturn
	for _, d := range r.docs {
		if d.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(d.ReturnNumber+d.ItemCode), strings.ToLower(filter.Search)) {
			continue
		}
		cp := *d
		items = append(items, &cp)
	}
	return domain.ListResult[*GoodsReturn]{Items: items, TotalCount: int64(len(items)), Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (r *memRepo) ListActiveByChallan(_ context.Context, companyID, challanNumber string) ([]*GoodsReturn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*GoodsReturn
	for _, d := range r.docs {
		if d.CompanyID == companyID && d.OriginalChallanNumber == challanNumber && d.IsActive() {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

// memRegistry is a tenant.Registry over a map.
type memRegistry struct {
	companies map[string]*tenant.Tenant
	err       error
}

func (r *memRegistry) GetByID(_ context.Context, companyID string) (*tenant.Tenant, error) {
	if r.err != nil {
		return nil, r.err
	}
	if c, ok := r.companies[companyID]; ok {
		return c, nil
	}
	return nil, tenant.ErrTenantNotFound
}

// MockMovementRecorder records calls.
type MockMovementRecorder struct {
	mock.Mock
}

func (m *MockMovementRecorder) RecordReturnMovement(ctx context.Context, movement stock.StockMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

var fixedNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
