package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockreturn/internal/core/apperror"
	appctx "stockreturn/internal/core/context"
	"stockreturn/internal/core/entity"
	"stockreturn/internal/core/id"
	"stockreturn/internal/core/tenant"
	"stockreturn/internal/domain"
	"stockreturn/internal/domain/audit"
	"stockreturn/internal/domain/auth"
	"stockreturn/internal/domain/catalogs/inventory_item"
	"stockreturn/internal/domain/documents/goods_return"
	"stockreturn/internal/domain/registers/stock"
	"stockreturn/internal/infrastructure/http/v1/middleware"
	"stockreturn/internal/infrastructure/storage/postgres"
)

const (
	companyID      = "0190a5e4-7b6c-7000-8000-000000000001"
	otherCompanyID = "0190a5e4-7b6c-7000-8000-000000000002"
)

type fakeRegistry struct{}

func (fakeRegistry) GetByID(_ context.Context, tenantID string) (*tenant.Tenant, error) {
	if tenantID != companyID {
		return nil, tenant.ErrTenantNotFound
	}
	return &tenant.Tenant{ID: companyID, Code: "ACME", Status: tenant.StatusActive}, nil
}

type fakeValidator struct{}

func (fakeValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	switch token {
	case "admin":
		return &appctx.UserContext{UserID: "u-1", TenantID: companyID, Permissions: auth.AllPermissions()}, nil
	case "reader":
		return &appctx.UserContext{UserID: "u-2", TenantID: companyID, Permissions: []string{auth.PermGoodsReturnRead}}, nil
	case "foreign":
		return &appctx.UserContext{UserID: "u-3", TenantID: otherCompanyID, Permissions: auth.AllPermissions()}, nil
	}
	return nil, errors.New("bad token")
}

type fakeGoodsReturns struct {
	stored     *goods_return.GoodsReturn
	created    *goods_return.CreateInput
	listFilter *goods_return.ListFilter
	createErr  error
}

func sampleReturn() *goods_return.GoodsReturn {
	doc := &goods_return.GoodsReturn{
		BaseDocument:          entity.NewBaseDocument("u-1"),
		CompanyID:             companyID,
		ReturnNumber:          "GR-ACME-20240115-0001",
		ReturnDate:            time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		InventoryItemID:       id.New(),
		ItemCode:              "ITM-001",
		OriginalChallanNumber: "CH-1",
		DamagedQuantity:       10,
		ReturnedQuantity:      5,
		TotalQuantity:         15,
		State:                 goods_return.StatePendingApproval,
	}
	doc.Valuation = goods_return.Valuation{
		UnitCost:      decimal.NewFromInt(50),
		DamagedValue:  decimal.NewFromInt(500),
		ReturnedValue: decimal.NewFromInt(250),
		TotalValue:    decimal.NewFromInt(750),
	}
	return doc
}

func (f *fakeGoodsReturns) Create(_ context.Context, in goods_return.CreateInput) (*goods_return.GoodsReturn, error) {
	f.created = &in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return sampleReturn(), nil
}

func (f *fakeGoodsReturns) Get(_ context.Context, docID id.ID) (*goods_return.GoodsReturn, error) {
	if f.stored != nil && f.stored.ID == docID {
		return f.stored, nil
	}
	return nil, apperror.NewNotFound("goods_return", docID)
}

func (f *fakeGoodsReturns) GetByNumber(_ context.Context, number string) (*goods_return.GoodsReturn, error) {
	return sampleReturn(), nil
}

func (f *fakeGoodsReturns) List(_ context.Context, filter goods_return.ListFilter) (domain.ListResult[*goods_return.GoodsReturn], error) {
	f.listFilter = &filter
	return domain.ListResult[*goods_return.GoodsReturn]{
		Items:      []*goods_return.GoodsReturn{sampleReturn()},
		TotalCount: 1,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (f *fakeGoodsReturns) ChallanSummary(_ context.Context, challan string) (*goods_return.ChallanReturns, error) {
	returns := []*goods_return.GoodsReturn{sampleReturn()}
	return &goods_return.ChallanReturns{
		ChallanNumber: challan,
		Returns:       returns,
		Summary:       goods_return.Summarize(returns),
	}, nil
}

func (f *fakeGoodsReturns) Approve(context.Context, id.ID, string) (*goods_return.GoodsReturn, error) {
	return sampleReturn(), nil
}

func (f *fakeGoodsReturns) Reject(context.Context, id.ID, string) (*goods_return.GoodsReturn, error) {
	return sampleReturn(), nil
}

func (f *fakeGoodsReturns) MarkProcessed(_ context.Context, docID id.ID) (*goods_return.GoodsReturn, error) {
	return nil, apperror.NewInvalidTransition("goods_return", "pending_approval", "processed")
}

func (f *fakeGoodsReturns) Cancel(context.Context, id.ID, string) (*goods_return.GoodsReturn, error) {
	return sampleReturn(), nil
}

type fakeInventory struct {
	filter *stock.MovementFilter
}

func (f *fakeInventory) Get(_ context.Context, itemID id.ID) (*inventory_item.Item, error) {
	return &inventory_item.Item{ID: itemID, CompanyID: companyID, Code: "ITM-001"}, nil
}

func (f *fakeInventory) Movements(_ context.Context, _ id.ID, filter stock.MovementFilter) ([]stock.StockMovement, error) {
	f.filter = &filter
	return []stock.StockMovement{{CompanyID: companyID, ItemCode: "ITM-001", Quantity: 10}}, nil
}

type fakeHistory struct {
	entityType string
	limit      int
}

func (f *fakeHistory) GetEntityHistory(_ context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error) {
	f.entityType = entityType
	f.limit = limit
	return []postgres.AuditEntry{{
		ID:         id.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     audit.ActionCreate,
		UserID:     "u-1",
		Changes:    json.RawMessage(`{"totalValue":"750"}`),
	}}, nil
}

type fakeRecorderMovements struct {
	recorder id.ID
}

func (f *fakeRecorderMovements) GetByRecorder(_ context.Context, recorderID id.ID) ([]stock.StockMovement, error) {
	f.recorder = recorderID
	return []stock.StockMovement{{MovementBase: entity.MovementBase{RecorderID: recorderID}, ItemCode: "ITM-001", Quantity: 10}}, nil
}

type fakeDB struct{ err error }

func (d fakeDB) Ping(context.Context) error { return d.err }

func (d fakeDB) Stats() postgres.PoolStats { return postgres.PoolStats{TotalConns: 3, MaxConns: 25} }

type fakeIdempotency struct {
	replay    *postgres.IdempotencyReplay
	completed int
	released  int
}

func (f *fakeIdempotency) AcquireKey(context.Context, postgres.IdempotencyRequest) (*postgres.IdempotencyReplay, error) {
	return f.replay, nil
}

func (f *fakeIdempotency) CompleteKey(context.Context, string, string, int, string, []byte) error {
	f.completed++
	return nil
}

func (f *fakeIdempotency) ReleaseKey(context.Context, string, string) error {
	f.released++
	return nil
}

type testEnv struct {
	returns   *fakeGoodsReturns
	inventory *fakeInventory
	history   *fakeHistory
	movements *fakeRecorderMovements
	db        *fakeDB
	idem      *fakeIdempotency
}

func newTestEnv() *testEnv {
	return &testEnv{
		returns:   &fakeGoodsReturns{},
		inventory: &fakeInventory{},
		history:   &fakeHistory{},
		movements: &fakeRecorderMovements{},
		db:        &fakeDB{},
		idem:      &fakeIdempotency{},
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	router := NewRouter(RouterConfig{
		Companies:    fakeRegistry{},
		JWTValidator: fakeValidator{},
		Idempotency:  e.idem,
		GoodsReturns: e.returns,
		Inventory:    e.inventory,
		History:      e.history,
		Movements:    e.movements,
		Database:     e.db,
		Version:      "test",
	})

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TenantHeader, companyID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func createBody() map[string]any {
	return map[string]any{
		"inventoryItemId":       id.New().String(),
		"damagedQuantity":       10,
		"returnedQuantity":      5,
		"originalChallanNumber": "CH-1",
	}
}

func TestRouter_TenantAndAuth(t *testing.T) {
	env := newTestEnv()

	t.Run("missing tenant", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/v1/goods-returns", "admin", nil, middleware.TenantHeader, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperror.CodeValidation, body["code"])
	})

	t.Run("unknown company", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/v1/goods-returns", "admin", nil, middleware.TenantHeader, otherCompanyID)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperror.CodeNotFound, body["code"])
	})

	t.Run("missing token", func(t *testing.T) {
		w, _ := env.do(t, http.MethodGet, "/api/v1/goods-returns", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token of another company", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/v1/goods-returns", "foreign", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, apperror.CodeForbidden, body["code"])
	})

	t.Run("missing permission", func(t *testing.T) {
		w, body := env.do(t, http.MethodPost, "/api/v1/goods-returns", "reader", createBody())
		assert.Equal(t, http.StatusForbidden, w.Code)
		details := body["details"].(map[string]any)
		assert.Equal(t, auth.PermGoodsReturnCreate, details["required_permission"])
		assert.Nil(t, env.returns.created)
	})
}

func TestRouter_CreateGoodsReturn(t *testing.T) {
	env := newTestEnv()
	req := createBody()

	w, body := env.do(t, http.MethodPost, "/api/v1/goods-returns", "admin", req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "GR-ACME-20240115-0001", body["returnNumber"])
	assert.EqualValues(t, 15, body["totalQuantity"])
	valuation := body["valuation"].(map[string]any)
	assert.Equal(t, "750", valuation["totalValue"])

	require.NotNil(t, env.returns.created)
	assert.Equal(t, req["inventoryItemId"], env.returns.created.InventoryItemID.String())
	assert.EqualValues(t, 10, env.returns.created.DamagedQuantity)
	assert.EqualValues(t, 5, env.returns.created.ReturnedQuantity)
	assert.Equal(t, "CH-1", env.returns.created.OriginalChallanNumber)
}

func TestRouter_CreateRejectsInvalidBody(t *testing.T) {
	env := newTestEnv()
	req := createBody()
	delete(req, "inventoryItemId")
	req["returnReason"] = "lost"

	w, body := env.do(t, http.MethodPost, "/api/v1/goods-returns", "admin", req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, body["code"])
	fields := body["details"].(map[string]any)["fields"].([]any)
	var names []string
	for _, f := range fields {
		names = append(names, f.(map[string]any)["field"].(string))
	}
	assert.ElementsMatch(t, []string{"inventoryItemId", "returnReason"}, names)
	assert.Nil(t, env.returns.created)
}

func TestRouter_CreateInsufficientStock(t *testing.T) {
	env := newTestEnv()
	env.returns.createErr = apperror.NewInsufficientStock("ITM-001", 200, 85)

	w, body := env.do(t, http.MethodPost, "/api/v1/goods-returns", "admin", createBody())

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeInsufficientStock, body["code"])
	details := body["details"].(map[string]any)
	assert.EqualValues(t, 85, details["available"])
	assert.EqualValues(t, 200, details["requested"])
	assert.Equal(t, apperror.ClassValidation, details["class"])
}

func TestRouter_IdempotentReplay(t *testing.T) {
	env := newTestEnv()
	env.idem.replay = &postgres.IdempotencyReplay{
		StatusCode:  http.StatusCreated,
		ContentType: "application/json",
		Body:        []byte(`{"returnNumber":"GR-ACME-20240115-0001"}`),
	}

	w, body := env.do(t, http.MethodPost, "/api/v1/goods-returns", "admin", createBody(),
		middleware.HeaderIdempotencyKey, "key-1")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, "GR-ACME-20240115-0001", body["returnNumber"])
	assert.Nil(t, env.returns.created)
}

func TestRouter_IdempotencyCompletesAndReleases(t *testing.T) {
	env := newTestEnv()

	w, _ := env.do(t, http.MethodPost, "/api/v1/goods-returns", "admin", createBody(),
		middleware.HeaderIdempotencyKey, "key-1")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, env.idem.completed)

	env.returns.createErr = apperror.NewInsufficientStock("ITM-001", 200, 85)
	w, _ = env.do(t, http.MethodPost, "/api/v1/goods-returns", "admin", createBody(),
		middleware.HeaderIdempotencyKey, "key-2")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 1, env.idem.released)
}

func TestRouter_ListPassesFilter(t *testing.T) {
	env := newTestEnv()

	w, body := env.do(t, http.MethodGet,
		"/api/v1/goods-returns?state=pending_approval&reason=damaged&challanNumber=CH-1&limit=10&offset=20", "reader", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, body["totalCount"])
	require.NotNil(t, env.returns.listFilter)
	f := env.returns.listFilter
	assert.Equal(t, []goods_return.State{goods_return.StatePendingApproval}, f.States)
	assert.Equal(t, []goods_return.ReturnReason{goods_return.ReasonDamaged}, f.Reasons)
	assert.Equal(t, "CH-1", f.ChallanNumber)
	assert.Equal(t, 10, f.Limit)
	assert.Equal(t, 20, f.Offset)
}

func TestRouter_GetErrors(t *testing.T) {
	env := newTestEnv()

	w, body := env.do(t, http.MethodGet, "/api/v1/goods-returns/not-a-uuid", "reader", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, body["code"])

	w, body = env.do(t, http.MethodGet, "/api/v1/goods-returns/"+id.New().String(), "reader", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, body["code"])

	w, _ = env.do(t, http.MethodGet, "/api/v1/goods-returns/by-number/GR-ACME-20240115-0001", "reader", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Workflow(t *testing.T) {
	env := newTestEnv()
	path := "/api/v1/goods-returns/" + id.New().String()

	w, _ := env.do(t, http.MethodPost, path+"/approve", "admin", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = env.do(t, http.MethodPost, path+"/reject", "admin", map[string]any{"remarks": "wrong batch"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body := env.do(t, http.MethodPost, path+"/process", "admin", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeInvalidTransition, body["code"])

	w, _ = env.do(t, http.MethodPost, path+"/cancel", "admin", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, path+"/cancel", "admin", map[string]any{"reason": "duplicate entry"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ReturnHistoryAndMovements(t *testing.T) {
	env := newTestEnv()
	env.returns.stored = sampleReturn()
	path := "/api/v1/goods-returns/" + env.returns.stored.ID.String()

	w, body := env.do(t, http.MethodGet, path+"/history", "reader", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	items := body["items"].([]any)
	require.Len(t, items, 1)
	entry := items[0].(map[string]any)
	assert.Equal(t, "create", entry["action"])
	assert.Equal(t, "750", entry["changes"].(map[string]any)["totalValue"])
	assert.Equal(t, goods_return.AuditEntity, env.history.entityType)
	assert.Equal(t, 50, env.history.limit)

	w, _ = env.do(t, http.MethodGet, path+"/history?limit=5", "reader", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, env.history.limit)

	w, body = env.do(t, http.MethodGet, path+"/movements", "reader", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, body["items"], 1)
	assert.Equal(t, env.returns.stored.ID, env.movements.recorder)
}

func TestRouter_ReturnMovementsScopedToCompany(t *testing.T) {
	env := newTestEnv()

	w, body := env.do(t, http.MethodGet, "/api/v1/goods-returns/"+id.New().String()+"/movements", "reader", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, body["code"])
	assert.True(t, id.IsNil(env.movements.recorder))
}

func TestRouter_ChallanSummary(t *testing.T) {
	env := newTestEnv()

	w, body := env.do(t, http.MethodGet, "/api/v1/challans/CH-1/returns", "reader", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "CH-1", body["challanNumber"])
	summary := body["summary"].(map[string]any)
	assert.EqualValues(t, 1, summary["totalReturns"])
	assert.EqualValues(t, 10, summary["totalDamagedQuantity"])
	assert.Equal(t, "750", summary["totalValue"])
}

func TestRouter_Inventory(t *testing.T) {
	env := newTestEnv()
	itemID := id.New().String()

	w, body := env.do(t, http.MethodGet, "/api/v1/inventory-items/"+itemID, "admin", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ITM-001", body["code"])

	w, body = env.do(t, http.MethodGet, "/api/v1/inventory-items/"+itemID+"/movements?recordType=expense&limit=5", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, body["items"], 1)
	require.NotNil(t, env.inventory.filter)
	require.NotNil(t, env.inventory.filter.RecordType)
	assert.Equal(t, entity.RecordTypeExpense, *env.inventory.filter.RecordType)
	assert.Equal(t, 5, env.inventory.filter.Limit)

	w, _ = env.do(t, http.MethodGet, "/api/v1/inventory-items/"+itemID, "reader", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_Health(t *testing.T) {
	env := newTestEnv()

	w, _ := env.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body := env.do(t, http.MethodGet, "/health/info", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", body["version"])

	w, _ = env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	env.db.err = errors.New("connection refused")
	w, body = env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	checks := body["checks"].(map[string]any)
	assert.Contains(t, checks["database"], "connection refused")
}
