package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/application/service"
	"github.com/sangkips/atelier-api/internal/config"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/infrastructure/database"
	"github.com/sangkips/atelier-api/internal/infrastructure/lock"
	infraRepo "github.com/sangkips/atelier-api/internal/infrastructure/repository"
	"github.com/sangkips/atelier-api/internal/presentation/http/handler"
	"github.com/sangkips/atelier-api/internal/testutil"
	"github.com/sangkips/atelier-api/pkg/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	actor  uuid.UUID
}

type envelope struct {
	Success           bool            `json:"success"`
	Message           string          `json:"message"`
	Kind              string          `json:"kind"`
	Data              json.RawMessage `json:"data"`
	InsufficientStock []struct {
		MaterialTitle string          `json:"material_title"`
		Required      decimal.Decimal `json:"required"`
		Available     decimal.Decimal `json:"available"`
	} `json:"insufficient_stock"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	log := testutil.Logger()
	require.NoError(t, database.SeedDefaultData(db, log))

	cfg := &config.Config{
		App:         config.AppConfig{Name: "atelier-api"},
		RateLimit:   config.RateLimitConfig{Requests: 1000, Duration: 1},
		Idempotency: config.IdempotencyConfig{TTL: time.Hour},
	}

	locker := lock.NewKeyedMutex()
	transactor := infraRepo.NewTransactor(db)
	materialRepo := infraRepo.NewMaterialRepository(db)
	ledger := service.NewStockLedgerService(transactor, materialRepo, infraRepo.NewStockTransactionRepository(db), locker, log, service.LedgerOptions{})
	materials := service.NewMaterialService(transactor, materialRepo, infraRepo.NewUnitRepository(db), ledger, log)
	production := service.NewProductionService(
		transactor,
		infraRepo.NewProductRepository(db),
		infraRepo.NewProductionBatchRepository(db),
		infraRepo.NewCustomOrderRepository(db),
		infraRepo.NewBOMRepository(db),
		materialRepo,
		ledger,
		log,
	)
	payrollService := service.NewPayrollService(
		infraRepo.NewPayrollConfigRepository(db),
		infraRepo.NewSalaryDefinitionRepository(db),
		payroll.ReverseDamped,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := Setup(ctx, &Handlers{
		Material:   handler.NewMaterialHandler(materials, ledger),
		Stock:      handler.NewStockHandler(ledger),
		Production: handler.NewProductionHandler(production),
		Payroll:    handler.NewPayrollHandler(payrollService),
	}, &Deps{
		Cfg:             cfg,
		Log:             log,
		IdempotencyRepo: infraRepo.NewIdempotencyRepository(db),
		Locker:          locker,
	})

	return &testServer{router: router, db: db, actor: uuid.New()}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

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
	req.Header.Set("X-Actor-ID", s.actor.String())
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *testServer) createMaterial(t *testing.T, name, qty string) uuid.UUID {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/materials", map[string]interface{}{
		"name":             name,
		"low_threshold":    "10",
		"medium_threshold": "30",
		"initial_quantity": qty,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var m entity.Material
	require.NoError(t, json.Unmarshal(env.Data, &m))
	return m.ID
}

func (s *testServer) createProduct(t *testing.T, name string, materialID uuid.UUID, perUnit string) uuid.UUID {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/products", map[string]interface{}{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var p entity.Product
	require.NoError(t, json.Unmarshal(env.Data, &p))

	w, _ = s.do(t, http.MethodPut, "/api/v1/products/"+p.ID.String()+"/materials", map[string]interface{}{
		"materials": []map[string]interface{}{{"material_id": materialID, "quantity_per_unit": perUnit}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return p.ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestActorHeaderRequired(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/materials", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/materials", nil, "X-Actor-ID", "not-a-uuid")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStartProductionEndpoint(t *testing.T) {
	s := newTestServer(t)
	wood := s.createMaterial(t, "Oak plank", "100")
	chair := s.createProduct(t, "Chair", wood, "7.5")

	w, env := s.do(t, http.MethodPost, "/api/v1/production/batches", map[string]interface{}{
		"product_id": chair,
		"quantity":   "10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result struct {
		TransactionIDs []uuid.UUID `json:"transaction_ids"`
		Alerts         []struct {
			Type           string          `json:"type"`
			MaterialTitle  string          `json:"material_title"`
			RemainingStock decimal.Decimal `json:"remaining_stock"`
		} `json:"alerts"`
		Batch struct {
			ID uuid.UUID `json:"id"`
		} `json:"batch"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Len(t, result.TransactionIDs, 1)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, "warning", result.Alerts[0].Type)
	assert.Equal(t, "Oak plank", result.Alerts[0].MaterialTitle)
	assert.True(t, decimal.NewFromInt(25).Equal(result.Alerts[0].RemainingStock))

	w, env = s.do(t, http.MethodPost, "/api/v1/production/batches", map[string]interface{}{
		"product_id": chair,
		"quantity":   "4",
	})
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.False(t, env.Success)
	assert.Equal(t, "insufficient_stock", env.Kind)
	require.Len(t, env.InsufficientStock, 1)
	assert.Equal(t, "Oak plank", env.InsufficientStock[0].MaterialTitle)
	assert.True(t, decimal.NewFromInt(30).Equal(env.InsufficientStock[0].Required))
	assert.True(t, decimal.NewFromInt(25).Equal(env.InsufficientStock[0].Available))

	w, _ = s.do(t, http.MethodPost, "/api/v1/production/batches/"+result.Batch.ID.String()+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = s.do(t, http.MethodGet, "/api/v1/materials/"+wood.String()+"/verify", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report service.BalanceReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.True(t, report.Consistent)
	assert.True(t, decimal.NewFromInt(100).Equal(report.Cached))
}

func TestIdempotentStartProduction(t *testing.T) {
	s := newTestServer(t)
	wood := s.createMaterial(t, "Oak plank", "100")
	chair := s.createProduct(t, "Chair", wood, "5")

	body := map[string]interface{}{"product_id": chair, "quantity": "2"}
	first, _ := s.do(t, http.MethodPost, "/api/v1/production/batches", body, "Idempotency-Key", "batch-42")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second, _ := s.do(t, http.MethodPost, "/api/v1/production/batches", body, "Idempotency-Key", "batch-42")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	var batches int64
	require.NoError(t, s.db.Model(&entity.ProductionBatch{}).Count(&batches).Error)
	assert.Equal(t, int64(1), batches)

	w, env := s.do(t, http.MethodGet, "/api/v1/materials/"+wood.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var m entity.Material
	require.NoError(t, json.Unmarshal(env.Data, &m))
	assert.True(t, decimal.NewFromInt(90).Equal(m.QuantityOnHand), "on hand %s", m.QuantityOnHand)

	other, _ := s.do(t, http.MethodPost, "/api/v1/stock/movements",
		map[string]interface{}{"material_id": wood, "direction": "in", "quantity": "1"},
		"Idempotency-Key", "batch-42")
	assert.Equal(t, http.StatusUnprocessableEntity, other.Code)
}

func TestStockMovementAndReversalEndpoints(t *testing.T) {
	s := newTestServer(t)
	glue := s.createMaterial(t, "Glue", "20")

	w, env := s.do(t, http.MethodPost, "/api/v1/stock/movements", map[string]interface{}{
		"material_id": glue,
		"direction":   "out",
		"quantity":    "5",
		"note":        "spilled",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var movement service.ManualMovementResult
	require.NoError(t, json.Unmarshal(env.Data, &movement))
	assert.True(t, decimal.NewFromInt(15).Equal(movement.BalanceAfter))

	w, _ = s.do(t, http.MethodPost, "/api/v1/stock/movements", map[string]interface{}{
		"material_id": glue,
		"direction":   "sideways",
		"quantity":    "5",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/stock/transactions/"+movement.TransactionID.String()+"/reverse", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reversal service.ReversalResult
	require.NoError(t, json.Unmarshal(env.Data, &reversal))
	assert.True(t, decimal.NewFromInt(20).Equal(reversal.BalanceAfter))

	w, env = s.do(t, http.MethodPost, "/api/v1/stock/transactions/"+movement.TransactionID.String()+"/reverse", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_cancelled", env.Kind)

	w, env = s.do(t, http.MethodGet, "/api/v1/stock/transactions?limit=2&material_id="+glue.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page struct {
		Items      []entity.StockTransaction `json:"items"`
		Pagination struct {
			HasNext    bool    `json:"has_next"`
			NextCursor *string `json:"next_cursor"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Items, 2)
	assert.True(t, page.Pagination.HasNext)
	require.NotNil(t, page.Pagination.NextCursor)

	w, env = s.do(t, http.MethodGet, "/api/v1/stock/transactions?limit=2&material_id="+glue.String()+"&cursor="+*page.Pagination.NextCursor, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Items, 1)
	assert.False(t, page.Pagination.HasNext)

	w, _ = s.do(t, http.MethodGet, "/api/v1/stock/transactions?cursor=garbage", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMaterialValidationEndpoint(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/api/v1/materials", map[string]interface{}{
		"name":             "Pine",
		"low_threshold":    "20",
		"medium_threshold": "10",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation", env.Kind)

	w, _ = s.do(t, http.MethodGet, "/api/v1/materials/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/v1/materials/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Kind)
}

func TestPayrollEndpoints(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/api/v1/payroll/net", map[string]interface{}{
		"gross":                "1000",
		"is_head_of_household": true,
		"children":             2,
		"at":                   "2025-06-01T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var net payroll.SalaryComponents
	require.NoError(t, json.Unmarshal(env.Data, &net))
	assert.True(t, decimal.RequireFromString("898.684").Equal(net.Net), "net %s", net.Net)

	w, env = s.do(t, http.MethodPost, "/api/v1/payroll/gross", map[string]interface{}{"net": "898.684", "is_head_of_household": true, "children": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var gross payroll.SalaryComponents
	require.NoError(t, json.Unmarshal(env.Data, &gross))
	assert.True(t, gross.Converged)

	w, env = s.do(t, http.MethodGet, "/api/v1/payroll/config?at=2025-03-01", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cfg entity.PayrollConfig
	require.NoError(t, json.Unmarshal(env.Data, &cfg))
	assert.Equal(t, 1, cfg.Version)

	w, _ = s.do(t, http.MethodGet, "/api/v1/payroll/config?at=2024-03-01", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	employee := uuid.New()
	w, _ = s.do(t, http.MethodPost, "/api/v1/payroll/salaries", map[string]interface{}{
		"employee_id":    employee,
		"gross":          "1000",
		"children":       0,
		"effective_from": "2025-02-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = s.do(t, http.MethodGet, "/api/v1/payroll/salaries/"+employee.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var defs []entity.SalaryDefinition
	require.NoError(t, json.Unmarshal(env.Data, &defs))
	assert.Len(t, defs, 1)
}
