package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/internal/infrastructure/lock"
	infraRepo "github.com/sangkips/atelier-api/internal/infrastructure/repository"
	"github.com/sangkips/atelier-api/internal/testutil"
	"github.com/sangkips/atelier-api/pkg/apperror"
	"github.com/sangkips/atelier-api/pkg/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db         *gorm.DB
	ledger     *StockLedgerService
	materials  *MaterialService
	production *ProductionService
	payroll    *PayrollService
	actor      uuid.UUID
}

func newTestEnv(t *testing.T, opts LedgerOptions) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	log := testutil.Logger()
	transactor := infraRepo.NewTransactor(db)
	materialRepo := infraRepo.NewMaterialRepository(db)

	ledger := NewStockLedgerService(transactor, materialRepo, infraRepo.NewStockTransactionRepository(db), lock.NewKeyedMutex(), log, opts)
	return &testEnv{
		db:        db,
		ledger:    ledger,
		materials: NewMaterialService(transactor, materialRepo, infraRepo.NewUnitRepository(db), ledger, log),
		production: NewProductionService(
			transactor,
			infraRepo.NewProductRepository(db),
			infraRepo.NewProductionBatchRepository(db),
			infraRepo.NewCustomOrderRepository(db),
			infraRepo.NewBOMRepository(db),
			materialRepo,
			ledger,
			log,
		),
		payroll: NewPayrollService(
			infraRepo.NewPayrollConfigRepository(db),
			infraRepo.NewSalaryDefinitionRepository(db),
			payroll.ReverseDamped,
			log,
		),
		actor: uuid.New(),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func assertKind(t *testing.T, err error, kind apperror.Kind) *apperror.AppError {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, apperror.IsKind(err, kind), "want %s error, got %v", kind, err)
	return apperror.GetAppError(err)
}

// newMaterial registers a material with the usual 10/30 thresholds
func (e *testEnv) newMaterial(t *testing.T, name, onHand string) *entity.Material {
	t.Helper()
	m, err := e.materials.RegisterMaterial(context.Background(), &RegisterMaterialInput{
		Name:            name,
		LowThreshold:    dec("10"),
		MediumThreshold: dec("30"),
		InitialQuantity: dec(onHand),
		ActorID:         e.actor,
	})
	require.NoError(t, err)
	return m
}

func (e *testEnv) balance(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	m, err := e.materials.GetMaterial(context.Background(), id)
	require.NoError(t, err)
	return m.QuantityOnHand
}

func (e *testEnv) ledgerRows(t *testing.T, materialID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&entity.StockTransaction{}).Where("material_id = ?", materialID).Count(&n).Error)
	return n
}

func (e *testEnv) consume(ctx context.Context, items ...ConsumeItem) (*ConsumeResult, error) {
	return e.ledger.ReserveAndConsume(ctx, &ConsumeInput{
		Items:         items,
		ReferenceType: enum.ReferenceProductionBatch,
		ActorID:       e.actor,
	})
}

func item(id uuid.UUID, qty string) ConsumeItem {
	return ConsumeItem{MaterialID: id, Quantity: dec(qty)}
}
