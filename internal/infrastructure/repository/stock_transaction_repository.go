package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	domainRepo "github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const replayBatchSize = 500

type stockTransactionRepository struct {
	db *gorm.DB
}

// NewStockTransactionRepository creates a new ledger repository
func NewStockTransactionRepository(db *gorm.DB) domainRepo.StockTransactionRepository {
	return &stockTransactionRepository{db: db}
}

func (r *stockTransactionRepository) Create(ctx context.Context, txn *entity.StockTransaction) error {
	return conn(ctx, r.db).Create(txn).Error
}

func (r *stockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.StockTransaction, error) {
	var txn entity.StockTransaction
	err := conn(ctx, r.db).Preload("Material").First(&txn, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &txn, err
}

func (r *stockTransactionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.StockTransaction, error) {
	var txn entity.StockTransaction
	err := forUpdate(conn(ctx, r.db)).First(&txn, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &txn, err
}

// MarkReversed only touches rows that are still active, so a concurrent second reversal
// sees zero affected rows even where row locks are unavailable.
func (r *stockTransactionRepository) MarkReversed(ctx context.Context, id, reversedBy uuid.UUID, notes string) (bool, error) {
	result := conn(ctx, r.db).Model(&entity.StockTransaction{}).
		Where("id = ? AND status = ?", id, enum.TransactionActive).
		Updates(map[string]interface{}{
			"status":                     enum.TransactionCancelled,
			"notes":                      notes,
			"reversed_by_transaction_id": reversedBy,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *stockTransactionRepository) ListActiveByReference(ctx context.Context, refType enum.ReferenceType, refID uuid.UUID) ([]entity.StockTransaction, error) {
	var txns []entity.StockTransaction
	err := conn(ctx, r.db).
		Where("reference_type = ? AND reference_id = ? AND status = ?", refType, refID, enum.TransactionActive).
		Order("created_at ASC, id ASC").
		Find(&txns).Error
	return txns, err
}

// ListWithCursor returns ledger rows oldest first using keyset pagination on (created_at, id)
func (r *stockTransactionRepository) ListWithCursor(ctx context.Context, params *domainRepo.TransactionCursorFilterParams) ([]entity.StockTransaction, error) {
	var txns []entity.StockTransaction

	params.Cursor.Validate()
	query := conn(ctx, r.db).Model(&entity.StockTransaction{})

	if params.MaterialID != nil {
		query = query.Where("material_id = ?", *params.MaterialID)
	}
	if params.ReferenceType != nil {
		query = query.Where("reference_type = ?", *params.ReferenceType)
	}
	if params.ReferenceID != nil {
		query = query.Where("reference_id = ?", *params.ReferenceID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	cursor, err := params.Cursor.DecodeCursor()
	if err != nil {
		return nil, err
	}

	// Moving back reads newest first from the cursor (or from the end) and is flipped below.
	descending := params.Cursor.Direction == pagination.CursorDirectionPrev
	if cursor != nil {
		if descending {
			query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		} else {
			query = query.Where("created_at > ? OR (created_at = ? AND id > ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		}
	}

	order := "created_at ASC, id ASC"
	if descending {
		order = "created_at DESC, id DESC"
	}

	// Fetch limit+1 to detect hasMore
	err = query.Limit(params.Cursor.Limit + 1).
		Order(order).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}

	if descending {
		for i, j := 0, len(txns)-1; i < j; i, j = i+1, j-1 {
			txns[i], txns[j] = txns[j], txns[i]
		}
	}
	return txns, nil
}

type ledgerRow struct {
	MaterialID   uuid.UUID
	MovementType enum.MovementType
	Quantity     decimal.Decimal
}

// LedgerBalances sums the ledger in Go, batch by batch, so that no floating point
// aggregation from the database is involved.
func (r *stockTransactionRepository) LedgerBalances(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	balances := make(map[uuid.UUID]decimal.Decimal)
	var batch []entity.StockTransaction

	result := conn(ctx, r.db).Model(&entity.StockTransaction{}).
		Select("id", "material_id", "movement_type", "quantity").
		FindInBatches(&batch, replayBatchSize, func(tx *gorm.DB, _ int) error {
			for i := range batch {
				balances[batch[i].MaterialID] = balances[batch[i].MaterialID].Add(batch[i].Delta())
			}
			return nil
		})
	if result.Error != nil {
		return nil, result.Error
	}
	return balances, nil
}

func (r *stockTransactionRepository) LedgerBalance(ctx context.Context, materialID uuid.UUID) (decimal.Decimal, int64, error) {
	var rows []ledgerRow
	err := conn(ctx, r.db).Model(&entity.StockTransaction{}).
		Select("material_id", "movement_type", "quantity").
		Where("material_id = ?", materialID).
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, 0, err
	}

	total := decimal.Zero
	for _, row := range rows {
		if row.MovementType == enum.MovementOut {
			total = total.Sub(row.Quantity)
		} else {
			total = total.Add(row.Quantity)
		}
	}
	return total, int64(len(rows)), nil
}
