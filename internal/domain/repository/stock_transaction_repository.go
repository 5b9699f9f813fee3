package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// StockTransactionRepository defines the interface for ledger rows. There is no Delete:
// rows are only ever appended, and a reversal touches status, notes and reversed_by only.
type StockTransactionRepository interface {
	Create(ctx context.Context, txn *entity.StockTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.StockTransaction, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.StockTransaction, error)
	// MarkReversed cancels an active row. It returns false if the row was not active anymore.
	MarkReversed(ctx context.Context, id, reversedBy uuid.UUID, notes string) (bool, error)
	ListActiveByReference(ctx context.Context, refType enum.ReferenceType, refID uuid.UUID) ([]entity.StockTransaction, error)
	ListWithCursor(ctx context.Context, params *TransactionCursorFilterParams) ([]entity.StockTransaction, error)
	// LedgerBalances replays every row, compensating rows included, and returns the
	// signed total per material
	LedgerBalances(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error)
	LedgerBalance(ctx context.Context, materialID uuid.UUID) (decimal.Decimal, int64, error)
}

// TransactionCursorFilterParams contains cursor-based filtering for ledger queries
type TransactionCursorFilterParams struct {
	Cursor        *pagination.CursorParams
	MaterialID    *uuid.UUID
	ReferenceType *enum.ReferenceType
	ReferenceID   *uuid.UUID
	Status        *enum.TransactionStatus
}
