package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuantityScale is the number of decimal places stored for quantities and balances
const QuantityScale int32 = 4

// FitsQuantityScale reports whether q is stored without rounding
func FitsQuantityScale(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(QuantityScale))
}

// RoundUpQuantity rounds a computed requirement up to the stored scale
func RoundUpQuantity(q decimal.Decimal) decimal.Decimal {
	return q.RoundCeil(QuantityScale)
}

// StockTransaction is one append-only row of the stock ledger.
// Quantity, MovementType and CreatedAt never change after insert; a reversal only sets
// Status, appends to Notes and fills ReversedByTransactionID.
type StockTransaction struct {
	ID                      uuid.UUID              `gorm:"type:uuid;primary_key" json:"id"`
	MaterialID              uuid.UUID              `gorm:"type:uuid;not null;index" json:"material_id"`
	MovementType            enum.MovementType      `gorm:"size:3;not null" json:"movement_type"`
	Quantity                decimal.Decimal        `gorm:"type:numeric(18,4);not null" json:"quantity"`
	ReferenceType           enum.ReferenceType     `gorm:"size:32;not null;index:idx_stock_tx_reference" json:"reference_type"`
	ReferenceID             *uuid.UUID             `gorm:"type:uuid;index:idx_stock_tx_reference" json:"reference_id,omitempty"`
	ActorID                 uuid.UUID              `gorm:"type:uuid;not null" json:"actor_id"`
	Reason                  string                 `gorm:"size:255" json:"reason"`
	Notes                   string                 `gorm:"type:text" json:"notes"`
	Status                  enum.TransactionStatus `gorm:"size:16;not null;default:active" json:"status"`
	ReversesTransactionID   *uuid.UUID             `gorm:"type:uuid;index" json:"reverses_transaction_id,omitempty"`
	ReversedByTransactionID *uuid.UUID             `gorm:"type:uuid" json:"reversed_by_transaction_id,omitempty"`
	BalanceAfter            decimal.Decimal        `gorm:"type:numeric(18,4);not null" json:"balance_after"`
	CreatedAt               time.Time              `gorm:"index" json:"created_at"`

	// Relationships
	Material *Material `gorm:"foreignKey:MaterialID" json:"material,omitempty"`
}

// BeforeCreate generates a UUID and defaults the status before insert
func (t *StockTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = enum.TransactionActive
	}
	return nil
}

// TableName returns the table name for the StockTransaction model
func (StockTransaction) TableName() string {
	return "stock_transactions"
}

// Delta is the signed effect of this row on the material balance
func (t *StockTransaction) Delta() decimal.Decimal {
	if t.MovementType == enum.MovementOut {
		return t.Quantity.Neg()
	}
	return t.Quantity
}

// IsCancelled reports whether the row has been reversed
func (t *StockTransaction) IsCancelled() bool {
	return t.Status == enum.TransactionCancelled
}

// AppendNote adds an audit line to Notes
func (t *StockTransaction) AppendNote(note string) {
	if note == "" {
		return
	}
	if t.Notes == "" {
		t.Notes = note
		return
	}
	t.Notes = t.Notes + "\n" + note
}
