package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockMovementRequest represents a manual stock adjustment
type StockMovementRequest struct {
	MaterialID uuid.UUID       `json:"material_id" binding:"required"`
	Direction  string          `json:"direction" binding:"required,oneof=in out"`
	Quantity   decimal.Decimal `json:"quantity"`
	Note       string          `json:"note" binding:"max=255"`
}

// ReverseTransactionRequest carries an optional note for a reversal
type ReverseTransactionRequest struct {
	Note string `json:"note" binding:"max=1000"`
}

// TransactionFilterRequest represents ledger listing parameters
type TransactionFilterRequest struct {
	MaterialID    string `form:"material_id"`
	ReferenceType string `form:"reference_type"`
	ReferenceID   string `form:"reference_id"`
	Status        string `form:"status" binding:"omitempty,oneof=active cancelled"`
	Cursor        string `form:"cursor"`
	Direction     string `form:"direction" binding:"omitempty,oneof=next prev"`
	Limit         int    `form:"limit"`
}
