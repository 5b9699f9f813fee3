package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BOMItemRequest is one bill of materials line
type BOMItemRequest struct {
	MaterialID      uuid.UUID       `json:"material_id" binding:"required"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// SetMaterialsRequest replaces a bill of materials
type SetMaterialsRequest struct {
	Materials []BOMItemRequest `json:"materials" binding:"required,min=1,dive"`
}

// CreateProductRequest represents a product creation request
type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=255"`
	Code        string  `json:"code" binding:"omitempty,max=100"`
	Description *string `json:"description"`
}

// StartProductionRequest starts a batch of a catalog product
type StartProductionRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CancelRequest carries an optional cancellation note
type CancelRequest struct {
	Note string `json:"note" binding:"max=1000"`
}

// CreateCustomOrderRequest represents a made-to-measure order
type CreateCustomOrderRequest struct {
	ClientName  string           `json:"client_name" binding:"required,max=255"`
	Description *string          `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Materials   []BOMItemRequest `json:"materials" binding:"dive"`
}

// ListRequest represents plain page-based listing parameters
type ListRequest struct {
	Search  string `form:"search"`
	Status  string `form:"status"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
}
