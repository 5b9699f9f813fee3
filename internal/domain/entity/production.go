package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a finished good made by production batches
type Product struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Code        string         `gorm:"size:100;unique;not null" json:"code"`
	Description *string        `gorm:"type:text" json:"description,omitempty"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// ProductionBatch records one run of a product. Its materials are consumed when it is created.
type ProductionBatch struct {
	ID          uuid.UUID             `gorm:"type:uuid;primary_key" json:"id"`
	Reference   string                `gorm:"size:32;unique;not null" json:"reference"`
	ProductID   uuid.UUID             `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity    decimal.Decimal       `gorm:"type:numeric(18,4);not null" json:"quantity"`
	Status      enum.ProductionStatus `gorm:"size:20;not null" json:"status"`
	StartedBy   uuid.UUID             `gorm:"type:uuid;not null" json:"started_by"`
	CancelledBy *uuid.UUID            `gorm:"type:uuid" json:"cancelled_by,omitempty"`
	CancelledAt *time.Time            `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`

	// Relationships
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// BeforeCreate generates a UUID before creating a new batch
func (b *ProductionBatch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ProductionBatch model
func (ProductionBatch) TableName() string {
	return "production_batches"
}

// CustomOrder is a made-to-measure order with its own bill of materials
type CustomOrder struct {
	ID          uuid.UUID             `gorm:"type:uuid;primary_key" json:"id"`
	Reference   string                `gorm:"size:32;unique;not null" json:"reference"`
	ClientName  string                `gorm:"size:255;not null" json:"client_name"`
	Description *string               `gorm:"type:text" json:"description,omitempty"`
	Quantity    decimal.Decimal       `gorm:"type:numeric(18,4);not null" json:"quantity"`
	Status      enum.ProductionStatus `gorm:"size:20;not null" json:"status"`
	CreatedBy   uuid.UUID             `gorm:"type:uuid;not null" json:"created_by"`
	StartedBy   *uuid.UUID            `gorm:"type:uuid" json:"started_by,omitempty"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	CancelledBy *uuid.UUID            `gorm:"type:uuid" json:"cancelled_by,omitempty"`
	CancelledAt *time.Time            `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`

	// Relationships
	Materials []BOMEntry `gorm:"-" json:"materials,omitempty"`
}

// BeforeCreate generates a UUID before creating a new custom order
func (o *CustomOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CustomOrder model
func (CustomOrder) TableName() string {
	return "custom_orders"
}
