package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BOMEntry states how much of one material a single unit of a product or custom order consumes
type BOMEntry struct {
	ID              uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	OwnerType       enum.BOMOwnerType `gorm:"size:32;not null;uniqueIndex:idx_bom_owner_material" json:"owner_type"`
	OwnerID         uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_bom_owner_material" json:"owner_id"`
	MaterialID      uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_bom_owner_material" json:"material_id"`
	QuantityPerUnit decimal.Decimal   `gorm:"type:numeric(18,4);not null" json:"quantity_per_unit"`
	CreatedAt       time.Time         `json:"created_at"`

	// Relationships
	Material *Material `gorm:"foreignKey:MaterialID" json:"material,omitempty"`
}

// BeforeCreate generates a UUID before creating a new BOM entry
func (b *BOMEntry) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the BOMEntry model
func (BOMEntry) TableName() string {
	return "bom_entries"
}
