package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Material is a raw material held in stock. QuantityOnHand is a projection of the
// stock_transactions ledger and is only written by the stock ledger service.
type Material struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UnitID          *uuid.UUID      `gorm:"type:uuid;index" json:"unit_id,omitempty"`
	Name            string          `gorm:"size:255;not null" json:"name"`
	Code            string          `gorm:"size:100;unique;not null" json:"code"`
	QuantityOnHand  decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"quantity_on_hand"`
	LowThreshold    decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"low_threshold"`
	MediumThreshold decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"medium_threshold"`
	IsActive        bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Relationships
	Unit *Unit `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
}

// BeforeCreate generates a UUID before creating a new material
func (m *Material) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Material model
func (Material) TableName() string {
	return "materials"
}

// ClassifyRemaining returns the alert level a balance of remaining would trigger:
// critical below the low threshold, warning below the medium threshold.
func (m *Material) ClassifyRemaining(remaining decimal.Decimal) enum.AlertSeverity {
	switch {
	case remaining.LessThan(m.LowThreshold):
		return enum.AlertCritical
	case remaining.LessThan(m.MediumThreshold):
		return enum.AlertWarning
	default:
		return enum.AlertNone
	}
}

// AlertFor builds the alert raised when the balance drops to remaining, or nil when none applies
func (m *Material) AlertFor(remaining decimal.Decimal) *StockAlert {
	severity := m.ClassifyRemaining(remaining)
	if severity == enum.AlertNone {
		return nil
	}
	threshold := m.MediumThreshold
	if severity == enum.AlertCritical {
		threshold = m.LowThreshold
	}
	return &StockAlert{
		Type:           severity,
		MaterialID:     m.ID,
		MaterialTitle:  m.Name,
		RemainingStock: remaining,
		Threshold:      threshold,
	}
}

// StockAlert is a derived low-stock advisory; it is never persisted
type StockAlert struct {
	Type           enum.AlertSeverity `json:"type"`
	MaterialID     uuid.UUID          `json:"material_id"`
	MaterialTitle  string             `json:"material_title"`
	RemainingStock decimal.Decimal    `json:"remaining_stock"`
	Threshold      decimal.Decimal    `json:"threshold"`
}

// Unit represents a unit of measurement
type Unit struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	ShortCode string    `gorm:"size:50;unique;not null" json:"short_code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new unit
func (u *Unit) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Unit model
func (Unit) TableName() string {
	return "units"
}
