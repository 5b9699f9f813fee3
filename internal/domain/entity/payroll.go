package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/pkg/payroll"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PayrollConfig is a versioned rate and bracket table
type PayrollConfig struct {
	ID                       uuid.UUID                            `gorm:"type:uuid;primary_key" json:"id"`
	Version                  int                                  `gorm:"not null;uniqueIndex" json:"version"`
	EffectiveFrom            time.Time                            `gorm:"not null;index" json:"effective_from"`
	ContributionRate         decimal.Decimal                      `gorm:"type:numeric(10,6);not null" json:"contribution_rate"`
	HeadOfHouseholdDeduction decimal.Decimal                      `gorm:"type:numeric(18,3);not null" json:"head_of_household_deduction"`
	PerChildDeduction        decimal.Decimal                      `gorm:"type:numeric(18,3);not null" json:"per_child_deduction"`
	SolidarityRate           decimal.Decimal                      `gorm:"type:numeric(10,6);not null" json:"solidarity_rate"`
	Brackets                 datatypes.JSONType[payroll.Brackets] `json:"brackets"`
	CreatedBy                *uuid.UUID                           `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt                time.Time                            `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new config
func (p *PayrollConfig) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the PayrollConfig model
func (PayrollConfig) TableName() string {
	return "payroll_configs"
}

// Calculator converts the stored row to the calculator's config
func (p *PayrollConfig) Calculator() payroll.Config {
	return payroll.Config{
		Version:                  p.Version,
		EffectiveFrom:            p.EffectiveFrom,
		ContributionRate:         p.ContributionRate,
		HeadOfHouseholdDeduction: p.HeadOfHouseholdDeduction,
		PerChildDeduction:        p.PerChildDeduction,
		SolidarityRate:           p.SolidarityRate,
		Brackets:                 p.Brackets.Data(),
	}
}

// NewPayrollConfig builds a storable row from a calculator config
func NewPayrollConfig(cfg payroll.Config) *PayrollConfig {
	return &PayrollConfig{
		Version:                  cfg.Version,
		EffectiveFrom:            cfg.EffectiveFrom,
		ContributionRate:         cfg.ContributionRate,
		HeadOfHouseholdDeduction: cfg.HeadOfHouseholdDeduction,
		PerChildDeduction:        cfg.PerChildDeduction,
		SolidarityRate:           cfg.SolidarityRate,
		Brackets:                 datatypes.NewJSONType(cfg.Brackets),
	}
}

// SalaryDefinition stores an employee's salary inputs and the breakdown computed for them
type SalaryDefinition struct {
	ID                uuid.UUID                                    `gorm:"type:uuid;primary_key" json:"id"`
	EmployeeID        uuid.UUID                                    `gorm:"type:uuid;not null;index" json:"employee_id"`
	Gross             decimal.Decimal                              `gorm:"type:numeric(18,3);not null" json:"gross"`
	Net               decimal.Decimal                              `gorm:"type:numeric(18,3);not null" json:"net"`
	IsHeadOfHousehold bool                                         `json:"is_head_of_household"`
	Children          int                                          `gorm:"not null" json:"children"`
	EffectiveFrom     time.Time                                    `gorm:"not null;index" json:"effective_from"`
	ConfigVersion     int                                          `gorm:"not null" json:"config_version"`
	Breakdown         datatypes.JSONType[payroll.SalaryComponents] `json:"breakdown"`
	CreatedBy         uuid.UUID                                    `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt         time.Time                                    `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new salary definition
func (s *SalaryDefinition) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SalaryDefinition model
func (SalaryDefinition) TableName() string {
	return "salary_definitions"
}
