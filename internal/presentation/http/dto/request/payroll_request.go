package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/pkg/payroll"
	"github.com/shopspring/decimal"
)

// SimulateNetRequest computes a net salary from a gross amount
type SimulateNetRequest struct {
	Gross             decimal.Decimal `json:"gross"`
	IsHeadOfHousehold bool            `json:"is_head_of_household"`
	Children          int             `json:"children"`
	At                *time.Time      `json:"at"`
}

// SimulateGrossRequest finds the gross salary for a target net
type SimulateGrossRequest struct {
	Net               decimal.Decimal `json:"net"`
	IsHeadOfHousehold bool            `json:"is_head_of_household"`
	Children          int             `json:"children"`
	At                *time.Time      `json:"at"`
}

// CreatePayrollConfigRequest represents a new payroll configuration version
type CreatePayrollConfigRequest struct {
	EffectiveFrom            time.Time        `json:"effective_from" binding:"required"`
	ContributionRate         decimal.Decimal  `json:"contribution_rate"`
	HeadOfHouseholdDeduction decimal.Decimal  `json:"head_of_household_deduction"`
	PerChildDeduction        decimal.Decimal  `json:"per_child_deduction"`
	SolidarityRate           decimal.Decimal  `json:"solidarity_rate"`
	Brackets                 payroll.Brackets `json:"brackets" binding:"required"`
}

// DefineSalaryRequest stores an employee's salary
type DefineSalaryRequest struct {
	EmployeeID        uuid.UUID       `json:"employee_id" binding:"required"`
	Gross             decimal.Decimal `json:"gross"`
	IsHeadOfHousehold bool            `json:"is_head_of_household"`
	Children          int             `json:"children"`
	EffectiveFrom     time.Time       `json:"effective_from" binding:"required"`
}
