package payroll

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidBrackets is returned by Validate for a malformed bracket table
var ErrInvalidBrackets = errors.New("invalid tax brackets")

// Bracket is one slice of the progressive income tax table.
// A nil Max means the bracket is unbounded.
type Bracket struct {
	Min  decimal.Decimal  `json:"min"`
	Max  *decimal.Decimal `json:"max"`
	Rate decimal.Decimal  `json:"rate"`
}

// Brackets is an ordered, contiguous bracket table starting at zero
type Brackets []Bracket

// Config holds the rates and tables needed to compute a salary
type Config struct {
	Version                  int             `json:"version"`
	EffectiveFrom            time.Time       `json:"effective_from"`
	ContributionRate         decimal.Decimal `json:"contribution_rate"`
	HeadOfHouseholdDeduction decimal.Decimal `json:"head_of_household_deduction"`
	PerChildDeduction        decimal.Decimal `json:"per_child_deduction"`
	SolidarityRate           decimal.Decimal `json:"solidarity_rate"`
	Brackets                 Brackets        `json:"brackets"`
}

// Validate checks that brackets start at zero, are contiguous, end unbounded and carry rates in [0,1]
func (b Brackets) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("%w: at least one bracket is required", ErrInvalidBrackets)
	}
	if !b[0].Min.IsZero() {
		return fmt.Errorf("%w: first bracket must start at 0", ErrInvalidBrackets)
	}
	one := decimal.NewFromInt(1)
	for i, br := range b {
		if br.Rate.IsNegative() || br.Rate.GreaterThan(one) {
			return fmt.Errorf("%w: bracket %d rate %s outside [0,1]", ErrInvalidBrackets, i, br.Rate)
		}
		last := i == len(b)-1
		if br.Max == nil {
			if !last {
				return fmt.Errorf("%w: only the last bracket may be unbounded", ErrInvalidBrackets)
			}
			continue
		}
		if last {
			return fmt.Errorf("%w: last bracket must be unbounded", ErrInvalidBrackets)
		}
		if !br.Max.GreaterThan(br.Min) {
			return fmt.Errorf("%w: bracket %d max must exceed min", ErrInvalidBrackets, i)
		}
		if !b[i+1].Min.Equal(*br.Max) {
			return fmt.Errorf("%w: bracket %d does not start where bracket %d ends", ErrInvalidBrackets, i+1, i)
		}
	}
	return nil
}

// Validate checks rates and the bracket table
func (c Config) Validate() error {
	one := decimal.NewFromInt(1)
	for name, rate := range map[string]decimal.Decimal{
		"contribution_rate": c.ContributionRate,
		"solidarity_rate":   c.SolidarityRate,
	} {
		if rate.IsNegative() || rate.GreaterThanOrEqual(one) {
			return fmt.Errorf("%s must be in [0,1)", name)
		}
	}
	if c.HeadOfHouseholdDeduction.IsNegative() || c.PerChildDeduction.IsNegative() {
		return errors.New("deductions must not be negative")
	}
	return c.Brackets.Validate()
}

// Bound is a helper for building bracket tables
func Bound(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// DefaultConfig returns the 2025 rate table
func DefaultConfig() Config {
	return Config{
		Version:                  1,
		EffectiveFrom:            time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		ContributionRate:         decimal.RequireFromString("0.0968"),
		HeadOfHouseholdDeduction: decimal.NewFromInt(300),
		PerChildDeduction:        decimal.NewFromInt(100),
		SolidarityRate:           decimal.RequireFromString("0.005"),
		Brackets: Brackets{
			{Min: decimal.Zero, Max: Bound(5000), Rate: decimal.Zero},
			{Min: decimal.NewFromInt(5000), Max: Bound(10000), Rate: decimal.RequireFromString("0.15")},
			{Min: decimal.NewFromInt(10000), Max: Bound(20000), Rate: decimal.RequireFromString("0.25")},
			{Min: decimal.NewFromInt(20000), Max: Bound(30000), Rate: decimal.RequireFromString("0.30")},
			{Min: decimal.NewFromInt(30000), Max: Bound(40000), Rate: decimal.RequireFromString("0.33")},
			{Min: decimal.NewFromInt(40000), Max: Bound(50000), Rate: decimal.RequireFromString("0.36")},
			{Min: decimal.NewFromInt(50000), Max: nil, Rate: decimal.RequireFromString("0.40")},
		},
	}
}
