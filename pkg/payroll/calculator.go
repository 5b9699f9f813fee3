// Package payroll computes net salary from gross and back under a progressive income tax table.
// Every intermediate amount is rounded to 3 decimal places, half away from zero.
package payroll

import (
	"github.com/shopspring/decimal"
)

// Deductions is the family allowance breakdown applied to the taxable gross
type Deductions struct {
	HeadOfHousehold decimal.Decimal `json:"chef_de_famille"`
	Children        decimal.Decimal `json:"enfants"`
	Total           decimal.Decimal `json:"total"`
}

// SalaryComponents is the full breakdown of one salary computation
type SalaryComponents struct {
	Gross         decimal.Decimal `json:"salaire_brut"`
	Contribution  decimal.Decimal `json:"cnss"`
	TaxableGross  decimal.Decimal `json:"salaire_imposable"`
	Deductions    Deductions      `json:"deductions"`
	TaxableBase   decimal.Decimal `json:"base_imposable"`
	IncomeTax     decimal.Decimal `json:"irpp"`
	Solidarity    decimal.Decimal `json:"css"`
	Net           decimal.Decimal `json:"salaire_net"`
	ConfigVersion int             `json:"config_version"`

	// Set by the reverse computations only
	Converged  bool `json:"converged"`
	Iterations int  `json:"iterations,omitempty"`
}

func round3(d decimal.Decimal) decimal.Decimal {
	return d.Round(3)
}

// ComputeNet derives every salary component from a gross amount. gross must not be negative.
func ComputeNet(gross decimal.Decimal, isHeadOfHousehold bool, children int, cfg Config) SalaryComponents {
	contribution := round3(gross.Mul(cfg.ContributionRate))
	taxableGross := round3(gross.Sub(contribution))

	deductions := Deductions{
		HeadOfHousehold: decimal.Zero,
		Children:        cfg.PerChildDeduction.Mul(decimal.NewFromInt(int64(children))),
	}
	if isHeadOfHousehold {
		deductions.HeadOfHousehold = cfg.HeadOfHouseholdDeduction
	}
	deductions.Total = deductions.HeadOfHousehold.Add(deductions.Children)

	taxableBase := decimal.Max(decimal.Zero, taxableGross.Sub(deductions.Total))
	incomeTax := round3(ProgressiveTax(taxableBase, cfg.Brackets))
	solidarity := round3(taxableGross.Mul(cfg.SolidarityRate))
	net := round3(gross.Sub(contribution).Sub(incomeTax).Sub(solidarity))

	return SalaryComponents{
		Gross:         gross,
		Contribution:  contribution,
		TaxableGross:  taxableGross,
		Deductions:    deductions,
		TaxableBase:   taxableBase,
		IncomeTax:     incomeTax,
		Solidarity:    solidarity,
		Net:           net,
		ConfigVersion: cfg.Version,
		Converged:     true,
	}
}

// ProgressiveTax applies each bracket's rate to the slice of base that falls inside it
func ProgressiveTax(base decimal.Decimal, brackets Brackets) decimal.Decimal {
	total := decimal.Zero
	for _, br := range brackets {
		if base.LessThanOrEqual(br.Min) {
			continue
		}
		amount := base.Sub(br.Min)
		if br.Max != nil {
			amount = decimal.Min(amount, br.Max.Sub(br.Min))
		}
		if amount.IsPositive() {
			total = total.Add(amount.Mul(br.Rate))
		}
		if br.Max != nil && base.LessThanOrEqual(*br.Max) {
			break
		}
	}
	return total
}
