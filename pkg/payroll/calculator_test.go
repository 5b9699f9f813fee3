package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixtureConfig is a small three-bracket table used to pin exact figures
func fixtureConfig() Config {
	return Config{
		Version:                  7,
		ContributionRate:         d("0.0968"),
		HeadOfHouseholdDeduction: d("300"),
		PerChildDeduction:        d("100"),
		SolidarityRate:           d("0.005"),
		Brackets: Brackets{
			{Min: d("0"), Max: Bound(200), Rate: d("0")},
			{Min: d("200"), Max: Bound(500), Rate: d("0.26")},
			{Min: d("500"), Max: nil, Rate: d("0.32")},
		},
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestComputeNet_PinnedFixture(t *testing.T) {
	res := ComputeNet(d("1000"), true, 2, fixtureConfig())

	assertDecimal(t, "1000", res.Gross, "gross")
	assertDecimal(t, "96.8", res.Contribution, "contribution")
	assertDecimal(t, "903.2", res.TaxableGross, "taxable gross")
	assertDecimal(t, "300", res.Deductions.HeadOfHousehold, "head deduction")
	assertDecimal(t, "200", res.Deductions.Children, "children deduction")
	assertDecimal(t, "500", res.Deductions.Total, "total deduction")
	assertDecimal(t, "403.2", res.TaxableBase, "taxable base")
	assertDecimal(t, "52.832", res.IncomeTax, "income tax")
	assertDecimal(t, "4.516", res.Solidarity, "solidarity")
	assertDecimal(t, "845.852", res.Net, "net")
	assert.Equal(t, 7, res.ConfigVersion)
}

func TestComputeNet_DefaultConfig(t *testing.T) {
	res := ComputeNet(d("1000"), true, 2, DefaultConfig())

	assertDecimal(t, "96.8", res.Contribution, "contribution")
	assertDecimal(t, "903.2", res.TaxableGross, "taxable gross")
	assertDecimal(t, "500", res.Deductions.Total, "deduction")
	assertDecimal(t, "403.2", res.TaxableBase, "taxable base")
	assertDecimal(t, "0", res.IncomeTax, "income tax")
	assertDecimal(t, "4.516", res.Solidarity, "solidarity")
	assertDecimal(t, "898.684", res.Net, "net")
}

func TestComputeNet_DeductionNeverMakesBaseNegative(t *testing.T) {
	res := ComputeNet(d("100"), true, 5, fixtureConfig())

	assert.True(t, res.TaxableBase.IsZero())
	assert.True(t, res.IncomeTax.IsZero())
	assertDecimal(t, "800", res.Deductions.Total, "deduction")
}

func TestComputeNet_NotHeadOfHousehold(t *testing.T) {
	res := ComputeNet(d("1000"), false, 0, fixtureConfig())

	assert.True(t, res.Deductions.Total.IsZero())
	assertDecimal(t, "903.2", res.TaxableBase, "taxable base")
	// (500-200)*0.26 + (903.2-500)*0.32
	assertDecimal(t, "207.024", res.IncomeTax, "income tax")
}

func TestComputeNet_RoundsHalfAwayFromZero(t *testing.T) {
	cfg := fixtureConfig()
	cfg.ContributionRate = d("0.0005")

	// 1 * 0.0005 = 0.0005 -> 0.001
	res := ComputeNet(d("1"), false, 0, cfg)
	assertDecimal(t, "0.001", res.Contribution, "contribution")
}

func TestProgressiveTax_Marginal(t *testing.T) {
	brackets := DefaultConfig().Brackets

	cases := []struct {
		base string
		want string
	}{
		{"0", "0"},
		{"5000", "0"},
		{"7000", "300"},
		{"10000", "750"},
		{"15000", "2000"},
		{"60000", "17150"},
	}
	for _, tc := range cases {
		assertDecimal(t, tc.want, ProgressiveTax(d(tc.base), brackets), "tax on "+tc.base)
	}
}

func TestProgressiveTax_MonotoneAndMarginalRate(t *testing.T) {
	brackets := DefaultConfig().Brackets
	step := d("37.5")

	prev := decimal.Zero
	for base := decimal.Zero; base.LessThan(d("70000")); base = base.Add(step) {
		tax := ProgressiveTax(base, brackets)
		require.Truef(t, tax.GreaterThanOrEqual(prev), "tax decreased at base %s", base)
		prev = tax
	}

	for _, br := range brackets {
		lo := br.Min.Add(d("1"))
		hi := lo.Add(d("100"))
		if br.Max != nil && hi.GreaterThan(*br.Max) {
			continue
		}
		diff := ProgressiveTax(hi, brackets).Sub(ProgressiveTax(lo, brackets))
		assertDecimal(t, br.Rate.Mul(d("100")).String(), diff, "marginal tax in bracket from "+br.Min.String())
	}
}

func TestBracketsValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Brackets.Validate())
	require.NoError(t, DefaultConfig().Validate())

	cases := map[string]Brackets{
		"empty":          {},
		"not from zero":  {{Min: d("10"), Max: nil, Rate: d("0.1")}},
		"gap":            {{Min: d("0"), Max: Bound(100), Rate: d("0")}, {Min: d("150"), Max: nil, Rate: d("0.1")}},
		"bounded last":   {{Min: d("0"), Max: Bound(100), Rate: d("0")}},
		"unbounded mid":  {{Min: d("0"), Max: nil, Rate: d("0")}, {Min: d("100"), Max: nil, Rate: d("0.1")}},
		"rate above one": {{Min: d("0"), Max: nil, Rate: d("1.5")}},
		"inverted":       {{Min: d("0"), Max: Bound(0), Rate: d("0")}, {Min: d("0"), Max: nil, Rate: d("0.1")}},
	}
	for name, b := range cases {
		err := b.Validate()
		assert.ErrorIsf(t, err, ErrInvalidBrackets, "case %q", name)
	}
}

func TestConfigValidate_Rates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContributionRate = d("1")
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.PerChildDeduction = d("-1")
	assert.Error(t, cfg.Validate())
}
