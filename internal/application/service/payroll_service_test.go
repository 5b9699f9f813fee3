package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/pkg/apperror"
	"github.com/sangkips/atelier-api/pkg/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPayroll(t *testing.T, env *testEnv) {
	t.Helper()
	require.NoError(t, env.db.Create(entity.NewPayrollConfig(payroll.DefaultConfig())).Error)
}

func TestPayrollService_SimulateNet(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})
	seedPayroll(t, env)

	at := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	res, err := env.payroll.SimulateNet(ctx, &SimulateInput{Amount: dec("1000"), IsHeadOfHousehold: true, Children: 2, At: &at})
	require.NoError(t, err)
	assertDec(t, "96.8", res.Contribution)
	assertDec(t, "4.516", res.Solidarity)
	assertDec(t, "898.684", res.Net)
	assert.Equal(t, 1, res.ConfigVersion)

	before := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	_, err = env.payroll.SimulateNet(ctx, &SimulateInput{Amount: dec("1000"), At: &before})
	assertKind(t, err, apperror.KindNotFound)

	_, err = env.payroll.SimulateNet(ctx, &SimulateInput{Amount: dec("-1")})
	assertKind(t, err, apperror.KindValidation)
}

func TestPayrollService_SimulateGrossRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})
	seedPayroll(t, env)

	gross, err := env.payroll.SimulateGross(ctx, &SimulateInput{Amount: dec("2500"), Children: 1})
	require.NoError(t, err)
	assert.True(t, gross.Converged)

	net, err := env.payroll.SimulateNet(ctx, &SimulateInput{Amount: gross.Gross, Children: 1})
	require.NoError(t, err)
	assert.True(t, net.Net.Sub(dec("2500")).Abs().LessThan(dec("0.01")), "net %s", net.Net)
}

func TestPayrollService_CreateConfigVersions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})
	seedPayroll(t, env)

	next := payroll.DefaultConfig()
	input := &CreateConfigInput{
		EffectiveFrom:            time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		ContributionRate:         next.ContributionRate,
		HeadOfHouseholdDeduction: next.HeadOfHouseholdDeduction,
		PerChildDeduction:        dec("150"),
		SolidarityRate:           next.SolidarityRate,
		Brackets:                 next.Brackets,
		ActorID:                  env.actor,
	}
	cfg, err := env.payroll.CreateConfig(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Version)

	active, err := env.payroll.ActiveConfig(ctx, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, active.Version)
	assertDec(t, "150", active.PerChildDeduction)

	active, err = env.payroll.ActiveConfig(ctx, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, active.Version)

	input.Brackets = payroll.Brackets{{Min: dec("100"), Rate: dec("0.1")}}
	_, err = env.payroll.CreateConfig(ctx, input)
	assertKind(t, err, apperror.KindValidation)

	input.Brackets = next.Brackets
	input.SolidarityRate = dec("1.5")
	_, err = env.payroll.CreateConfig(ctx, input)
	assertKind(t, err, apperror.KindValidation)

	configs, err := env.payroll.ListConfigs(ctx)
	require.NoError(t, err)
	assert.Len(t, configs, 2)
}

func TestPayrollService_DefineSalary(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})
	seedPayroll(t, env)
	employee := uuid.New()

	def, err := env.payroll.DefineSalary(ctx, &DefineSalaryInput{
		EmployeeID:        employee,
		Gross:             dec("1000"),
		IsHeadOfHousehold: true,
		Children:          2,
		EffectiveFrom:     time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		ActorID:           env.actor,
	})
	require.NoError(t, err)
	assertDec(t, "898.684", def.Net)
	assert.Equal(t, 1, def.ConfigVersion)

	defs, err := env.payroll.ListSalaryDefinitions(ctx, employee)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assertDec(t, "898.684", defs[0].Breakdown.Data().Net)
	assertDec(t, "500", defs[0].Breakdown.Data().Deductions.Total)

	_, err = env.payroll.DefineSalary(ctx, &DefineSalaryInput{EmployeeID: employee, Gross: dec("0"), ActorID: env.actor})
	assertKind(t, err, apperror.KindValidation)
}
