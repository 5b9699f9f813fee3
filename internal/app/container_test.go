package app

import (
	"context"
	"testing"

	"github.com/sangkips/atelier-api/internal/config"
	"github.com/sangkips/atelier-api/internal/infrastructure/lock"
	"github.com/sangkips/atelier-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocker_Backends(t *testing.T) {
	ctx := context.Background()
	log := testutil.Logger()

	cfg := &config.Config{Ledger: config.LedgerConfig{LockBackend: config.LockBackendMemory}}
	locker, closeFn, err := NewLocker(ctx, cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &lock.KeyedMutex{}, locker)
	assert.NoError(t, closeFn())

	cfg.Ledger.LockBackend = config.LockBackendNone
	locker, _, err = NewLocker(ctx, cfg, log)
	require.NoError(t, err)
	unlock, err := locker.Lock(ctx, []string{"a"})
	require.NoError(t, err)
	unlock()

	cfg.Ledger.LockBackend = config.LockBackendRedis
	cfg.Redis.Addr = "127.0.0.1:1"
	_, _, err = NewLocker(ctx, cfg, log)
	assert.Error(t, err)
}

func TestNew_WiresServices(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := &config.Config{
		Ledger:  config.LedgerConfig{LockBackend: config.LockBackendMemory},
		Payroll: config.PayrollConfig{ReverseMethod: "bisection"},
	}

	c, err := New(context.Background(), db, cfg, testutil.Logger())
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Ledger)
	assert.NotNil(t, c.Materials)
	assert.NotNil(t, c.Production)
	assert.NotNil(t, c.Payroll)
	assert.NotNil(t, c.IdempotencyRepo)

	reports, err := c.Ledger.RebuildBalances(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, reports)
}
