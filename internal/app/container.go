// Package app wires configuration, storage and services into a runnable container.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sangkips/atelier-api/internal/application/service"
	"github.com/sangkips/atelier-api/internal/config"
	domainRepo "github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/internal/infrastructure/lock"
	"github.com/sangkips/atelier-api/internal/infrastructure/repository"
	"github.com/sangkips/atelier-api/pkg/logger"
	"github.com/sangkips/atelier-api/pkg/payroll"
	"gorm.io/gorm"
)

// Container holds the services shared by the API and the maintenance commands
type Container struct {
	Locker          lock.Locker
	Ledger          *service.StockLedgerService
	Materials       *service.MaterialService
	Production      *service.ProductionService
	Payroll         *service.PayrollService
	IdempotencyRepo domainRepo.IdempotencyRepository

	closers []func() error
}

// NewLocker builds the ledger lock backend selected by LEDGER_LOCK_BACKEND. The returned
// close function releases the Redis client, if any.
func NewLocker(ctx context.Context, cfg *config.Config, log *logger.Logger) (lock.Locker, func() error, error) {
	switch cfg.Ledger.LockBackend {
	case config.LockBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		locker := lock.NewRedisLocker(client, lock.RedisConfig{
			TTL:  cfg.Ledger.LockTTL,
			Wait: cfg.Ledger.LockWait,
		}, log)
		return locker, client.Close, nil
	case config.LockBackendNone:
		log.Warn("ledger lock disabled, relying on database row locks only")
		return lock.NewNoop(), func() error { return nil }, nil
	default:
		return lock.NewKeyedMutex(), func() error { return nil }, nil
	}
}

// New builds every repository and service on top of db
func New(ctx context.Context, db *gorm.DB, cfg *config.Config, log *logger.Logger) (*Container, error) {
	locker, closeLocker, err := NewLocker(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	transactor := repository.NewTransactor(db)
	materialRepo := repository.NewMaterialRepository(db)

	ledger := service.NewStockLedgerService(
		transactor,
		materialRepo,
		repository.NewStockTransactionRepository(db),
		locker,
		log,
		service.LedgerOptions{AlertsOnManualMovement: cfg.Ledger.AlertsOnManualMovement},
	)

	return &Container{
		Locker:    locker,
		Ledger:    ledger,
		Materials: service.NewMaterialService(transactor, materialRepo, repository.NewUnitRepository(db), ledger, log),
		Production: service.NewProductionService(
			transactor,
			repository.NewProductRepository(db),
			repository.NewProductionBatchRepository(db),
			repository.NewCustomOrderRepository(db),
			repository.NewBOMRepository(db),
			materialRepo,
			ledger,
			log,
		),
		Payroll: service.NewPayrollService(
			repository.NewPayrollConfigRepository(db),
			repository.NewSalaryDefinitionRepository(db),
			payroll.ParseReverseMethod(cfg.Payroll.ReverseMethod),
			log,
		),
		IdempotencyRepo: repository.NewIdempotencyRepository(db),
		closers:         []func() error{closeLocker},
	}, nil
}

// Close releases external clients held by the container
func (c *Container) Close() error {
	var firstErr error
	for _, closer := range c.closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
