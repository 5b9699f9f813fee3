package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
)

// PayrollConfigRepository defines the interface for versioned payroll configs
type PayrollConfigRepository interface {
	Create(ctx context.Context, cfg *entity.PayrollConfig) error
	// GetEffective returns the highest version whose effective date is not after at
	GetEffective(ctx context.Context, at time.Time) (*entity.PayrollConfig, error)
	GetByVersion(ctx context.Context, version int) (*entity.PayrollConfig, error)
	LatestVersion(ctx context.Context) (int, error)
	List(ctx context.Context) ([]entity.PayrollConfig, error)
}

// SalaryDefinitionRepository defines the interface for salary definitions
type SalaryDefinitionRepository interface {
	Create(ctx context.Context, def *entity.SalaryDefinition) error
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]entity.SalaryDefinition, error)
}
