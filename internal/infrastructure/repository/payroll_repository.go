package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	domainRepo "github.com/sangkips/atelier-api/internal/domain/repository"
	"gorm.io/gorm"
)

type payrollConfigRepository struct {
	db *gorm.DB
}

// NewPayrollConfigRepository creates a new payroll config repository
func NewPayrollConfigRepository(db *gorm.DB) domainRepo.PayrollConfigRepository {
	return &payrollConfigRepository{db: db}
}

func (r *payrollConfigRepository) Create(ctx context.Context, cfg *entity.PayrollConfig) error {
	return conn(ctx, r.db).Create(cfg).Error
}

func (r *payrollConfigRepository) GetEffective(ctx context.Context, at time.Time) (*entity.PayrollConfig, error) {
	var cfg entity.PayrollConfig
	err := conn(ctx, r.db).
		Where("effective_from <= ?", at).
		Order("effective_from DESC, version DESC").
		First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &cfg, err
}

func (r *payrollConfigRepository) GetByVersion(ctx context.Context, version int) (*entity.PayrollConfig, error) {
	var cfg entity.PayrollConfig
	err := conn(ctx, r.db).First(&cfg, "version = ?", version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &cfg, err
}

func (r *payrollConfigRepository) LatestVersion(ctx context.Context) (int, error) {
	var version int
	row := conn(ctx, r.db).Model(&entity.PayrollConfig{}).
		Select("COALESCE(MAX(version), 0)").
		Row()
	if err := row.Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func (r *payrollConfigRepository) List(ctx context.Context) ([]entity.PayrollConfig, error) {
	var configs []entity.PayrollConfig
	err := conn(ctx, r.db).Order("version DESC").Find(&configs).Error
	return configs, err
}

type salaryDefinitionRepository struct {
	db *gorm.DB
}

// NewSalaryDefinitionRepository creates a new salary definition repository
func NewSalaryDefinitionRepository(db *gorm.DB) domainRepo.SalaryDefinitionRepository {
	return &salaryDefinitionRepository{db: db}
}

func (r *salaryDefinitionRepository) Create(ctx context.Context, def *entity.SalaryDefinition) error {
	return conn(ctx, r.db).Create(def).Error
}

func (r *salaryDefinitionRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]entity.SalaryDefinition, error) {
	var defs []entity.SalaryDefinition
	err := conn(ctx, r.db).
		Where("employee_id = ?", employeeID).
		Order("effective_from DESC, created_at DESC").
		Find(&defs).Error
	return defs, err
}
