package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/pkg/apperror"
	"github.com/sangkips/atelier-api/pkg/logger"
	"github.com/sangkips/atelier-api/pkg/payroll"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PayrollService computes salaries against the configuration in force at a given date
type PayrollService struct {
	configRepo repository.PayrollConfigRepository
	salaryRepo repository.SalaryDefinitionRepository
	method     payroll.ReverseMethod
	log        *logger.Logger
	now        func() time.Time
}

// NewPayrollService creates a new payroll service. method selects the net-to-gross algorithm.
func NewPayrollService(
	configRepo repository.PayrollConfigRepository,
	salaryRepo repository.SalaryDefinitionRepository,
	method payroll.ReverseMethod,
	log *logger.Logger,
) *PayrollService {
	return &PayrollService{
		configRepo: configRepo,
		salaryRepo: salaryRepo,
		method:     method,
		log:        log.With("component", "payroll"),
		now:        time.Now,
	}
}

// ActiveConfig returns the latest configuration effective at the given date
func (s *PayrollService) ActiveConfig(ctx context.Context, at time.Time) (*entity.PayrollConfig, error) {
	cfg, err := s.configRepo.GetEffective(ctx, at)
	if err != nil {
		return nil, apperror.NewPersistenceError("load payroll configuration", err)
	}
	if cfg == nil {
		return nil, apperror.NewNotFoundError("Payroll configuration")
	}
	return cfg, nil
}

// ListConfigs returns every stored configuration
func (s *PayrollService) ListConfigs(ctx context.Context) ([]entity.PayrollConfig, error) {
	configs, err := s.configRepo.List(ctx)
	if err != nil {
		return nil, apperror.NewPersistenceError("list payroll configurations", err)
	}
	return configs, nil
}

// CreateConfigInput represents a new payroll configuration
type CreateConfigInput struct {
	EffectiveFrom            time.Time        `json:"effective_from" validate:"required"`
	ContributionRate         decimal.Decimal  `json:"contribution_rate" validate:"gte=0,lt=1"`
	HeadOfHouseholdDeduction decimal.Decimal  `json:"head_of_household_deduction" validate:"gte=0"`
	PerChildDeduction        decimal.Decimal  `json:"per_child_deduction" validate:"gte=0"`
	SolidarityRate           decimal.Decimal  `json:"solidarity_rate" validate:"gte=0,lt=1"`
	Brackets                 payroll.Brackets `json:"brackets" validate:"required,min=1"`
	ActorID                  uuid.UUID        `json:"actor_id" validate:"required"`
}

// CreateConfig stores a configuration under the next version number
func (s *PayrollService) CreateConfig(ctx context.Context, input *CreateConfigInput) (*entity.PayrollConfig, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	calc := payroll.Config{
		EffectiveFrom:            input.EffectiveFrom,
		ContributionRate:         input.ContributionRate,
		HeadOfHouseholdDeduction: input.HeadOfHouseholdDeduction,
		PerChildDeduction:        input.PerChildDeduction,
		SolidarityRate:           input.SolidarityRate,
		Brackets:                 input.Brackets,
	}
	if err := calc.Validate(); err != nil {
		return nil, apperror.NewFieldError("brackets", err.Error())
	}

	latest, err := s.configRepo.LatestVersion(ctx)
	if err != nil {
		return nil, apperror.NewPersistenceError("read payroll configuration version", err)
	}
	calc.Version = latest + 1

	cfg := entity.NewPayrollConfig(calc)
	cfg.CreatedBy = &input.ActorID
	if err := s.configRepo.Create(ctx, cfg); err != nil {
		return nil, apperror.NewPersistenceError("create payroll configuration", err)
	}

	s.log.Info("payroll configuration created", "version", cfg.Version, "effective_from", cfg.EffectiveFrom, "actor_id", input.ActorID)
	return cfg, nil
}

// SimulateInput is the employee situation to compute a salary for.
// Amount is the gross for SimulateNet and the target net for SimulateGross.
type SimulateInput struct {
	Amount            decimal.Decimal `json:"amount" validate:"gte=0"`
	IsHeadOfHousehold bool            `json:"is_head_of_household"`
	Children          int             `json:"children" validate:"gte=0,lte=20"`
	At                *time.Time      `json:"at"`
}

// SimulateNet computes the net salary for a gross amount
func (s *PayrollService) SimulateNet(ctx context.Context, input *SimulateInput) (*payroll.SalaryComponents, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	cfg, err := s.ActiveConfig(ctx, s.at(input.At))
	if err != nil {
		return nil, err
	}

	result := payroll.ComputeNet(input.Amount, input.IsHeadOfHousehold, input.Children, cfg.Calculator())
	return &result, nil
}

// SimulateGross finds the gross salary that yields a target net
func (s *PayrollService) SimulateGross(ctx context.Context, input *SimulateInput) (*payroll.SalaryComponents, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	cfg, err := s.ActiveConfig(ctx, s.at(input.At))
	if err != nil {
		return nil, err
	}

	result := payroll.GrossFromNet(s.method, input.Amount, input.IsHeadOfHousehold, input.Children, cfg.Calculator())
	if !result.Converged {
		s.log.Warn("net to gross did not converge",
			"target_net", input.Amount,
			"net", result.Net,
			"iterations", result.Iterations,
			"method", s.method,
		)
	}
	return &result, nil
}

// DefineSalaryInput represents an employee's salary inputs
type DefineSalaryInput struct {
	EmployeeID        uuid.UUID       `json:"employee_id" validate:"required"`
	Gross             decimal.Decimal `json:"gross" validate:"gt=0"`
	IsHeadOfHousehold bool            `json:"is_head_of_household"`
	Children          int             `json:"children" validate:"gte=0,lte=20"`
	EffectiveFrom     time.Time       `json:"effective_from" validate:"required"`
	ActorID           uuid.UUID       `json:"actor_id" validate:"required"`
}

// DefineSalary stores the salary inputs together with the breakdown and the config version used
func (s *PayrollService) DefineSalary(ctx context.Context, input *DefineSalaryInput) (*entity.SalaryDefinition, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	cfg, err := s.ActiveConfig(ctx, input.EffectiveFrom)
	if err != nil {
		return nil, err
	}

	breakdown := payroll.ComputeNet(input.Gross, input.IsHeadOfHousehold, input.Children, cfg.Calculator())
	def := &entity.SalaryDefinition{
		EmployeeID:        input.EmployeeID,
		Gross:             breakdown.Gross,
		Net:               breakdown.Net,
		IsHeadOfHousehold: input.IsHeadOfHousehold,
		Children:          input.Children,
		EffectiveFrom:     input.EffectiveFrom,
		ConfigVersion:     cfg.Version,
		Breakdown:         datatypes.NewJSONType(breakdown),
		CreatedBy:         input.ActorID,
	}
	if err := s.salaryRepo.Create(ctx, def); err != nil {
		return nil, apperror.NewPersistenceError("save salary definition", err)
	}

	s.log.Info("salary defined", "employee_id", input.EmployeeID, "gross", def.Gross, "net", def.Net, "config_version", def.ConfigVersion)
	return def, nil
}

// ListSalaryDefinitions returns an employee's salary history, newest first
func (s *PayrollService) ListSalaryDefinitions(ctx context.Context, employeeID uuid.UUID) ([]entity.SalaryDefinition, error) {
	defs, err := s.salaryRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, apperror.NewPersistenceError("list salary definitions", err)
	}
	return defs, nil
}

func (s *PayrollService) at(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return s.now()
	}
	return *t
}
