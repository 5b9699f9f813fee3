package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/pkg/apperror"
	"github.com/sangkips/atelier-api/pkg/logger"
	"github.com/sangkips/atelier-api/pkg/pagination"
	"github.com/sangkips/atelier-api/pkg/utils"
	"github.com/shopspring/decimal"
)

// MaterialService handles raw material registration and lookups
type MaterialService struct {
	transactor   repository.Transactor
	materialRepo repository.MaterialRepository
	unitRepo     repository.UnitRepository
	ledger       *StockLedgerService
	log          *logger.Logger
}

// NewMaterialService creates a new material service
func NewMaterialService(
	transactor repository.Transactor,
	materialRepo repository.MaterialRepository,
	unitRepo repository.UnitRepository,
	ledger *StockLedgerService,
	log *logger.Logger,
) *MaterialService {
	return &MaterialService{
		transactor:   transactor,
		materialRepo: materialRepo,
		unitRepo:     unitRepo,
		ledger:       ledger,
		log:          log.With("component", "materials"),
	}
}

// RegisterMaterialInput represents the create material input
type RegisterMaterialInput struct {
	Name            string          `json:"name" validate:"required,max=255"`
	Code            string          `json:"code" validate:"max=100"`
	UnitID          *uuid.UUID      `json:"unit_id"`
	LowThreshold    decimal.Decimal `json:"low_threshold" validate:"gte=0"`
	MediumThreshold decimal.Decimal `json:"medium_threshold" validate:"gte=0"`
	InitialQuantity decimal.Decimal `json:"initial_quantity" validate:"gte=0"`
	ActorID         uuid.UUID       `json:"actor_id" validate:"required"`
}

// RegisterMaterial creates a material with a zero balance. A positive initial quantity is
// booked as a manual "in" movement in the same transaction so the ledger explains it.
func (s *MaterialService) RegisterMaterial(ctx context.Context, input *RegisterMaterialInput) (*entity.Material, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := checkThresholds(input.LowThreshold, input.MediumThreshold); err != nil {
		return nil, err
	}
	if err := checkScale("initial_quantity", input.InitialQuantity); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(input.Code)
	if code == "" {
		code = utils.GenerateMaterialCode()
	}

	existing, err := s.materialRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, apperror.NewPersistenceError("look up material code", err)
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Material code already exists")
	}

	if input.UnitID != nil {
		unit, err := s.unitRepo.GetByID(ctx, *input.UnitID)
		if err != nil {
			return nil, apperror.NewPersistenceError("load unit", err)
		}
		if unit == nil {
			return nil, apperror.NewNotFoundError("Unit")
		}
	}

	material := &entity.Material{
		UnitID:          input.UnitID,
		Name:            strings.TrimSpace(input.Name),
		Code:            code,
		QuantityOnHand:  decimal.Zero,
		LowThreshold:    input.LowThreshold,
		MediumThreshold: input.MediumThreshold,
		IsActive:        true,
	}

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.materialRepo.Create(ctx, material); err != nil {
			return apperror.NewPersistenceError("create material", err)
		}
		if !input.InitialQuantity.IsPositive() {
			return nil
		}
		result, err := s.ledger.applyManualMovement(ctx, &ManualMovementInput{
			MaterialID: material.ID,
			Direction:  enum.MovementIn,
			Quantity:   input.InitialQuantity,
			ActorID:    input.ActorID,
			Reason:     "Initial stock",
		})
		if err != nil {
			return err
		}
		material.QuantityOnHand = result.BalanceAfter
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("material registered", "material_id", material.ID, "code", material.Code, "initial_quantity", material.QuantityOnHand)
	return material, nil
}

// UpdateThresholds changes the alert levels of a material
func (s *MaterialService) UpdateThresholds(ctx context.Context, id uuid.UUID, low, medium decimal.Decimal) (*entity.Material, error) {
	if err := checkThresholds(low, medium); err != nil {
		return nil, err
	}

	material, err := s.GetMaterial(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.materialRepo.UpdateThresholds(ctx, id, low, medium); err != nil {
		return nil, apperror.NewPersistenceError("update thresholds", err)
	}

	material.LowThreshold = low
	material.MediumThreshold = medium
	return material, nil
}

// DeactivateMaterial hides a material from new consumption. Materials are never deleted
// because ledger rows reference them.
func (s *MaterialService) DeactivateMaterial(ctx context.Context, id uuid.UUID) error {
	material, err := s.GetMaterial(ctx, id)
	if err != nil {
		return err
	}
	if !material.IsActive {
		return nil
	}
	if err := s.materialRepo.SetActive(ctx, id, false); err != nil {
		return apperror.NewPersistenceError("deactivate material", err)
	}
	s.log.Info("material deactivated", "material_id", id)
	return nil
}

// GetMaterial gets a material by ID
func (s *MaterialService) GetMaterial(ctx context.Context, id uuid.UUID) (*entity.Material, error) {
	material, err := s.materialRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewPersistenceError("load material", err)
	}
	if material == nil {
		return nil, apperror.NewNotFoundError("Material")
	}
	return material, nil
}

// ListMaterialsInput filters the material listing
type ListMaterialsInput struct {
	Pagination      *pagination.PaginationParams
	Search          string
	AlertLevel      *enum.AlertSeverity
	IncludeInactive bool
}

// ListMaterials lists materials with pagination
func (s *MaterialService) ListMaterials(ctx context.Context, input *ListMaterialsInput) (*pagination.PaginatedResult[entity.Material], error) {
	params := input.Pagination
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	materials, total, err := s.materialRepo.List(ctx, &repository.MaterialFilterParams{
		Pagination:      params,
		Search:          strings.TrimSpace(input.Search),
		IncludeInactive: input.IncludeInactive,
		AlertLevel:      input.AlertLevel,
	})
	if err != nil {
		return nil, apperror.NewPersistenceError("list materials", err)
	}

	return pagination.NewPaginatedResult(materials, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// ListUnits lists the units of measure
func (s *MaterialService) ListUnits(ctx context.Context) ([]entity.Unit, error) {
	units, err := s.unitRepo.List(ctx)
	if err != nil {
		return nil, apperror.NewPersistenceError("list units", err)
	}
	return units, nil
}

func checkThresholds(low, medium decimal.Decimal) error {
	if low.IsNegative() {
		return apperror.NewFieldError("low_threshold", "must be at least 0")
	}
	if medium.LessThan(low) {
		return apperror.NewFieldError("medium_threshold", "must be greater than or equal to low_threshold")
	}
	if err := checkScale("low_threshold", low); err != nil {
		return err
	}
	return checkScale("medium_threshold", medium)
}
