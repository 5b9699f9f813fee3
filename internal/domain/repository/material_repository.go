package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// MaterialRepository defines the interface for material data operations
type MaterialRepository interface {
	Create(ctx context.Context, material *entity.Material) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Material, error)
	GetByCode(ctx context.Context, code string) (*entity.Material, error)
	// GetByIDsForUpdate loads the materials and row-locks them, in ascending id order,
	// until the enclosing transaction ends. Missing ids are simply absent from the result.
	GetByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]entity.Material, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error
	UpdateThresholds(ctx context.Context, id uuid.UUID, low, medium decimal.Decimal) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, params *MaterialFilterParams) ([]entity.Material, int64, error)
	// ListBelowMedium returns active materials whose balance is under their medium threshold
	ListBelowMedium(ctx context.Context) ([]entity.Material, error)
	ListAll(ctx context.Context) ([]entity.Material, error)
}

// MaterialFilterParams contains filtering parameters for material queries
type MaterialFilterParams struct {
	Pagination      *pagination.PaginationParams
	Search          string
	IncludeInactive bool
	// AlertLevel keeps only materials currently at that level; nil disables the filter
	AlertLevel *enum.AlertSeverity
}

// UnitRepository defines the interface for unit data operations
type UnitRepository interface {
	Create(ctx context.Context, unit *entity.Unit) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Unit, error)
	GetByShortCode(ctx context.Context, shortCode string) (*entity.Unit, error)
	List(ctx context.Context) ([]entity.Unit, error)
}
