package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/pkg/pagination"
)

// ProductRepository defines the interface for product data operations
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	GetByCode(ctx context.Context, code string) (*entity.Product, error)
	List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Product, int64, error)
}

// ProductionBatchRepository defines the interface for production batch data operations
type ProductionBatchRepository interface {
	Create(ctx context.Context, batch *entity.ProductionBatch) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ProductionBatch, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.ProductionBatch, error)
	Update(ctx context.Context, batch *entity.ProductionBatch) error
	List(ctx context.Context, params *pagination.PaginationParams, productID *uuid.UUID) ([]entity.ProductionBatch, int64, error)
}

// CustomOrderRepository defines the interface for custom order data operations
type CustomOrderRepository interface {
	Create(ctx context.Context, order *entity.CustomOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.CustomOrder, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.CustomOrder, error)
	Update(ctx context.Context, order *entity.CustomOrder) error
	List(ctx context.Context, params *pagination.PaginationParams, status *enum.ProductionStatus) ([]entity.CustomOrder, int64, error)
}
