package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	domainRepo "github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/pkg/pagination"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) domainRepo.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	return conn(ctx, r.db).Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	err := conn(ctx, r.db).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &product, err
}

func (r *productRepository) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	var product entity.Product
	err := conn(ctx, r.db).First(&product, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &product, err
}

func (r *productRepository) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Product, int64, error) {
	var products []entity.Product
	var total int64

	query := conn(ctx, r.db).Model(&entity.Product{})
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("name ASC").
		Find(&products).Error

	return products, total, err
}

type productionBatchRepository struct {
	db *gorm.DB
}

// NewProductionBatchRepository creates a new production batch repository
func NewProductionBatchRepository(db *gorm.DB) domainRepo.ProductionBatchRepository {
	return &productionBatchRepository{db: db}
}

func (r *productionBatchRepository) Create(ctx context.Context, batch *entity.ProductionBatch) error {
	return conn(ctx, r.db).Omit("Product").Create(batch).Error
}

func (r *productionBatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ProductionBatch, error) {
	var batch entity.ProductionBatch
	err := conn(ctx, r.db).Preload("Product").First(&batch, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &batch, err
}

func (r *productionBatchRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.ProductionBatch, error) {
	var batch entity.ProductionBatch
	err := forUpdate(conn(ctx, r.db)).First(&batch, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &batch, err
}

func (r *productionBatchRepository) Update(ctx context.Context, batch *entity.ProductionBatch) error {
	return conn(ctx, r.db).Omit("Product").Save(batch).Error
}

func (r *productionBatchRepository) List(ctx context.Context, params *pagination.PaginationParams, productID *uuid.UUID) ([]entity.ProductionBatch, int64, error) {
	var batches []entity.ProductionBatch
	var total int64

	query := conn(ctx, r.db).Model(&entity.ProductionBatch{})
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Preload("Product").
		Order("created_at DESC").
		Find(&batches).Error

	return batches, total, err
}

type customOrderRepository struct {
	db *gorm.DB
}

// NewCustomOrderRepository creates a new custom order repository
func NewCustomOrderRepository(db *gorm.DB) domainRepo.CustomOrderRepository {
	return &customOrderRepository{db: db}
}

func (r *customOrderRepository) Create(ctx context.Context, order *entity.CustomOrder) error {
	return conn(ctx, r.db).Create(order).Error
}

func (r *customOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.CustomOrder, error) {
	var order entity.CustomOrder
	err := conn(ctx, r.db).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *customOrderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.CustomOrder, error) {
	var order entity.CustomOrder
	err := forUpdate(conn(ctx, r.db)).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *customOrderRepository) Update(ctx context.Context, order *entity.CustomOrder) error {
	return conn(ctx, r.db).Save(order).Error
}

func (r *customOrderRepository) List(ctx context.Context, params *pagination.PaginationParams, status *enum.ProductionStatus) ([]entity.CustomOrder, int64, error) {
	var orders []entity.CustomOrder
	var total int64

	query := conn(ctx, r.db).Model(&entity.CustomOrder{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("created_at DESC").
		Find(&orders).Error

	return orders, total, err
}
