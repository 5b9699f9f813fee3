package repository

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	domainRepo "github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type materialRepository struct {
	db *gorm.DB
}

// NewMaterialRepository creates a new material repository
func NewMaterialRepository(db *gorm.DB) domainRepo.MaterialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) Create(ctx context.Context, material *entity.Material) error {
	return conn(ctx, r.db).Create(material).Error
}

func (r *materialRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Material, error) {
	var material entity.Material
	err := conn(ctx, r.db).Preload("Unit").First(&material, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &material, err
}

func (r *materialRepository) GetByCode(ctx context.Context, code string) (*entity.Material, error) {
	var material entity.Material
	err := conn(ctx, r.db).First(&material, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &material, err
}

// GetByIDsForUpdate locks materials in ascending id order so that two requests touching
// overlapping sets always acquire row locks in the same sequence.
func (r *materialRepository) GetByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]entity.Material, error) {
	if len(ids) == 0 {
		return []entity.Material{}, nil
	}
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	var materials []entity.Material
	err := forUpdate(conn(ctx, r.db)).
		Where("id IN ?", sorted).
		Order("id ASC").
		Find(&materials).Error
	return materials, err
}

func (r *materialRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error {
	return conn(ctx, r.db).Model(&entity.Material{}).
		Where("id = ?", id).
		Update("quantity_on_hand", quantity).Error
}

func (r *materialRepository) UpdateThresholds(ctx context.Context, id uuid.UUID, low, medium decimal.Decimal) error {
	return conn(ctx, r.db).Model(&entity.Material{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"low_threshold":    low,
			"medium_threshold": medium,
		}).Error
}

func (r *materialRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return conn(ctx, r.db).Model(&entity.Material{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

func (r *materialRepository) List(ctx context.Context, params *domainRepo.MaterialFilterParams) ([]entity.Material, int64, error) {
	var materials []entity.Material
	var total int64

	query := conn(ctx, r.db).Model(&entity.Material{})
	if !params.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}

	if params.Search != "" {
		search := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", search, search)
	}

	if params.AlertLevel != nil {
		switch *params.AlertLevel {
		case enum.AlertCritical:
			query = query.Where("quantity_on_hand < low_threshold")
		case enum.AlertWarning:
			query = query.Where("quantity_on_hand >= low_threshold AND quantity_on_hand < medium_threshold")
		default:
			query = query.Where("quantity_on_hand >= medium_threshold")
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Unit").
		Order("name ASC").
		Find(&materials).Error

	return materials, total, err
}

func (r *materialRepository) ListBelowMedium(ctx context.Context) ([]entity.Material, error) {
	var materials []entity.Material
	err := conn(ctx, r.db).
		Where("is_active = ? AND quantity_on_hand < medium_threshold", true).
		Order("name ASC").
		Find(&materials).Error
	return materials, err
}

func (r *materialRepository) ListAll(ctx context.Context) ([]entity.Material, error) {
	var materials []entity.Material
	err := conn(ctx, r.db).Order("code ASC").Find(&materials).Error
	return materials, err
}

type unitRepository struct {
	db *gorm.DB
}

// NewUnitRepository creates a new unit repository
func NewUnitRepository(db *gorm.DB) domainRepo.UnitRepository {
	return &unitRepository{db: db}
}

func (r *unitRepository) Create(ctx context.Context, unit *entity.Unit) error {
	return conn(ctx, r.db).Create(unit).Error
}

func (r *unitRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Unit, error) {
	var unit entity.Unit
	err := conn(ctx, r.db).First(&unit, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &unit, err
}

func (r *unitRepository) GetByShortCode(ctx context.Context, shortCode string) (*entity.Unit, error) {
	var unit entity.Unit
	err := conn(ctx, r.db).First(&unit, "short_code = ?", shortCode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &unit, err
}

func (r *unitRepository) List(ctx context.Context) ([]entity.Unit, error) {
	var units []entity.Unit
	err := conn(ctx, r.db).Order("name ASC").Find(&units).Error
	return units, err
}
