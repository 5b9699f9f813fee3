package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	domainRepo "github.com/sangkips/atelier-api/internal/domain/repository"
	"gorm.io/gorm"
)

type bomRepository struct {
	db *gorm.DB
}

// NewBOMRepository creates a new bill-of-materials repository
func NewBOMRepository(db *gorm.DB) domainRepo.BOMRepository {
	return &bomRepository{db: db}
}

func (r *bomRepository) ListByOwner(ctx context.Context, ownerType enum.BOMOwnerType, ownerID uuid.UUID) ([]entity.BOMEntry, error) {
	var entries []entity.BOMEntry
	err := conn(ctx, r.db).
		Preload("Material").
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *bomRepository) ReplaceForOwner(ctx context.Context, ownerType enum.BOMOwnerType, ownerID uuid.UUID, entries []entity.BOMEntry) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
			Delete(&entity.BOMEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		for i := range entries {
			entries[i].OwnerType = ownerType
			entries[i].OwnerID = ownerID
		}
		return tx.Omit("Material").Create(&entries).Error
	})
}
