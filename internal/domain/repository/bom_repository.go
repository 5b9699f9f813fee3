package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
)

// BOMRepository defines the interface for bill-of-materials lookups
type BOMRepository interface {
	ListByOwner(ctx context.Context, ownerType enum.BOMOwnerType, ownerID uuid.UUID) ([]entity.BOMEntry, error)
	// ReplaceForOwner swaps the owner's whole bill of materials for entries
	ReplaceForOwner(ctx context.Context, ownerType enum.BOMOwnerType, ownerID uuid.UUID, entries []entity.BOMEntry) error
}
