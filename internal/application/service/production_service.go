package service

import (
	"context"
	"fmt"
	"strings"
	"time"

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

// ProductionService starts and cancels production batches and custom orders. Material
// consumption and its reversal go through the stock ledger.
type ProductionService struct {
	transactor   repository.Transactor
	productRepo  repository.ProductRepository
	batchRepo    repository.ProductionBatchRepository
	orderRepo    repository.CustomOrderRepository
	bomRepo      repository.BOMRepository
	materialRepo repository.MaterialRepository
	ledger       *StockLedgerService
	log          *logger.Logger
}

// NewProductionService creates a new production service
func NewProductionService(
	transactor repository.Transactor,
	productRepo repository.ProductRepository,
	batchRepo repository.ProductionBatchRepository,
	orderRepo repository.CustomOrderRepository,
	bomRepo repository.BOMRepository,
	materialRepo repository.MaterialRepository,
	ledger *StockLedgerService,
	log *logger.Logger,
) *ProductionService {
	return &ProductionService{
		transactor:   transactor,
		productRepo:  productRepo,
		batchRepo:    batchRepo,
		orderRepo:    orderRepo,
		bomRepo:      bomRepo,
		materialRepo: materialRepo,
		ledger:       ledger,
		log:          log.With("component", "production"),
	}
}

// BOMItem is one line of a bill of materials as supplied by a caller
type BOMItem struct {
	MaterialID      uuid.UUID       `json:"material_id" validate:"required"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit" validate:"gt=0"`
}

// ProductionResult is returned when a batch or custom order starts
type ProductionResult struct {
	Batch          *entity.ProductionBatch `json:"batch,omitempty"`
	Order          *entity.CustomOrder     `json:"order,omitempty"`
	TransactionIDs []uuid.UUID             `json:"transaction_ids"`
	Alerts         []entity.StockAlert     `json:"alerts"`
}

// CancellationResult lists the compensating rows written by a cancellation
type CancellationResult struct {
	Reversals []ReversalResult `json:"reversals"`
}

// CreateProductInput represents the create product input
type CreateProductInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Code        string  `json:"code" validate:"max=100"`
	Description *string `json:"description"`
}

// CreateProduct creates a new product
func (s *ProductionService) CreateProduct(ctx context.Context, input *CreateProductInput) (*entity.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(input.Code)
	if code == "" {
		code = utils.GenerateProductCode()
	}

	existing, err := s.productRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, apperror.NewPersistenceError("look up product code", err)
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Product code already exists")
	}

	product := &entity.Product{
		Name:        strings.TrimSpace(input.Name),
		Code:        code,
		Description: input.Description,
		IsActive:    true,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, apperror.NewPersistenceError("create product", err)
	}
	return product, nil
}

// GetProduct gets a product by ID
func (s *ProductionService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewPersistenceError("load product", err)
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// ListProducts lists products with pagination
func (s *ProductionService) ListProducts(ctx context.Context, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Product], error) {
	params.Validate()
	products, total, err := s.productRepo.List(ctx, params, strings.TrimSpace(search))
	if err != nil {
		return nil, apperror.NewPersistenceError("list products", err)
	}
	return pagination.NewPaginatedResult(products, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// SetBillOfMaterials replaces the whole bill of materials of a product or a draft custom order
func (s *ProductionService) SetBillOfMaterials(ctx context.Context, ownerType enum.BOMOwnerType, ownerID uuid.UUID, items []BOMItem) ([]entity.BOMEntry, error) {
	if !ownerType.IsValid() {
		return nil, apperror.NewFieldError("owner_type", "must be one of: product custom_order")
	}
	if err := validateInput(&struct {
		Items []BOMItem `json:"materials" validate:"dive"`
	}{Items: items}); err != nil {
		return nil, err
	}

	switch ownerType {
	case enum.BOMOwnerProduct:
		if _, err := s.GetProduct(ctx, ownerID); err != nil {
			return nil, err
		}
	case enum.BOMOwnerCustomOrder:
		order, err := s.loadCustomOrder(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if order.Status != enum.ProductionDraft {
			return nil, apperror.NewFieldError("status", "materials can only change while the order is a draft")
		}
	}

	entries, err := s.bomEntries(ctx, items)
	if err != nil {
		return nil, err
	}
	if err := s.bomRepo.ReplaceForOwner(ctx, ownerType, ownerID, entries); err != nil {
		return nil, apperror.NewPersistenceError("replace bill of materials", err)
	}
	return s.GetBillOfMaterials(ctx, ownerType, ownerID)
}

// GetBillOfMaterials returns the bill of materials of a product or custom order
func (s *ProductionService) GetBillOfMaterials(ctx context.Context, ownerType enum.BOMOwnerType, ownerID uuid.UUID) ([]entity.BOMEntry, error) {
	entries, err := s.bomRepo.ListByOwner(ctx, ownerType, ownerID)
	if err != nil {
		return nil, apperror.NewPersistenceError("load bill of materials", err)
	}
	return entries, nil
}

// StartProductionInput represents a request to produce units of a product
type StartProductionInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	ActorID   uuid.UUID       `json:"actor_id" validate:"required"`
}

// StartProduction creates a batch and consumes the product's materials scaled by the quantity.
// Nothing is written when any material falls short.
func (s *ProductionService) StartProduction(ctx context.Context, input *StartProductionInput) (*ProductionResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := checkScale("quantity", input.Quantity); err != nil {
		return nil, err
	}

	product, err := s.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperror.NewNotFoundError("Product")
	}

	entries, err := s.GetBillOfMaterials(ctx, enum.BOMOwnerProduct, product.ID)
	if err != nil {
		return nil, err
	}

	batch := &entity.ProductionBatch{
		ID:        uuid.New(),
		Reference: utils.GenerateReferenceNo(utils.ProductionBatchPrefix),
		ProductID: product.ID,
		Quantity:  input.Quantity,
		Status:    enum.ProductionInProduction,
		StartedBy: input.ActorID,
	}

	consumed, err := s.ledger.ReserveAndConsume(ctx, &ConsumeInput{
		Items:         scaleBOM(entries, input.Quantity),
		ReferenceType: enum.ReferenceProductionBatch,
		ReferenceID:   &batch.ID,
		ActorID:       input.ActorID,
		Reason:        fmt.Sprintf("Production batch %s", batch.Reference),
		AfterReserve: func(ctx context.Context, _ *ConsumeResult) error {
			if err := s.batchRepo.Create(ctx, batch); err != nil {
				return apperror.NewPersistenceError("create production batch", err)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	batch.Product = product
	s.log.Info("production started", "batch_id", batch.ID, "reference", batch.Reference, "product_id", product.ID, "quantity", input.Quantity)
	return &ProductionResult{
		Batch:          batch,
		TransactionIDs: consumed.TransactionIDs,
		Alerts:         consumed.Alerts,
	}, nil
}

// GetProductionBatch gets a production batch by ID
func (s *ProductionService) GetProductionBatch(ctx context.Context, id uuid.UUID) (*entity.ProductionBatch, error) {
	batch, err := s.batchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewPersistenceError("load production batch", err)
	}
	if batch == nil {
		return nil, apperror.NewNotFoundError("Production batch")
	}
	return batch, nil
}

// ListProductionBatches lists batches, newest first
func (s *ProductionService) ListProductionBatches(ctx context.Context, params *pagination.PaginationParams, productID *uuid.UUID) (*pagination.PaginatedResult[entity.ProductionBatch], error) {
	params.Validate()
	batches, total, err := s.batchRepo.List(ctx, params, productID)
	if err != nil {
		return nil, apperror.NewPersistenceError("list production batches", err)
	}
	return pagination.NewPaginatedResult(batches, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// CancelProductionBatch returns a batch's materials to stock and marks it cancelled
func (s *ProductionService) CancelProductionBatch(ctx context.Context, batchID, actorID uuid.UUID, note string) (*CancellationResult, error) {
	if _, err := s.GetProductionBatch(ctx, batchID); err != nil {
		return nil, err
	}

	reversals, err := s.ledger.ReverseByReference(ctx, &ReverseReferenceInput{
		ReferenceType: enum.ReferenceProductionBatch,
		ReferenceID:   batchID,
		ActorID:       actorID,
		Note:          note,
		BeforeReverse: func(ctx context.Context) error {
			batch, err := s.batchRepo.GetByIDForUpdate(ctx, batchID)
			if err != nil {
				return apperror.NewPersistenceError("lock production batch", err)
			}
			if batch == nil {
				return apperror.NewNotFoundError("Production batch")
			}
			if batch.Status == enum.ProductionCancelled {
				return apperror.NewAlreadyCancelledError("Production batch")
			}
			now := time.Now()
			batch.Status = enum.ProductionCancelled
			batch.CancelledBy = &actorID
			batch.CancelledAt = &now
			if err := s.batchRepo.Update(ctx, batch); err != nil {
				return apperror.NewPersistenceError("cancel production batch", err)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("production batch cancelled", "batch_id", batchID, "reversals", len(reversals), "actor_id", actorID)
	return &CancellationResult{Reversals: reversals}, nil
}

// CreateCustomOrderInput represents the create custom order input
type CreateCustomOrderInput struct {
	ClientName  string          `json:"client_name" validate:"required,max=255"`
	Description *string         `json:"description"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	Materials   []BOMItem       `json:"materials" validate:"dive"`
	ActorID     uuid.UUID       `json:"actor_id" validate:"required"`
}

// CreateCustomOrder creates a draft custom order with its own bill of materials
func (s *ProductionService) CreateCustomOrder(ctx context.Context, input *CreateCustomOrderInput) (*entity.CustomOrder, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := checkScale("quantity", input.Quantity); err != nil {
		return nil, err
	}
	entries, err := s.bomEntries(ctx, input.Materials)
	if err != nil {
		return nil, err
	}

	order := &entity.CustomOrder{
		Reference:   utils.GenerateReferenceNo(utils.CustomOrderPrefix),
		ClientName:  strings.TrimSpace(input.ClientName),
		Description: input.Description,
		Quantity:    input.Quantity,
		Status:      enum.ProductionDraft,
		CreatedBy:   input.ActorID,
	}
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.orderRepo.Create(ctx, order); err != nil {
			return apperror.NewPersistenceError("create custom order", err)
		}
		if err := s.bomRepo.ReplaceForOwner(ctx, enum.BOMOwnerCustomOrder, order.ID, entries); err != nil {
			return apperror.NewPersistenceError("save custom order materials", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCustomOrder(ctx, order.ID)
}

// GetCustomOrder gets a custom order with its materials
func (s *ProductionService) GetCustomOrder(ctx context.Context, id uuid.UUID) (*entity.CustomOrder, error) {
	order, err := s.loadCustomOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Materials, err = s.GetBillOfMaterials(ctx, enum.BOMOwnerCustomOrder, id)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListCustomOrders lists custom orders, newest first
func (s *ProductionService) ListCustomOrders(ctx context.Context, params *pagination.PaginationParams, status *enum.ProductionStatus) (*pagination.PaginatedResult[entity.CustomOrder], error) {
	params.Validate()
	orders, total, err := s.orderRepo.List(ctx, params, status)
	if err != nil {
		return nil, apperror.NewPersistenceError("list custom orders", err)
	}
	return pagination.NewPaginatedResult(orders, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// StartCustomOrder consumes a draft order's materials, scaled by its quantity, and moves it
// to in_production
func (s *ProductionService) StartCustomOrder(ctx context.Context, orderID, actorID uuid.UUID) (*ProductionResult, error) {
	order, err := s.GetCustomOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enum.ProductionDraft {
		return nil, apperror.NewFieldError("status", fmt.Sprintf("only draft orders can start, order is %s", order.Status))
	}

	consumed, err := s.ledger.ReserveAndConsume(ctx, &ConsumeInput{
		Items:         scaleBOM(order.Materials, order.Quantity),
		ReferenceType: enum.ReferenceCustomOrder,
		ReferenceID:   &order.ID,
		ActorID:       actorID,
		Reason:        fmt.Sprintf("Custom order %s", order.Reference),
		AfterReserve: func(ctx context.Context, _ *ConsumeResult) error {
			locked, err := s.orderRepo.GetByIDForUpdate(ctx, orderID)
			if err != nil {
				return apperror.NewPersistenceError("lock custom order", err)
			}
			if locked == nil {
				return apperror.NewNotFoundError("Custom order")
			}
			if locked.Status != enum.ProductionDraft {
				return apperror.NewFieldError("status", fmt.Sprintf("only draft orders can start, order is %s", locked.Status))
			}
			now := time.Now()
			locked.Status = enum.ProductionInProduction
			locked.StartedBy = &actorID
			locked.StartedAt = &now
			if err := s.orderRepo.Update(ctx, locked); err != nil {
				return apperror.NewPersistenceError("start custom order", err)
			}
			order.Status = locked.Status
			order.StartedBy = locked.StartedBy
			order.StartedAt = locked.StartedAt
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("custom order started", "order_id", order.ID, "reference", order.Reference, "actor_id", actorID)
	return &ProductionResult{
		Order:          order,
		TransactionIDs: consumed.TransactionIDs,
		Alerts:         consumed.Alerts,
	}, nil
}

// CancelCustomOrder cancels an order. Materials already consumed go back to stock.
func (s *ProductionService) CancelCustomOrder(ctx context.Context, orderID, actorID uuid.UUID, note string) (*CancellationResult, error) {
	if _, err := s.loadCustomOrder(ctx, orderID); err != nil {
		return nil, err
	}

	reversals, err := s.ledger.ReverseByReference(ctx, &ReverseReferenceInput{
		ReferenceType: enum.ReferenceCustomOrder,
		ReferenceID:   orderID,
		ActorID:       actorID,
		Note:          note,
		BeforeReverse: func(ctx context.Context) error {
			order, err := s.orderRepo.GetByIDForUpdate(ctx, orderID)
			if err != nil {
				return apperror.NewPersistenceError("lock custom order", err)
			}
			if order == nil {
				return apperror.NewNotFoundError("Custom order")
			}
			if order.Status == enum.ProductionCancelled {
				return apperror.NewAlreadyCancelledError("Custom order")
			}
			now := time.Now()
			order.Status = enum.ProductionCancelled
			order.CancelledBy = &actorID
			order.CancelledAt = &now
			if err := s.orderRepo.Update(ctx, order); err != nil {
				return apperror.NewPersistenceError("cancel custom order", err)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("custom order cancelled", "order_id", orderID, "reversals", len(reversals), "actor_id", actorID)
	return &CancellationResult{Reversals: reversals}, nil
}

func (s *ProductionService) loadCustomOrder(ctx context.Context, id uuid.UUID) (*entity.CustomOrder, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewPersistenceError("load custom order", err)
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Custom order")
	}
	return order, nil
}

// bomEntries checks that every material exists and appears once
func (s *ProductionService) bomEntries(ctx context.Context, items []BOMItem) ([]entity.BOMEntry, error) {
	entries := make([]entity.BOMEntry, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for i, item := range items {
		if _, dup := seen[item.MaterialID]; dup {
			return nil, apperror.NewFieldError(fmt.Sprintf("materials[%d].material_id", i), "appears more than once")
		}
		seen[item.MaterialID] = struct{}{}
		if err := checkScale(fmt.Sprintf("materials[%d].quantity_per_unit", i), item.QuantityPerUnit); err != nil {
			return nil, err
		}

		material, err := s.materialRepo.GetByID(ctx, item.MaterialID)
		if err != nil {
			return nil, apperror.NewPersistenceError("load material", err)
		}
		if material == nil || !material.IsActive {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Material %s", item.MaterialID))
		}
		entries = append(entries, entity.BOMEntry{
			MaterialID:      item.MaterialID,
			QuantityPerUnit: item.QuantityPerUnit,
		})
	}
	return entries, nil
}

// scaleBOM multiplies each line by the unit count. A product finer than the stored scale is
// rounded up so the consumed quantity never understates the requirement.
func scaleBOM(entries []entity.BOMEntry, units decimal.Decimal) []ConsumeItem {
	items := make([]ConsumeItem, len(entries))
	for i, e := range entries {
		items[i] = ConsumeItem{
			MaterialID: e.MaterialID,
			Quantity:   entity.RoundUpQuantity(e.QuantityPerUnit.Mul(units)),
		}
	}
	return items
}
