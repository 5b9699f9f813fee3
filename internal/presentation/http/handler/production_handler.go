package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/application/service"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/internal/presentation/http/dto/request"
	"github.com/sangkips/atelier-api/internal/presentation/http/dto/response"
	"github.com/sangkips/atelier-api/pkg/pagination"
)

// ProductionHandler handles products, production batches and custom orders
type ProductionHandler struct {
	productionService *service.ProductionService
}

// NewProductionHandler creates a new production handler
func NewProductionHandler(productionService *service.ProductionService) *ProductionHandler {
	return &ProductionHandler{productionService: productionService}
}

func bomItems(items []request.BOMItemRequest) []service.BOMItem {
	out := make([]service.BOMItem, len(items))
	for i, item := range items {
		out[i] = service.BOMItem{MaterialID: item.MaterialID, QuantityPerUnit: item.QuantityPerUnit}
	}
	return out
}

func listParams(c *gin.Context) (*request.ListRequest, bool) {
	var filter request.ListRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return nil, false
	}
	return &filter, true
}

// CreateProduct handles creating a catalog product
func (h *ProductionHandler) CreateProduct(c *gin.Context) {
	var req request.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productionService.CreateProduct(c.Request.Context(), &service.CreateProductInput{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Product created successfully", product)
}

// ListProducts handles listing products
func (h *ProductionHandler) ListProducts(c *gin.Context) {
	filter, ok := listParams(c)
	if !ok {
		return
	}

	result, err := h.productionService.ListProducts(c.Request.Context(), &pagination.PaginationParams{
		Page:    filter.Page,
		PerPage: filter.PerPage,
	}, filter.Search)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Products retrieved successfully", result)
}

// GetProduct handles getting a product by ID
func (h *ProductionHandler) GetProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	product, err := h.productionService.GetProduct(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product retrieved successfully", product)
}

// SetProductMaterials replaces a product's bill of materials
func (h *ProductionHandler) SetProductMaterials(c *gin.Context) {
	h.setMaterials(c, enum.BOMOwnerProduct)
}

// GetProductMaterials returns a product's bill of materials
func (h *ProductionHandler) GetProductMaterials(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	entries, err := h.productionService.GetBillOfMaterials(c.Request.Context(), enum.BOMOwnerProduct, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill of materials retrieved successfully", entries)
}

// SetCustomOrderMaterials replaces a draft custom order's materials
func (h *ProductionHandler) SetCustomOrderMaterials(c *gin.Context) {
	h.setMaterials(c, enum.BOMOwnerCustomOrder)
}

func (h *ProductionHandler) setMaterials(c *gin.Context, owner enum.BOMOwnerType) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req request.SetMaterialsRequest
	if !bindJSON(c, &req) {
		return
	}

	entries, err := h.productionService.SetBillOfMaterials(c.Request.Context(), owner, id, bomItems(req.Materials))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill of materials updated successfully", entries)
}

// StartBatch handles starting production of a catalog product
func (h *ProductionHandler) StartBatch(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	var req request.StartProductionRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.productionService.StartProduction(c.Request.Context(), &service.StartProductionInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		ActorID:   actorID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Production started", result)
}

// ListBatches handles listing production batches, optionally for one product
func (h *ProductionHandler) ListBatches(c *gin.Context) {
	filter, ok := listParams(c)
	if !ok {
		return
	}
	productID, ok := queryUUID(c, "product_id")
	if !ok {
		return
	}

	result, err := h.productionService.ListProductionBatches(c.Request.Context(), &pagination.PaginationParams{
		Page:    filter.Page,
		PerPage: filter.PerPage,
	}, productID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Production batches retrieved successfully", result)
}

// GetBatch handles getting a production batch by ID
func (h *ProductionHandler) GetBatch(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	batch, err := h.productionService.GetProductionBatch(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Production batch retrieved successfully", batch)
}

// CancelBatch handles cancelling a production batch and returning its materials
func (h *ProductionHandler) CancelBatch(c *gin.Context) {
	h.cancel(c, h.productionService.CancelProductionBatch, "Production batch cancelled")
}

// CreateCustomOrder handles creating a draft custom order
func (h *ProductionHandler) CreateCustomOrder(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	var req request.CreateCustomOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.productionService.CreateCustomOrder(c.Request.Context(), &service.CreateCustomOrderInput{
		ClientName:  req.ClientName,
		Description: req.Description,
		Quantity:    req.Quantity,
		Materials:   bomItems(req.Materials),
		ActorID:     actorID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Custom order created successfully", order)
}

// ListCustomOrders handles listing custom orders, optionally by status
func (h *ProductionHandler) ListCustomOrders(c *gin.Context) {
	filter, ok := listParams(c)
	if !ok {
		return
	}

	var status *enum.ProductionStatus
	if filter.Status != "" {
		s := enum.ProductionStatus(filter.Status)
		if !s.IsValid() {
			response.BadRequest(c, "Invalid status")
			return
		}
		status = &s
	}

	result, err := h.productionService.ListCustomOrders(c.Request.Context(), &pagination.PaginationParams{
		Page:    filter.Page,
		PerPage: filter.PerPage,
	}, status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Custom orders retrieved successfully", result)
}

// GetCustomOrder handles getting a custom order with its materials
func (h *ProductionHandler) GetCustomOrder(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.productionService.GetCustomOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Custom order retrieved successfully", order)
}

// StartCustomOrder handles consuming a draft custom order's materials
func (h *ProductionHandler) StartCustomOrder(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.productionService.StartCustomOrder(c.Request.Context(), id, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Custom order started", result)
}

// CancelCustomOrder handles cancelling a custom order and returning its materials
func (h *ProductionHandler) CancelCustomOrder(c *gin.Context) {
	h.cancel(c, h.productionService.CancelCustomOrder, "Custom order cancelled")
}

type cancelFunc func(ctx context.Context, id, actorID uuid.UUID, note string) (*service.CancellationResult, error)

func (h *ProductionHandler) cancel(c *gin.Context, fn cancelFunc, message string) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req request.CancelRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	result, err := fn(c.Request.Context(), id, actorID, req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, message, result)
}
