package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/atelier-api/internal/application/service"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/internal/presentation/http/dto/request"
	"github.com/sangkips/atelier-api/internal/presentation/http/dto/response"
	"github.com/sangkips/atelier-api/pkg/pagination"
)

// MaterialHandler handles raw material HTTP requests
type MaterialHandler struct {
	materialService *service.MaterialService
	ledgerService   *service.StockLedgerService
}

// NewMaterialHandler creates a new material handler
func NewMaterialHandler(materialService *service.MaterialService, ledgerService *service.StockLedgerService) *MaterialHandler {
	return &MaterialHandler{materialService: materialService, ledgerService: ledgerService}
}

// Create handles registering a material
func (h *MaterialHandler) Create(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	var req request.CreateMaterialRequest
	if !bindJSON(c, &req) {
		return
	}

	material, err := h.materialService.RegisterMaterial(c.Request.Context(), &service.RegisterMaterialInput{
		Name:            req.Name,
		Code:            req.Code,
		UnitID:          req.UnitID,
		LowThreshold:    req.LowThreshold,
		MediumThreshold: req.MediumThreshold,
		InitialQuantity: req.InitialQuantity,
		ActorID:         actorID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Material registered successfully", material)
}

// List handles listing materials
func (h *MaterialHandler) List(c *gin.Context) {
	var filter request.MaterialFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	input := &service.ListMaterialsInput{
		Pagination: &pagination.PaginationParams{
			Page:    filter.Page,
			PerPage: filter.PerPage,
		},
		Search:          filter.Search,
		IncludeInactive: filter.IncludeInactive,
	}
	if filter.AlertLevel != "" {
		level := enum.ParseAlertSeverity(filter.AlertLevel)
		input.AlertLevel = &level
	}

	result, err := h.materialService.ListMaterials(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Materials retrieved successfully", result)
}

// Get handles getting a material by ID
func (h *MaterialHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	material, err := h.materialService.GetMaterial(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Material retrieved successfully", material)
}

// UpdateThresholds handles changing a material's alert levels
func (h *MaterialHandler) UpdateThresholds(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req request.UpdateThresholdsRequest
	if !bindJSON(c, &req) {
		return
	}

	material, err := h.materialService.UpdateThresholds(c.Request.Context(), id, req.LowThreshold, req.MediumThreshold)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Thresholds updated successfully", material)
}

// Deactivate handles retiring a material
func (h *MaterialHandler) Deactivate(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.materialService.DeactivateMaterial(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Material deactivated successfully", nil)
}

// Verify handles replaying a material's ledger against its cached balance
func (h *MaterialHandler) Verify(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	report, err := h.ledgerService.VerifyBalance(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Balance verified", report)
}

// ListUnits handles listing units of measure
func (h *MaterialHandler) ListUnits(c *gin.Context) {
	units, err := h.materialService.ListUnits(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Units retrieved successfully", units)
}
