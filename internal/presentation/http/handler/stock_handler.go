package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/atelier-api/internal/application/service"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/internal/presentation/http/dto/request"
	"github.com/sangkips/atelier-api/internal/presentation/http/dto/response"
	"github.com/sangkips/atelier-api/pkg/pagination"
)

// StockHandler exposes the stock ledger
type StockHandler struct {
	ledgerService *service.StockLedgerService
}

// NewStockHandler creates a new stock handler
func NewStockHandler(ledgerService *service.StockLedgerService) *StockHandler {
	return &StockHandler{ledgerService: ledgerService}
}

// RecordMovement handles a manual stock adjustment
func (h *StockHandler) RecordMovement(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	var req request.StockMovementRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.ledgerService.RecordManualMovement(c.Request.Context(), &service.ManualMovementInput{
		MaterialID: req.MaterialID,
		Direction:  enum.MovementType(req.Direction),
		Quantity:   req.Quantity,
		ActorID:    actorID,
		Reason:     req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Stock movement recorded", result)
}

// ListTransactions pages through the ledger with a cursor
func (h *StockHandler) ListTransactions(c *gin.Context) {
	var filter request.TransactionFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	materialID, ok := queryUUID(c, "material_id")
	if !ok {
		return
	}
	referenceID, ok := queryUUID(c, "reference_id")
	if !ok {
		return
	}

	params := &service.TransactionFilter{
		MaterialID:  materialID,
		ReferenceID: referenceID,
		Cursor: &pagination.CursorParams{
			Cursor:    filter.Cursor,
			Direction: pagination.CursorDirection(filter.Direction),
			Limit:     filter.Limit,
		},
	}
	if filter.ReferenceType != "" {
		refType := enum.ReferenceType(filter.ReferenceType)
		if !refType.IsValid() {
			response.BadRequest(c, "Invalid reference_type")
			return
		}
		params.ReferenceType = &refType
	}
	if filter.Status != "" {
		status := enum.TransactionStatus(filter.Status)
		params.Status = &status
	}

	result, err := h.ledgerService.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithCursor(c, "Transactions retrieved successfully", result)
}

// Reverse handles cancelling one ledger row
func (h *StockHandler) Reverse(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req request.ReverseTransactionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	result, err := h.ledgerService.ReverseTransaction(c.Request.Context(), &service.ReverseInput{
		TransactionID: id,
		ActorID:       actorID,
		Note:          req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Transaction reversed", result)
}

// Alerts lists every material currently at warning or critical level
func (h *StockHandler) Alerts(c *gin.Context) {
	alerts, err := h.ledgerService.ListAlerts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock alerts retrieved successfully", alerts)
}
