package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateMaterialRequest represents a material registration request
type CreateMaterialRequest struct {
	Name            string          `json:"name" binding:"required,min=2,max=255"`
	Code            string          `json:"code" binding:"omitempty,max=100"`
	UnitID          *uuid.UUID      `json:"unit_id"`
	LowThreshold    decimal.Decimal `json:"low_threshold"`
	MediumThreshold decimal.Decimal `json:"medium_threshold"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
}

// UpdateThresholdsRequest represents new alert levels for a material
type UpdateThresholdsRequest struct {
	LowThreshold    decimal.Decimal `json:"low_threshold"`
	MediumThreshold decimal.Decimal `json:"medium_threshold"`
}

// MaterialFilterRequest represents material filter parameters
type MaterialFilterRequest struct {
	Search          string `form:"search"`
	AlertLevel      string `form:"alert_level" binding:"omitempty,oneof=none warning critical"`
	IncludeInactive bool   `form:"include_inactive"`
	Page            int    `form:"page"`
	PerPage         int    `form:"per_page"`
}
