package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/atelier-api/internal/application/service"
	"github.com/sangkips/atelier-api/internal/presentation/http/dto/request"
	"github.com/sangkips/atelier-api/internal/presentation/http/dto/response"
)

// PayrollHandler handles salary simulation and payroll configuration requests
type PayrollHandler struct {
	payrollService *service.PayrollService
}

// NewPayrollHandler creates a new payroll handler
func NewPayrollHandler(payrollService *service.PayrollService) *PayrollHandler {
	return &PayrollHandler{payrollService: payrollService}
}

// SimulateNet handles computing a net salary from a gross amount
func (h *PayrollHandler) SimulateNet(c *gin.Context) {
	var req request.SimulateNetRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.payrollService.SimulateNet(c.Request.Context(), &service.SimulateInput{
		Amount:            req.Gross,
		IsHeadOfHousehold: req.IsHeadOfHousehold,
		Children:          req.Children,
		At:                req.At,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Net salary computed", result)
}

// SimulateGross handles finding the gross salary for a target net
func (h *PayrollHandler) SimulateGross(c *gin.Context) {
	var req request.SimulateGrossRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.payrollService.SimulateGross(c.Request.Context(), &service.SimulateInput{
		Amount:            req.Net,
		IsHeadOfHousehold: req.IsHeadOfHousehold,
		Children:          req.Children,
		At:                req.At,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Gross salary computed", result)
}

// GetConfig returns the configuration in force, or the one effective at ?at=YYYY-MM-DD.
// ?all=true lists every version instead.
func (h *PayrollHandler) GetConfig(c *gin.Context) {
	if c.Query("all") == "true" {
		configs, err := h.payrollService.ListConfigs(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "Payroll configurations retrieved successfully", configs)
		return
	}

	at := time.Now()
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.BadRequest(c, "Invalid at date, expected YYYY-MM-DD")
			return
		}
		at = parsed
	}

	cfg, err := h.payrollService.ActiveConfig(c.Request.Context(), at)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payroll configuration retrieved successfully", cfg)
}

// CreateConfig handles storing a new configuration version
func (h *PayrollHandler) CreateConfig(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	var req request.CreatePayrollConfigRequest
	if !bindJSON(c, &req) {
		return
	}

	cfg, err := h.payrollService.CreateConfig(c.Request.Context(), &service.CreateConfigInput{
		EffectiveFrom:            req.EffectiveFrom,
		ContributionRate:         req.ContributionRate,
		HeadOfHouseholdDeduction: req.HeadOfHouseholdDeduction,
		PerChildDeduction:        req.PerChildDeduction,
		SolidarityRate:           req.SolidarityRate,
		Brackets:                 req.Brackets,
		ActorID:                  actorID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payroll configuration created successfully", cfg)
}

// DefineSalary handles storing an employee's salary
func (h *PayrollHandler) DefineSalary(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	var req request.DefineSalaryRequest
	if !bindJSON(c, &req) {
		return
	}

	def, err := h.payrollService.DefineSalary(c.Request.Context(), &service.DefineSalaryInput{
		EmployeeID:        req.EmployeeID,
		Gross:             req.Gross,
		IsHeadOfHousehold: req.IsHeadOfHousehold,
		Children:          req.Children,
		EffectiveFrom:     req.EffectiveFrom,
		ActorID:           actorID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Salary defined successfully", def)
}

// ListSalaries returns an employee's salary history
func (h *PayrollHandler) ListSalaries(c *gin.Context) {
	employeeID, ok := paramUUID(c, "employee_id")
	if !ok {
		return
	}

	defs, err := h.payrollService.ListSalaryDefinitions(c.Request.Context(), employeeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Salary definitions retrieved successfully", defs)
}
