package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"maintenance-service/internal/model"
	"maintenance-service/internal/service"
)

func (h *Handler) registerVehicle(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req struct {
		PlateNumber string `json:"plate_number" binding:"required"`
		Make        string `json:"make"`
		Model       string `json:"model"`
		Year        int    `json:"year"`
		Odometer    int64  `json:"odometer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	vehicle, err := h.vehicleService.Register(c.Request.Context(), principal, service.RegisterVehicleInput{
		PlateNumber: req.PlateNumber,
		Make:        req.Make,
		Model:       req.Model,
		Year:        req.Year,
		Odometer:    req.Odometer,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(vehicle))
}

func (h *Handler) listVehicles(c *gin.Context) {
	if _, ok := h.principal(c); !ok {
		return
	}

	var opts service.ListVehiclesOptions
	for _, val := range splitCSV(c.Query("status")) {
		opts.Statuses = append(opts.Statuses, model.VehicleStatus(strings.ToUpper(val)))
	}
	opts.Search = strings.TrimSpace(c.Query("search"))
	opts.Limit, opts.Offset = parsePaging(c)

	vehicles, err := h.vehicleService.List(c.Request.Context(), opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": vehicles}))
}

func (h *Handler) getVehicle(c *gin.Context) {
	if _, ok := h.principal(c); !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "vehicle id")
	if !ok {
		return
	}

	vehicle, err := h.vehicleService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicle))
}

func (h *Handler) updateOdometer(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "vehicle id")
	if !ok {
		return
	}

	var req struct {
		Odometer *int64 `json:"odometer" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	vehicle, err := h.vehicleService.UpdateOdometer(c.Request.Context(), principal, id, *req.Odometer)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicle))
}

func (h *Handler) archiveVehicle(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "vehicle id")
	if !ok {
		return
	}

	if err := h.vehicleService.Archive(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "archived"}))
}

func (h *Handler) setPlan(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "vehicle id")
	if !ok {
		return
	}

	var req struct {
		Kind         string `json:"kind" binding:"required"`
		IntervalKm   int64  `json:"interval_km"`
		IntervalDays int    `json:"interval_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	plan, err := h.planService.SetPlan(c.Request.Context(), principal, id, service.SetPlanInput{
		Kind:         model.IntervalKind(strings.ToUpper(strings.TrimSpace(req.Kind))),
		IntervalKm:   req.IntervalKm,
		IntervalDays: req.IntervalDays,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(plan))
}

func (h *Handler) getPlan(c *gin.Context) {
	if _, ok := h.principal(c); !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "vehicle id")
	if !ok {
		return
	}

	plan, err := h.planService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(plan))
}

func (h *Handler) deactivatePlan(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "vehicle id")
	if !ok {
		return
	}

	if err := h.planService.Deactivate(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "deactivated"}))
}
