package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"maintenance-service/internal/service"
)

func (h *Handler) listAlerts(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var opts service.ListAlertsOptions
	vehicleID, err := parseOptionalUUID(c.Query("vehicle_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle_id"))
		return
	}
	opts.VehicleID = vehicleID
	if pending := strings.TrimSpace(c.Query("pending")); pending != "" {
		v, err := strconv.ParseBool(pending)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid pending"))
			return
		}
		opts.PendingOnly = v
	}
	opts.Limit, opts.Offset = parsePaging(c)

	alerts, err := h.alertService.List(c.Request.Context(), principal, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": alerts}))
}

func (h *Handler) scanAlerts(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	result, err := h.alertService.TriggerScan(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) attendVehicleAlerts(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "vehicle id")
	if !ok {
		return
	}

	deleted, err := h.alertService.AttendVehicle(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"deleted": deleted}))
}
