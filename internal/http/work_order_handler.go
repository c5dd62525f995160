package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"maintenance-service/internal/model"
	"maintenance-service/internal/service"
)

func (h *Handler) createWorkOrder(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req struct {
		VehicleID   string `json:"vehicle_id" binding:"required"`
		Type        string `json:"type" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	vehicleID, err := uuid.Parse(strings.TrimSpace(req.VehicleID))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle_id"))
		return
	}

	order, err := h.workOrderService.Create(c.Request.Context(), principal, service.CreateWorkOrderInput{
		VehicleID:   vehicleID,
		Type:        model.WorkOrderType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Description: req.Description,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(order))
}

func (h *Handler) listWorkOrders(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	opts, err := parseWorkOrderQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	orders, err := h.workOrderService.List(c.Request.Context(), principal, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": orders}))
}

func (h *Handler) getWorkOrder(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "work order id")
	if !ok {
		return
	}

	details, err := h.workOrderService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(details))
}

func (h *Handler) assignWorkOrder(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "work order id")
	if !ok {
		return
	}

	var req struct {
		TechnicianID string `json:"technician_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	technicianID, err := uuid.Parse(strings.TrimSpace(req.TechnicianID))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid technician_id"))
		return
	}

	order, err := h.workOrderService.Assign(c.Request.Context(), principal, id, technicianID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(order))
}

func (h *Handler) addTask(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "work order id")
	if !ok {
		return
	}

	var req struct {
		Description  string `json:"description" binding:"required"`
		TechnicianID string `json:"technician_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	technicianID, err := parseOptionalUUID(req.TechnicianID)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid technician_id"))
		return
	}

	order, err := h.workOrderService.AddTask(c.Request.Context(), principal, id, service.AddTaskInput{
		Description:  req.Description,
		TechnicianID: technicianID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(order))
}

type partUsagePayload struct {
	PartID   string `json:"part_id" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required"`
}

func (h *Handler) recordWork(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "work order id")
	if !ok {
		return
	}

	var req struct {
		TaskID   string             `json:"task_id"`
		Hours    decimal.Decimal    `json:"hours"`
		Complete bool               `json:"complete"`
		Notes    string             `json:"notes"`
		Odometer *int64             `json:"odometer"`
		Parts    []partUsagePayload `json:"parts" binding:"dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	taskID, err := parseOptionalUUID(req.TaskID)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid task_id"))
		return
	}

	input := service.RecordWorkInput{
		TaskID:   taskID,
		Hours:    req.Hours,
		Complete: req.Complete,
		Notes:    req.Notes,
		Odometer: req.Odometer,
		Parts:    make([]service.PartUsageInput, 0, len(req.Parts)),
	}
	for _, p := range req.Parts {
		partID, err := uuid.Parse(strings.TrimSpace(p.PartID))
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid part_id"))
			return
		}
		input.Parts = append(input.Parts, service.PartUsageInput{PartID: partID, Quantity: p.Quantity})
	}

	order, err := h.workOrderService.RecordWork(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(order))
}

func (h *Handler) completeTask(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "work order id")
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "taskId", "task id")
	if !ok {
		return
	}

	order, err := h.workOrderService.CompleteTask(c.Request.Context(), principal, id, taskID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(order))
}

func (h *Handler) closeWorkOrder(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "work order id")
	if !ok {
		return
	}

	order, err := h.workOrderService.Close(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(order))
}

func parseWorkOrderQuery(c *gin.Context) (service.ListWorkOrdersOptions, error) {
	var opts service.ListWorkOrdersOptions

	for _, val := range splitCSV(c.Query("state")) {
		opts.States = append(opts.States, model.WorkOrderState(strings.ToUpper(val)))
	}
	for _, val := range splitCSV(c.Query("type")) {
		opts.Types = append(opts.Types, model.WorkOrderType(strings.ToUpper(val)))
	}

	var err error
	if opts.VehicleID, err = parseOptionalUUID(c.Query("vehicle_id")); err != nil {
		return opts, err
	}
	if opts.TechnicianID, err = parseOptionalUUID(c.Query("technician_id")); err != nil {
		return opts, err
	}
	if opts.DateFrom, err = parseOptionalTime(c.Query("date_from")); err != nil {
		return opts, err
	}
	if opts.DateTo, err = parseOptionalTime(c.Query("date_to")); err != nil {
		return opts, err
	}
	opts.Limit, opts.Offset = parsePaging(c)

	return opts, nil
}
