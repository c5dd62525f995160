package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"maintenance-service/internal/http/middleware"
	"maintenance-service/internal/model"
	"maintenance-service/internal/service"
)

type Handler struct {
	vehicleService   *service.VehicleService
	planService      *service.PlanService
	partService      *service.PartService
	workOrderService *service.WorkOrderService
	alertService     *service.AlertService
	log              zerolog.Logger
}

func NewHandler(
	vehicleService *service.VehicleService,
	planService *service.PlanService,
	partService *service.PartService,
	workOrderService *service.WorkOrderService,
	alertService *service.AlertService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		vehicleService:   vehicleService,
		planService:      planService,
		partService:      partService,
		workOrderService: workOrderService,
		alertService:     alertService,
		log:              log,
	}
}

func (h *Handler) principal(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
	}
	return principal, ok
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrOdometerDecrease),
		errors.Is(err, service.ErrIncompleteTasks):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func parseIDParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid "+label))
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalUUID(value string) (*uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseOptionalTime(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func parsePaging(c *gin.Context) (limit, offset int) {
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query("limit"))); err == nil {
		limit = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query("offset"))); err == nil {
		offset = v
	}
	return limit, offset
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

type responseEnvelope struct {
	Data interface{} `json:"data"`
}

func successResponse(data interface{}) responseEnvelope {
	return responseEnvelope{Data: data}
}

func errorResponse(msg string) gin.H {
	return gin.H{"error": msg}
}
