package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"maintenance-service/internal/service"
)

func (h *Handler) createPart(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req struct {
		Code      string          `json:"code" binding:"required"`
		Name      string          `json:"name" binding:"required"`
		UnitPrice decimal.Decimal `json:"unit_price"`
		Stock     int64           `json:"stock"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	part, err := h.partService.Create(c.Request.Context(), principal, service.CreatePartInput{
		Code:      req.Code,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Stock:     req.Stock,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(part))
}

func (h *Handler) listParts(c *gin.Context) {
	if _, ok := h.principal(c); !ok {
		return
	}

	var opts service.ListPartsOptions
	opts.Search = strings.TrimSpace(c.Query("search"))
	if low := strings.TrimSpace(c.Query("low_stock")); low != "" {
		v, err := strconv.ParseInt(low, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid low_stock"))
			return
		}
		opts.LowStock = &v
	}
	opts.Limit, opts.Offset = parsePaging(c)

	parts, err := h.partService.List(c.Request.Context(), opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": parts}))
}

func (h *Handler) getPart(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "part id")
	if !ok {
		return
	}

	details, err := h.partService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(details))
}

func (h *Handler) restockPart(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "part id")
	if !ok {
		return
	}

	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	part, err := h.partService.Restock(c.Request.Context(), principal, id, req.Quantity)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(part))
}

func (h *Handler) archivePart(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "part id")
	if !ok {
		return
	}

	if err := h.partService.Archive(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "archived"}))
}
