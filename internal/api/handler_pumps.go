package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vishnu-krishna/pump-master/internal/model"
	"github.com/vishnu-krishna/pump-master/internal/store"
)

// ListPumps handles GET /api/pumps with optional filtering and pagination.
func (h *Handler) ListPumps(c *gin.Context) {
	opts := store.ListOptions{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Area:   c.Query("area"),
		Search: c.Query("search"),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		opts.Page = page
	}
	if size, err := strconv.Atoi(c.Query("pageSize")); err == nil && size > 0 {
		opts.PageSize = size
	}

	pumps, err := h.pumps.GetAll(c.Request.Context(), opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pumps)
}

// GetPump handles GET /api/pumps/:id.
func (h *Handler) GetPump(c *gin.Context) {
	p, err := h.pumps.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "pump not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetPumpsByArea handles GET /api/pumps/area/:area.
func (h *Handler) GetPumpsByArea(c *gin.Context) {
	pumps, err := h.pumps.GetByArea(c.Request.Context(), c.Param("area"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pumps)
}

// CreatePump handles POST /api/pumps.
func (h *Handler) CreatePump(c *gin.Context) {
	var form model.PumpFormData
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err := form.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	p, err := h.pumps.Create(c.Request.Context(), form)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.flushCache()
	c.JSON(http.StatusCreated, p)
}

// UpdatePump handles PUT /api/pumps/:id.
func (h *Handler) UpdatePump(c *gin.Context) {
	var upd model.PumpUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err := upd.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	p, err := h.pumps.Update(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "pump not found"})
		return
	}
	h.flushCache()
	c.JSON(http.StatusOK, p)
}

type setStatusRequest struct {
	Status model.PumpStatus `json:"status" binding:"required"`
}

// SetPumpStatus handles PATCH /api/pumps/:id/status.
func (h *Handler) SetPumpStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unknown pump status"})
		return
	}

	p, err := h.pumps.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "pump not found"})
		return
	}
	h.flushCache()
	c.JSON(http.StatusOK, p)
}

// DeletePump handles DELETE /api/pumps/:id.
func (h *Handler) DeletePump(c *gin.Context) {
	if err := h.pumps.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	h.flushCache()
	c.Status(http.StatusNoContent)
}

// GetStatistics handles GET /api/pumps/statistics.
func (h *Handler) GetStatistics(c *gin.Context) {
	stats, err := h.pumps.Statistics(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetPressureHistory handles GET /api/pumps/:id/pressure-history?hours=N.
func (h *Handler) GetPressureHistory(c *gin.Context) {
	hours := 0
	if v := c.Query("hours"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "hours must be a positive integer"})
			return
		}
		hours = parsed
	}

	samples, err := h.pumps.PressureHistory(c.Request.Context(), c.Param("id"), hours)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, samples)
}

// ExportPumps handles GET /api/pumps/export?format=csv|excel.
func (h *Handler) ExportPumps(c *gin.Context) {
	format := store.ExportFormat(c.DefaultQuery("format", string(store.ExportCSV)))
	if format != store.ExportCSV && format != store.ExportExcel {
		c.JSON(http.StatusBadRequest, gin.H{"message": "format must be csv or excel"})
		return
	}

	result, err := h.pumps.Export(c.Request.Context(), format)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// ResetPumps handles POST /api/pumps/reset, restoring the demo data set.
func (h *Handler) ResetPumps(c *gin.Context) {
	if err := h.pumps.ResetToDemo(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	h.flushCache()
	c.Status(http.StatusNoContent)
}
