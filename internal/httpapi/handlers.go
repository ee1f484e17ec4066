package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meterflow/d0010-ingest/internal/repository"
)

// handleListFiles returns imported flow files, most recent first
// GET /api/v1/files
func (s *Server) handleListFiles(c *gin.Context) {
	limit, ok := parseLimit(c, 50)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	files, err := s.repo.ListFlowFiles(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": files,
		"meta": gin.H{"count": len(files)},
	})
}

// handleGetFile returns one flow file by id
// GET /api/v1/files/:id
func (s *Server) handleGetFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	file, err := s.repo.GetFlowFile(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if file == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "flow file not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": file})
}

// handleDeleteFile purges a flow file; its readings cascade
// DELETE /api/v1/files/:id
func (s *Server) handleDeleteFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	deleted, err := s.repo.DeleteFlowFile(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "flow file not found"})
		return
	}

	c.Status(http.StatusNoContent)
}

// handleListMeterPoints returns meter points in MPAN order
// GET /api/v1/meter-points
func (s *Server) handleListMeterPoints(c *gin.Context) {
	limit, ok := parseLimit(c, 100)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	meterPoints, err := s.repo.ListMeterPoints(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": meterPoints,
		"meta": gin.H{"count": len(meterPoints)},
	})
}

// handleGetMeterPoint returns one meter point with its meters
// GET /api/v1/meter-points/:mpan
func (s *Server) handleGetMeterPoint(c *gin.Context) {
	mpan := c.Param("mpan")

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	meterPoint, meters, err := s.repo.GetMeterPointByMPAN(ctx, mpan)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if meterPoint == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "meter point not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"meter_point": meterPoint,
			"meters":      meters,
		},
	})
}

// handleListReadings returns readings under one MPAN, newest first
// GET /api/v1/meter-points/:mpan/readings
func (s *Server) handleListReadings(c *gin.Context) {
	mpan := c.Param("mpan")

	limit, ok := parseLimit(c, 100)
	if !ok {
		return
	}

	filter := repository.ReadingFilter{
		RegisterID:   c.Query("register_id"),
		SerialNumber: c.Query("serial_number"),
		Limit:        limit,
	}

	if startStr := c.Query("start"); startStr != "" {
		t, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start timestamp"})
			return
		}
		filter.Since = &t
	}
	if endStr := c.Query("end"); endStr != "" {
		t, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end timestamp"})
			return
		}
		filter.Until = &t
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	readings, err := s.repo.ListReadingsForMPAN(ctx, mpan, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": readings,
		"meta": gin.H{"count": len(readings)},
	})
}

// handleStatsSummary returns the dashboard numbers
// GET /api/v1/stats/summary
func (s *Server) handleStatsSummary(c *gin.Context) {
	days := 30
	if daysStr := c.Query("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
			return
		}
		days = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	stats, err := s.repo.SummaryStats(ctx, days, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func parseLimit(c *gin.Context, def int) (int, bool) {
	limit := def
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return 0, false
		}
		limit = parsed
	}
	return limit, true
}
