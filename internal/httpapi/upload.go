package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meterflow/d0010-ingest/internal/importer"
	"github.com/meterflow/d0010-ingest/internal/logging"
)

// handleImport imports an uploaded flow file
// POST /api/v1/imports (multipart, "file" field, optional "dry_run" flag)
func (s *Server) handleImport(c *gin.Context) {
	requestID := uuid.NewString()
	reqLogger := logging.WithRequestID(s.logger, requestID)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.HTTP.MaxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart \"file\" field is required"})
		return
	}

	dryRun := false
	if raw := c.DefaultPostForm("dry_run", c.Query("dry_run")); raw != "" {
		dryRun, err = strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dry_run flag"})
			return
		}
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	result, err := s.importer.Import(ctx, fileHeader.Filename, f, importer.Options{DryRun: dryRun})
	if err != nil {
		var structuralErr *importer.StructuralError
		switch {
		case errors.Is(err, importer.ErrDuplicateFile):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.As(err, &structuralErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			reqLogger.Error("import failed", zap.String("filename", fileHeader.Filename), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	status := http.StatusCreated
	if dryRun {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"request_id": requestID,
		"data":       result,
	})
}
