package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"newsdesk/portal/internal/logger"
	"newsdesk/portal/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves admin data downloads.
type ExportHandler struct {
	exports services.IExportService
	now     func() time.Time
}

func NewExportHandler(exports services.IExportService) *ExportHandler {
	return &ExportHandler{exports: exports, now: time.Now}
}

// The export is built in memory so a failure can still be reported as JSON
// instead of a truncated download.
func (h *ExportHandler) attach(c *gin.Context, filename, contentType string, buf *bytes.Buffer) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// DumpDatabase handles GET /api/admin/export/dump
func (h *ExportHandler) DumpDatabase(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.exports.DumpJSON(c.Request.Context(), &buf); err != nil {
		respondError(c, err, "Failed to export database")
		return
	}
	logger.L().Infow("Database exported", "bytes", buf.Len())
	filename := fmt.Sprintf("newsdesk-dump-%s.json", h.now().UTC().Format("2006-01-02"))
	h.attach(c, filename, "application/json", &buf)
}

// CollectionSpreadsheet handles GET /api/admin/export/:collection
func (h *ExportHandler) CollectionSpreadsheet(c *gin.Context) {
	collection := c.Param("collection")
	var buf bytes.Buffer
	if err := h.exports.CollectionXLSX(c.Request.Context(), collection, &buf); err != nil {
		respondError(c, err, "Failed to export collection")
		return
	}
	filename := fmt.Sprintf("newsdesk-%s-%s.xlsx", collection, h.now().UTC().Format("2006-01-02"))
	h.attach(c, filename, xlsxContentType, &buf)
}
