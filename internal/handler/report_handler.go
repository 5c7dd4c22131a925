package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/maintenance-api/internal/service"
	"github.com/noah-isme/maintenance-api/pkg/response"
)

// ReportHandler exposes the aggregate reports.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ByTeam godoc
// @Summary Request counts per maintenance team
// @Tags Reports
// @Produce json
// @Param format query string false "json (default), csv, xlsx or pdf"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/by-team [get]
func (h *ReportHandler) ByTeam(c *gin.Context) {
	if h.exported(c, service.ReportByTeam) {
		return
	}
	rows, err := h.reports.ByTeam(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, rows, len(rows))
}

// ByCategory godoc
// @Summary Request counts per equipment category
// @Tags Reports
// @Produce json
// @Param format query string false "json (default), csv, xlsx or pdf"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/by-category [get]
func (h *ReportHandler) ByCategory(c *gin.Context) {
	if h.exported(c, service.ReportByCategory) {
		return
	}
	rows, err := h.reports.ByCategory(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, rows, len(rows))
}

// exported writes a file download when a non-json format is requested and
// reports whether the response was handled.
func (h *ReportHandler) exported(c *gin.Context, kind service.ReportKind) bool {
	format := strings.ToLower(strings.TrimSpace(c.Query("format")))
	if format == "" || format == "json" {
		return false
	}
	file, err := h.reports.Export(c.Request.Context(), kind, format)
	if err != nil {
		response.Error(c, err)
		return true
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
	return true
}
