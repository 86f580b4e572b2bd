package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/binapora/binapora-api/internal/service"
	"github.com/binapora/binapora-api/pkg/response"
)

// ReportHandler exposes export endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func reportFormat(c *gin.Context) service.ReportFormat {
	return service.ReportFormat(c.DefaultQuery("format", "csv"))
}

func streamReport(c *gin.Context, report *service.Report) {
	c.Header("Content-Disposition", `attachment; filename="`+report.FileName+`"`)
	c.Data(http.StatusOK, report.ContentType, report.Content)
}

// Ranking godoc
// @Summary Export one examination's ranking
// @Tags Reports
// @Produce text/csv
// @Param id path string true "Examination ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Security BearerAuth
// @Router /examinations/{id}/rankings/export [get]
func (h *ReportHandler) Ranking(c *gin.Context) {
	report, err := h.reports.RankingReport(c.Request.Context(), c.Param("id"), reportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	streamReport(c, report)
}

// SeriesRanking godoc
// @Summary Export a ranking aggregated across examinations
// @Tags Reports
// @Produce text/csv
// @Param examinationIds query string true "Comma-separated examination IDs"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Security BearerAuth
// @Router /rankings/export [get]
func (h *ReportHandler) SeriesRanking(c *gin.Context) {
	report, err := h.reports.SeriesRankingReport(c.Request.Context(), examinationIDsQuery(c), reportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	streamReport(c, report)
}

// ResultSheet godoc
// @Summary Export one participant's result sheet
// @Tags Reports
// @Produce text/csv
// @Param id path string true "Examination ID"
// @Param participantId path string true "Participant ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Security BearerAuth
// @Router /examinations/{id}/results/{participantId}/export [get]
func (h *ReportHandler) ResultSheet(c *gin.Context) {
	report, err := h.reports.ResultSheetReport(c.Request.Context(), c.Param("id"), c.Param("participantId"), reportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	streamReport(c, report)
}
