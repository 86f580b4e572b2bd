package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/binapora/binapora-api/internal/service"
	appErrors "github.com/binapora/binapora-api/pkg/errors"
	"github.com/binapora/binapora-api/pkg/response"
)

// ComparisonHandler exposes trend, comparison and ranking endpoints.
type ComparisonHandler struct {
	comparisons *service.ComparisonService
}

// NewComparisonHandler constructs handler.
func NewComparisonHandler(comparisons *service.ComparisonService) *ComparisonHandler {
	return &ComparisonHandler{comparisons: comparisons}
}

func examinationIDsQuery(c *gin.Context) []string {
	raw := c.Query("examinationIds")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

// Trend godoc
// @Summary Get a participant's performance trend
// @Tags Comparisons
// @Produce json
// @Param id path string true "Participant ID"
// @Param examinationIds query string true "Comma-separated examination IDs, oldest first"
// @Param aspectName query string false "Aspect name; omitted means the overall level"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /participants/{id}/trend [get]
func (h *ComparisonHandler) Trend(c *gin.Context) {
	series, err := h.comparisons.Trend(c.Request.Context(), service.TrendRequest{
		ParticipantID:  c.Param("id"),
		AspectName:     c.Query("aspectName"),
		ExaminationIDs: examinationIDsQuery(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, series, nil)
}

// Matrix godoc
// @Summary Compare a branch's participants across examinations
// @Tags Comparisons
// @Produce json
// @Param branchId path string true "Branch ID"
// @Param examinationIds query string true "Comma-separated examination IDs"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /branches/{branchId}/comparison [get]
func (h *ComparisonHandler) Matrix(c *gin.Context) {
	matrix, err := h.comparisons.Matrix(c.Request.Context(), c.Param("branchId"), examinationIDsQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matrix, nil)
}

// RankWithin godoc
// @Summary Rank participants inside one examination
// @Tags Comparisons
// @Produce json
// @Param id path string true "Examination ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /examinations/{id}/rankings [get]
func (h *ComparisonHandler) RankWithin(c *gin.Context) {
	entries, err := h.comparisons.RankWithin(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// RankAcross godoc
// @Summary Rank participants across an examination set
// @Tags Comparisons
// @Produce json
// @Param examinationIds query string true "Comma-separated examination IDs"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /rankings [get]
func (h *ComparisonHandler) RankAcross(c *gin.Context) {
	ids := examinationIDsQuery(c)
	if len(ids) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "examinationIds is required"))
		return
	}
	entries, err := h.comparisons.RankAcross(c.Request.Context(), ids)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
