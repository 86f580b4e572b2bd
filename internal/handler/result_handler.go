package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/binapora/binapora-api/internal/service"
	appErrors "github.com/binapora/binapora-api/pkg/errors"
	"github.com/binapora/binapora-api/pkg/response"
)

// ResultHandler exposes scoring endpoints.
type ResultHandler struct {
	results *service.ResultService
}

// NewResultHandler constructs handler.
func NewResultHandler(results *service.ResultService) *ResultHandler {
	return &ResultHandler{results: results}
}

// Save godoc
// @Summary Score and save raw measurements for one participant
// @Tags Results
// @Accept json
// @Produce json
// @Param id path string true "Examination ID"
// @Param participantId path string true "Participant ID"
// @Param payload body service.SaveResultsRequest true "Raw measurements keyed by item ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /examinations/{id}/results/{participantId} [put]
func (h *ResultHandler) Save(c *gin.Context) {
	var req service.SaveResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.ExaminationID = c.Param("id")
	req.ParticipantID = c.Param("participantId")

	sheet, err := h.results.Save(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Sheet godoc
// @Summary Get one participant's result sheet
// @Tags Results
// @Produce json
// @Param id path string true "Examination ID"
// @Param participantId path string true "Participant ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /examinations/{id}/results/{participantId} [get]
func (h *ResultHandler) Sheet(c *gin.Context) {
	sheet, err := h.results.Sheet(c.Request.Context(), c.Param("id"), c.Param("participantId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}
