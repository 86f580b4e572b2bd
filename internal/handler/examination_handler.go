package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/binapora/binapora-api/internal/models"
	"github.com/binapora/binapora-api/internal/service"
	appErrors "github.com/binapora/binapora-api/pkg/errors"
	"github.com/binapora/binapora-api/pkg/response"
)

// ExaminationHandler exposes examination and roster endpoints.
type ExaminationHandler struct {
	examinations *service.ExaminationService
}

// NewExaminationHandler constructs handler.
func NewExaminationHandler(examinations *service.ExaminationService) *ExaminationHandler {
	return &ExaminationHandler{examinations: examinations}
}

// List godoc
// @Summary List examinations
// @Tags Examinations
// @Produce json
// @Param branchId query string false "Filter by branch"
// @Param categoryId query string false "Filter by category"
// @Param dateFrom query string false "Held on or after (RFC3339)"
// @Param dateTo query string false "Held on or before (RFC3339)"
// @Param page query int false "Page number"
// @Param perPage query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /examinations [get]
func (h *ExaminationHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("perPage", "20"))
	filter := models.ExaminationFilter{
		BranchID:   c.Query("branchId"),
		CategoryID: c.Query("categoryId"),
		Page:       page,
		PerPage:    perPage,
	}
	if raw := c.Query("dateFrom"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.DateFrom = &ts
		}
	}
	if raw := c.Query("dateTo"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.DateTo = &ts
		}
	}

	exams, pagination, err := h.examinations.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams, pagination)
}

// Get godoc
// @Summary Get an examination
// @Tags Examinations
// @Produce json
// @Param id path string true "Examination ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /examinations/{id} [get]
func (h *ExaminationHandler) Get(c *gin.Context) {
	exam, err := h.examinations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Create godoc
// @Summary Create an examination
// @Tags Examinations
// @Accept json
// @Produce json
// @Param payload body service.CreateExaminationRequest true "Examination payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /examinations [post]
func (h *ExaminationHandler) Create(c *gin.Context) {
	var req service.CreateExaminationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exam, err := h.examinations.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exam)
}

// Delete godoc
// @Summary Delete an examination
// @Tags Examinations
// @Param id path string true "Examination ID"
// @Success 204
// @Security BearerAuth
// @Router /examinations/{id} [delete]
func (h *ExaminationHandler) Delete(c *gin.Context) {
	if err := h.examinations.Delete(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Members godoc
// @Summary List the examination roster
// @Tags Examinations
// @Produce json
// @Param id path string true "Examination ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /examinations/{id}/members [get]
func (h *ExaminationHandler) Members(c *gin.Context) {
	members, err := h.examinations.Members(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}

// Enroll godoc
// @Summary Enroll a participant
// @Tags Examinations
// @Accept json
// @Produce json
// @Param id path string true "Examination ID"
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /examinations/{id}/members [post]
func (h *ExaminationHandler) Enroll(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.ExaminationID = c.Param("id")
	if err := h.examinations.Enroll(c.Request.Context(), req, actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"status": "enrolled"})
}

// RemoveMember godoc
// @Summary Remove a participant from the roster
// @Tags Examinations
// @Param id path string true "Examination ID"
// @Param participantId path string true "Participant ID"
// @Success 204
// @Security BearerAuth
// @Router /examinations/{id}/members/{participantId} [delete]
func (h *ExaminationHandler) RemoveMember(c *gin.Context) {
	if err := h.examinations.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("participantId"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
