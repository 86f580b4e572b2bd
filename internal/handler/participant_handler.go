package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/binapora/binapora-api/internal/models"
	"github.com/binapora/binapora-api/internal/service"
	appErrors "github.com/binapora/binapora-api/pkg/errors"
	"github.com/binapora/binapora-api/pkg/response"
)

// ParticipantHandler exposes participant endpoints.
type ParticipantHandler struct {
	participants *service.ParticipantService
}

// NewParticipantHandler constructs handler.
func NewParticipantHandler(participants *service.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participants: participants}
}

// List godoc
// @Summary List participants
// @Tags Participants
// @Produce json
// @Param branchId query string false "Filter by branch"
// @Param kind query string false "Filter by kind (ATLET, PELATIH, PENDUKUNG)"
// @Param search query string false "Search by name"
// @Param page query int false "Page number"
// @Param perPage query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /participants [get]
func (h *ParticipantHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("perPage", "20"))
	filter := models.ParticipantFilter{
		BranchID: c.Query("branchId"),
		Kind:     models.ParticipantKind(c.Query("kind")),
		Search:   c.Query("search"),
		Page:     page,
		PerPage:  perPage,
	}
	participants, pagination, err := h.participants.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participants, pagination)
}

// Get godoc
// @Summary Get a participant
// @Tags Participants
// @Produce json
// @Param id path string true "Participant ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /participants/{id} [get]
func (h *ParticipantHandler) Get(c *gin.Context) {
	participant, err := h.participants.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participant, nil)
}

// Create godoc
// @Summary Register a participant
// @Tags Participants
// @Accept json
// @Produce json
// @Param payload body service.CreateParticipantRequest true "Participant payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /participants [post]
func (h *ParticipantHandler) Create(c *gin.Context) {
	var req service.CreateParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	participant, err := h.participants.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, participant)
}
