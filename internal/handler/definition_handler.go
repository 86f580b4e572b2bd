package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/binapora/binapora-api/internal/service"
	appErrors "github.com/binapora/binapora-api/pkg/errors"
	"github.com/binapora/binapora-api/pkg/response"
)

// DefinitionHandler exposes aspect/item definition endpoints.
type DefinitionHandler struct {
	definitions *service.DefinitionService
}

// NewDefinitionHandler constructs handler.
func NewDefinitionHandler(definitions *service.DefinitionService) *DefinitionHandler {
	return &DefinitionHandler{definitions: definitions}
}

// List godoc
// @Summary List an examination's definitions
// @Tags Definitions
// @Produce json
// @Param id path string true "Examination ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /examinations/{id}/definitions [get]
func (h *DefinitionHandler) List(c *gin.Context) {
	aspects, err := h.definitions.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, aspects, nil)
}

// Save godoc
// @Summary Save an examination's definitions
// @Tags Definitions
// @Accept json
// @Produce json
// @Param id path string true "Examination ID"
// @Param payload body service.SaveDefinitionsRequest true "Definitions payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /examinations/{id}/definitions [put]
func (h *DefinitionHandler) Save(c *gin.Context) {
	var req service.SaveDefinitionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.ExaminationID = c.Param("id")
	aspects, err := h.definitions.Save(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, aspects, nil)
}

type cloneTemplateRequest struct {
	BranchID string `json:"branch_id" binding:"required"`
}

// CloneTemplate godoc
// @Summary Clone the branch template into an examination
// @Tags Definitions
// @Accept json
// @Produce json
// @Param id path string true "Examination ID"
// @Param payload body cloneTemplateRequest true "Branch payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /examinations/{id}/definitions/clone-template [post]
func (h *DefinitionHandler) CloneTemplate(c *gin.Context) {
	var req cloneTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	aspects, err := h.definitions.CloneTemplate(c.Request.Context(), c.Param("id"), req.BranchID, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, aspects, nil)
}

type saveTemplateRequest struct {
	Name string `json:"name"`
}

// SaveAsTemplate godoc
// @Summary Save an examination's definitions as the branch template
// @Tags Definitions
// @Accept json
// @Produce json
// @Param id path string true "Examination ID"
// @Param payload body saveTemplateRequest true "Template payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /examinations/{id}/definitions/save-template [post]
func (h *DefinitionHandler) SaveAsTemplate(c *gin.Context) {
	var req saveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.definitions.SaveAsTemplate(c.Request.Context(), c.Param("id"), req.Name, actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "saved"}, nil)
}
