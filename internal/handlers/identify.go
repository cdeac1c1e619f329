// internal/handlers/identify.go
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/beycollection/internal/i18n"
	"github.com/javajoker/beycollection/internal/models"
	"github.com/javajoker/beycollection/internal/utils"
)

type IdentifyHandler struct {
	identifier Identifier
}

func NewIdentifyHandler(identifier Identifier) *IdentifyHandler {
	return &IdentifyHandler{
		identifier: identifier,
	}
}

type identifyImageRequest struct {
	Image string `json:"image" validate:"required"`
}

type lookupRequest struct {
	Slug string `json:"slug" validate:"required,wiki_slug"`
}

// POST /identify/image
func (h *IdentifyHandler) IdentifyImage(c *gin.Context) {
	var req identifyImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	result, err := h.identifier.IdentifyImage(c.Request.Context(), req.Image)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, identifyPayload(c, result))
}

// POST /identify/lookup
func (h *IdentifyHandler) Lookup(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	req.Slug = strings.TrimSpace(req.Slug)
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	result, err := h.identifier.LookupBySlug(c.Request.Context(), req.Slug)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, identifyPayload(c, result))
}

// identifyPayload adds a user message for results that are not a match.
func identifyPayload(c *gin.Context, result *models.IdentificationResult) gin.H {
	lang := utils.GetLangFromContext(c)
	payload := gin.H{"result": result}

	switch result.Outcome {
	case models.OutcomeLeads:
		payload["message"] = i18n.T(lang, i18n.KeyIdentifyLowConfidence)
	case models.OutcomeUnidentified:
		payload["message"] = i18n.T(lang, i18n.KeyIdentifyNotIdentified)
	}
	return payload
}
