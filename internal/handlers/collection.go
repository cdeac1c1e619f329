// internal/handlers/collection.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/beycollection/internal/i18n"
	"github.com/javajoker/beycollection/internal/models"
	"github.com/javajoker/beycollection/internal/services"
	"github.com/javajoker/beycollection/internal/utils"
)

type CollectionHandler struct {
	reconciler Reconciler
	collection Collection
}

func NewCollectionHandler(reconciler Reconciler, collection Collection) *CollectionHandler {
	return &CollectionHandler{
		reconciler: reconciler,
		collection: collection,
	}
}

type confirmRequest struct {
	Result        *models.IdentificationResult `json:"result" validate:"required"`
	Photo         string                       `json:"photo"`
	CustomName    string                       `json:"custom_name" validate:"max=200"`
	Condition     string                       `json:"condition" validate:"condition"`
	Notes         string                       `json:"notes" validate:"max=2000"`
	AcquiredAt    string                       `json:"acquired_at"`
	SpinDirection string                       `json:"spin_direction" validate:"spin_direction"`
}

type addExistingRequest struct {
	CatalogID     uuid.UUID `json:"catalog_id" validate:"required"`
	SpinDirection string    `json:"spin_direction" validate:"spin_direction"`
}

type spinDirectionRequest struct {
	SpinDirection string `json:"spin_direction" validate:"required,spin_direction"`
}

type photoRequest struct {
	Photo string `json:"photo" validate:"required"`
}

// POST /collection/confirm
func (h *CollectionHandler) Confirm(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	acquiredAt, err := parseDate(req.AcquiredAt)
	if err != nil {
		utils.ValidationErrorResponse(c, []utils.ValidationError{{
			Field:   "acquired_at",
			Tag:     "date",
			Message: "acquired_at must be a date (YYYY-MM-DD)",
		}})
		return
	}

	result, err := h.reconciler.Confirm(c.Request.Context(), userID, services.ConfirmRequest{
		Result:        req.Result,
		Photo:         req.Photo,
		CustomName:    req.CustomName,
		Condition:     models.Condition(req.Condition),
		Notes:         req.Notes,
		AcquiredAt:    acquiredAt,
		SpinDirection: models.SpinDirection(req.SpinDirection),
	})
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	respondConfirm(c, result)
}

// POST /collection
func (h *CollectionHandler) AddExisting(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req addExistingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	result, err := h.reconciler.AddExisting(c.Request.Context(), userID, req.CatalogID, models.SpinDirection(req.SpinDirection))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	respondConfirm(c, result)
}

// An already owned Beyblade is an informational outcome, not an error.
func respondConfirm(c *gin.Context, result *services.ConfirmResult) {
	lang := utils.GetLangFromContext(c)

	if result.Outcome == services.ConfirmAlreadyOwned {
		utils.SuccessResponse(c, gin.H{
			"outcome":  result.Outcome,
			"beyblade": result.Entry,
			"message":  i18n.T(lang, i18n.KeyCollectionAlreadyOwned),
		})
		return
	}

	utils.CreatedResponse(c, gin.H{
		"outcome":  result.Outcome,
		"beyblade": result.Entry,
		"item":     result.Item,
		"message":  i18n.T(lang, i18n.KeyCollectionAdded),
	})
}

// GET /collection
func (h *CollectionHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	items, total, err := h.collection.List(c.Request.Context(), userID, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(items, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /collection/grouped
func (h *CollectionHandler) Grouped(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	groups, err := h.collection.Grouped(c.Request.Context(), userID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"series": groups,
	})
}

// DELETE /collection/:id
func (h *CollectionHandler) Delete(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.collection.Delete(c.Request.Context(), userID, itemID); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCollectionRemoved),
	})
}

// PUT /collection/:id/spin-direction
func (h *CollectionHandler) UpdateSpinDirection(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req spinDirectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	item, err := h.collection.UpdateSpinDirection(c.Request.Context(), userID, itemID, models.SpinDirection(req.SpinDirection))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"item":    item,
		"message": i18n.T(lang, i18n.KeyCollectionUpdated),
	})
}

// POST /collection/:id/photo
func (h *CollectionHandler) UpdatePhoto(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req photoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyCollectionPhotoRequired), err.Error())
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	item, err := h.collection.UpdatePhoto(c.Request.Context(), userID, itemID, req.Photo)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"item":    item,
		"message": i18n.T(lang, i18n.KeyCollectionUpdated),
	})
}
