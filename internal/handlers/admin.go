// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/beycollection/internal/i18n"
	"github.com/javajoker/beycollection/internal/services"
	"github.com/javajoker/beycollection/internal/utils"
)

// AdminHandler exposes catalog maintenance. Collections reference catalog
// entries by id, so every edit here is visible to all owners at once.
type AdminHandler struct {
	catalog Catalog
}

func NewAdminHandler(catalog Catalog) *AdminHandler {
	return &AdminHandler{
		catalog: catalog,
	}
}

type renameSeriesRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required,max=100"`
}

type renameGenerationRequest struct {
	Series string `json:"series" validate:"required"`
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required,max=100"`
}

type reassignRequest struct {
	IDs        []uuid.UUID `json:"ids" validate:"required,min=1"`
	Series     string      `json:"series" validate:"required,max=100"`
	Generation string      `json:"generation" validate:"max=100"`
}

// PUT /admin/catalog/series
func (h *AdminHandler) RenameSeries(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req renameSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	updated, err := h.catalog.RenameSeries(c.Request.Context(), req.From, req.To)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	h.audit(c, "rename_series", logrus.Fields{"from": req.From, "to": req.To, "updated": updated})
	utils.SuccessResponse(c, gin.H{
		"updated": updated,
		"message": i18n.T(lang, i18n.KeyCatalogRenamed, updated),
	})
}

// PUT /admin/catalog/generation
func (h *AdminHandler) RenameGeneration(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req renameGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	updated, err := h.catalog.RenameGeneration(c.Request.Context(), req.Series, req.From, req.To)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	h.audit(c, "rename_generation", logrus.Fields{"series": req.Series, "from": req.From, "to": req.To, "updated": updated})
	utils.SuccessResponse(c, gin.H{
		"updated": updated,
		"message": i18n.T(lang, i18n.KeyCatalogRenamed, updated),
	})
}

// PUT /admin/catalog/reassign
func (h *AdminHandler) Reassign(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req reassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	updated, err := h.catalog.Reassign(c.Request.Context(), req.IDs, req.Series, req.Generation)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	h.audit(c, "reassign", logrus.Fields{"count": len(req.IDs), "series": req.Series, "generation": req.Generation})
	utils.SuccessResponse(c, gin.H{
		"updated": updated,
		"message": i18n.T(lang, i18n.KeyCatalogReassigned, updated),
	})
}

// PUT /admin/catalog/:id
func (h *AdminHandler) UpdateEntry(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.CatalogUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	entry, err := h.catalog.Update(c.Request.Context(), id, req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	h.audit(c, "update_entry", logrus.Fields{"catalog_id": id})
	utils.SuccessResponse(c, gin.H{
		"beyblade": entry,
		"message":  i18n.T(lang, i18n.KeyCatalogUpdated),
	})
}

func (h *AdminHandler) audit(c *gin.Context, action string, fields logrus.Fields) {
	adminID, _ := utils.GetUserIDFromContext(c)
	fields["admin_id"] = adminID
	fields["action"] = action
	logrus.WithFields(fields).Info("Catalog updated by admin")
}
