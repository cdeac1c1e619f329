// internal/handlers/catalog.go
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/beycollection/internal/services"
	"github.com/javajoker/beycollection/internal/utils"
)

type CatalogHandler struct {
	catalog Catalog
}

func NewCatalogHandler(catalog Catalog) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
	}
}

// GET /catalog
func (h *CatalogHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	query := services.CatalogQuery{
		Series:     strings.TrimSpace(c.Query("series")),
		Generation: strings.TrimSpace(c.Query("generation")),
		Type:       strings.TrimSpace(c.Query("type")),
		Pagination: params,
	}

	entries, total, err := h.catalog.List(c.Request.Context(), query)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(entries, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /catalog/filters
func (h *CatalogHandler) Filters(c *gin.Context) {
	filters, err := h.catalog.Filters(c.Request.Context())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, filters)
}

// GET /catalog/:id
func (h *CatalogHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	entry, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"beyblade": entry,
	})
}
