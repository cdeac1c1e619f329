// internal/handlers/image.go
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/beycollection/internal/i18n"
	"github.com/javajoker/beycollection/internal/utils"
)

const imageCacheControl = "public, max-age=86400"

type ImageHandler struct {
	images ImageProxy
}

func NewImageHandler(images ImageProxy) *ImageHandler {
	return &ImageHandler{
		images: images,
	}
}

// GET /images/wiki?slug=&size=
func (h *ImageHandler) WikiImage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	slug := strings.TrimSpace(c.Query("slug"))
	if slug == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyImageSlugRequired), nil)
		return
	}

	size := 0
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 2000 {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "size"), nil)
			return
		}
		size = n
	}

	image, err := h.images.Proxy(c.Request.Context(), slug, size)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	cacheStatus := "MISS"
	if image.Cached {
		cacheStatus = "HIT"
	}
	c.Header("Cache-Control", imageCacheControl)
	c.Header("X-Cache", cacheStatus)
	c.Data(http.StatusOK, image.ContentType, image.Data)
}
