// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ParseLanguage picks the locale for an Accept-Language header such as
// "pt-BR,pt;q=0.9,en;q=0.8". Only the first preference is considered.
func ParseLanguage(header string) string {
	if header == "" {
		return "en"
	}

	first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
	switch strings.ToLower(strings.ReplaceAll(first, "_", "-")) {
	case "pt", "pt-br", "pt-pt":
		return "pt_BR"
	default:
		return "en"
	}
}

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", ParseLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}
