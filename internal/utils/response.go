// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/beycollection/internal/apperrors"
	"github.com/javajoker/beycollection/internal/i18n"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

var errorStatus = map[apperrors.ErrorType]int{
	apperrors.TypeValidation:        http.StatusBadRequest,
	apperrors.TypeNotFound:          http.StatusNotFound,
	apperrors.TypeTimeout:           http.StatusGatewayTimeout,
	apperrors.TypeUpstream:          http.StatusBadGateway,
	apperrors.TypeRateLimited:       http.StatusTooManyRequests,
	apperrors.TypePaymentRequired:   http.StatusPaymentRequired,
	apperrors.TypeMalformedResponse: http.StatusBadGateway,
	apperrors.TypeConflict:          http.StatusConflict,
	apperrors.TypeUnauthorized:      http.StatusUnauthorized,
	apperrors.TypeForbidden:         http.StatusForbidden,
	apperrors.TypeServerSlow:        http.StatusServiceUnavailable,
	apperrors.TypeInternal:          http.StatusInternalServerError,
}

// StatusFor maps an error type to its HTTP status.
func StatusFor(errType apperrors.ErrorType) int {
	if status, ok := errorStatus[errType]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// AppErrorResponse renders err with the status of its type. The message is
// the translation of the error key; the wrapped cause is only logged.
func AppErrorResponse(c *gin.Context, err error) {
	lang := GetLangFromContext(c)

	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal("Internal server error", err)
	}

	status := StatusFor(appErr.Type)
	message := appErr.Message
	if appErr.Key != "" && i18n.Has(lang, appErr.Key) {
		message = i18n.T(lang, appErr.Key)
	}

	entry := logrus.WithFields(logrus.Fields{
		"path":       c.Request.URL.Path,
		"error_type": appErr.Type,
		"error_key":  appErr.Key,
		"status":     status,
	})
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("Request failed")
	} else {
		entry.WithError(err).Debug("Request rejected")
	}

	ErrorResponse(c, status, string(appErr.Type), message, nil)
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAuthRequired)
	}
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAdminAccessDenied)
	}
	ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", message, nil)
}

func TooManyRequestsResponse(c *gin.Context) {
	lang := GetLangFromContext(c)
	ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", i18n.T(lang, i18n.KeyRequestRateLimited), nil)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, i18n.KeyValidationInvalid, "input")
	ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", message, errors)
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}

// GetUserIDFromContext returns the authenticated user id set by the auth
// middleware.
func GetUserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	if userID, exists := c.Get("user_id"); exists {
		if userIDStr, ok := userID.(string); ok {
			if id, err := uuid.Parse(userIDStr); err == nil {
				return id, true
			}
		}
	}
	return uuid.Nil, false
}

func GetUserRoleFromContext(c *gin.Context) (string, bool) {
	if role, exists := c.Get("user_role"); exists {
		if roleStr, ok := role.(string); ok {
			return roleStr, true
		}
	}
	return "", false
}
