// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/beycollection/internal/models"
)

var validate *validator.Validate

var slugPattern = regexp.MustCompile(`^[^\s/?#]+$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("spin_direction", validateSpinDirection)
	validate.RegisterValidation("beyblade_type", validateBeybladeType)
	validate.RegisterValidation("condition", validateCondition)
	validate.RegisterValidation("wiki_slug", validateWikiSlug)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateSpinDirection(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.SpinDirection(value).Valid()
}

// Accepts any label NormalizeType understands, including Portuguese ones.
func validateBeybladeType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, ok := models.NormalizeType(value)
	return ok
}

func validateCondition(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.Condition(value).Valid()
}

func validateWikiSlug(fl validator.FieldLevel) bool {
	return slugPattern.MatchString(fl.Field().String())
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "spin_direction":
		return "Spin direction must be L, R or R/L"
	case "beyblade_type":
		return "Type must be Attack, Defense, Stamina or Balance"
	case "condition":
		return "Condition must be new, excellent, good, worn or damaged"
	case "wiki_slug":
		return "Slug must be a wiki page name without spaces"
	default:
		return e.Field() + " is invalid"
	}
}
