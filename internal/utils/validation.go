package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	qqRegex      = regexp.MustCompile(`^\d{5,11}$`)
	durationReg  = regexp.MustCompile(`^\d+(\.\d)?[smhdwM]$`)
	actionTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}(:\d{2})?$`)
)

func init() {
	validate = validator.New()

	// Custom validation for QQ numbers
	validate.RegisterValidation("qqnum", func(fl validator.FieldLevel) bool {
		return qqRegex.MatchString(fl.Field().String())
	})

	// Custom validation for action duration literals (30m, 12h, 2d, 1w, 1M)
	validate.RegisterValidation("logduration", func(fl validator.FieldLevel) bool {
		return durationReg.MatchString(fl.Field().String())
	})

	// Custom validation for action timestamps, seconds optional
	validate.RegisterValidation("actiontime", func(fl validator.FieldLevel) bool {
		return actionTimeRe.MatchString(fl.Field().String())
	})
}

// Validate validates a struct using the validator
func Validate(s any) error {
	return validate.Struct(s)
}

// FormatValidationErrors formats validation errors for API response
func FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := strings.ToLower(e.Field())
			switch e.Tag() {
			case "required":
				errors[field] = "This field is required"
			case "min":
				errors[field] = "Value is too short"
			case "max":
				errors[field] = "Value is too long"
			case "qqnum":
				errors[field] = "A QQ number must be 5 to 11 digits"
			case "logduration":
				errors[field] = "Duration must be a number followed by s, m, h, d, w or M"
			case "actiontime":
				errors[field] = "Time must look like 2025-05-12 00:00 or 2025-05-12 00:00:00"
			default:
				errors[field] = "Invalid value"
			}
		}
	}

	return errors
}

// SanitizeString removes potentially dangerous characters from a string
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")
	// Trim whitespace
	s = strings.TrimSpace(s)
	return s
}

// TruncateString truncates a string to a maximum length
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
