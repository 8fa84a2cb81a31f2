package handlers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TranslateValidationError turns binding errors into a readable message.
func TranslateValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return "Invalid request body: " + err.Error()
	}

	messages := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := fieldPath(fe)
		switch fe.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "min":
			messages = append(messages, field+" must contain at least "+fe.Param()+" item(s)")
		default:
			messages = append(messages, field+" is invalid")
		}
	}

	return strings.Join(messages, ", ")
}

// fieldPath drops the top-level struct name: "Request.Assignments[0].PupilID"
// becomes "Assignments[0].PupilID".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}

	return ns
}
