package httpapi

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the package-wide validator instance, matching the teacher's
// utils/validation.go singleton pattern.
var validate = validator.New()

// ChatCompletionRequest is the OpenAI-compatible wire body for
// POST /v1/chat/completions (spec §6). Struct tags mirror the teacher's
// handlers.ChatCompletionRequest, retargeted to this gateway's bounds
// (max_tokens capped at 4000, no streaming/provider-override support).
type ChatCompletionRequest struct {
	Model       string        `json:"model" validate:"required"`
	Messages    []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	Temperature *float64      `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	TopP        *float64      `json:"top_p,omitempty" validate:"omitempty,gte=0,lte=1"`
	MaxTokens   *int          `json:"max_tokens,omitempty" validate:"omitempty,gte=1,lte=4000"`
	// Stream is accepted for OpenAI wire compatibility but never honored:
	// spec §1 excludes token-by-token streaming from the core's scope.
	Stream bool `json:"stream,omitempty"`
}

// ChatMessage is a single wire-format chat turn.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required,min=1"`
}

// validationError wraps validator.ValidationErrors with per-field messages,
// grounded on the teacher's utils.ValidationError/NewValidationError.
type validationError struct {
	fields map[string]string
}

func (e *validationError) Error() string { return "validation failed" }

func newValidationError(errs validator.ValidationErrors) *validationError {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			fields[field] = fmt.Sprintf("%s is required", field)
		case "min":
			fields[field] = fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "max", "lte":
			fields[field] = fmt.Sprintf("%s must be at most %s", field, fe.Param())
		case "gte":
			fields[field] = fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "oneof":
			fields[field] = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
		default:
			fields[field] = fmt.Sprintf("%s failed validation on tag %q", field, fe.Tag())
		}
	}
	return &validationError{fields: fields}
}

// validateStruct validates s, returning a *validationError with per-field
// detail on failure.
func validateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return newValidationError(verrs)
		}
		return err
	}
	return nil
}

func (e *validationError) detailMap() map[string]interface{} {
	out := make(map[string]interface{}, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out
}
