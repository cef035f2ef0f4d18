package figures

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/figure-planner/internal/types"
)

// ErrGeneratorUnavailable is returned by GenerateProposal when no generator is configured.
var ErrGeneratorUnavailable = errors.New("proposal generator is not configured")

// ValidationError indicates a malformed or out-of-bounds request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// toValidationError converts validator and field errors into a *ValidationError.
func toValidationError(err error) error {
	var fe *types.FieldError
	if errors.As(err, &fe) {
		return &ValidationError{Field: fe.Field, Message: fe.Message}
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		// Report the first failing field
		v := verrs[0]
		return &ValidationError{Field: v.Field(), Message: describeTag(v)}
	}
	return &ValidationError{Field: "(request)", Message: err.Error()}
}

func describeTag(v validator.FieldError) string {
	switch v.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + v.Param() + " characters"
	case "max":
		return "must be at most " + v.Param() + " characters"
	case "notblank":
		return "must not be blank"
	case "figname":
		return "must contain a letter or digit"
	default:
		return "failed " + v.Tag() + " check"
	}
}
