package apperrors

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports a missing or malformed input field.
// errors.Is(err, ErrValidation) matches any ValidationError.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError returns a ValidationError for field with a user-facing message.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
