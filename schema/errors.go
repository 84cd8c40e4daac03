package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrUsage the API was called with arguments that can never succeed
	ErrUsage = errors.New("usage error")
	// ErrInvalidType a value cannot be coerced to the field kind
	ErrInvalidType = fmt.Errorf("%w: invalid type", ErrUsage)
	// ErrInvalidValue a value has the right type but an unacceptable shape
	ErrInvalidValue = fmt.Errorf("%w: invalid value", ErrUsage)
	// ErrUnknownAttribute a path segment names no field or relationship
	ErrUnknownAttribute = fmt.Errorf("%w: unknown attribute", ErrUsage)
	// ErrUnknownModel no model is registered under that name
	ErrUnknownModel = fmt.Errorf("%w: unknown model", ErrUsage)
	// ErrValidationFailed a value violates a field constraint
	ErrValidationFailed = errors.New("validation failed")
	// ErrInvalidDefault a field default does not pass its own validation
	ErrInvalidDefault = fmt.Errorf("%w: invalid default value", ErrValidationFailed)
)
