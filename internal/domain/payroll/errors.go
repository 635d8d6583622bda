package payroll

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

var (
	ErrConfiguration = errors.New("payroll configuration error")
	ErrResolution    = errors.New("payroll resolution error")
	ErrValidation    = errors.New("payroll validation error")

	ErrCatalogUnavailable = errors.New("payroll configuration catalog unavailable")
)

// ConfigurationError reports a corrupt or missing configuration: bracket gaps
// and overlaps, template ordering violations, no version effective on the pay date.
type ConfigurationError struct {
	Reason     string
	Violations validator.ValidationErrors
}

func NewConfigurationError(reason string, violations ...validator.ValidationError) *ConfigurationError {
	return &ConfigurationError{Reason: reason, Violations: violations}
}

func (e *ConfigurationError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Reason, e.Violations.Error())
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ResolutionError reports a reference that does not resolve: an unknown
// template component key, allowance parent, allowance item or taxpayer status.
type ResolutionError struct {
	Kind string
	Key  string
}

func NewResolutionError(kind, key string) *ResolutionError {
	return &ResolutionError{Kind: kind, Key: key}
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution error: unknown %s %q", e.Kind, e.Key)
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

// ValidationError reports malformed employee facts.
type ValidationError struct {
	Violations validator.ValidationErrors
}

func NewValidationError(violations validator.ValidationErrors) *ValidationError {
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Violations.Error())
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ErrorKind classifies an error for logs, metrics and batch results.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrResolution):
		return "resolution"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}
