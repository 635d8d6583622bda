package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Request-level validation
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Payroll engine errors
	var (
		factsErr      *payroll.ValidationError
		resolutionErr *payroll.ResolutionError
		configErr     *payroll.ConfigurationError
	)
	switch {
	case errors.As(err, &factsErr):
		ValidationError(w, factsErr.Violations.ToMap())
	case errors.As(err, &resolutionErr):
		UnprocessableEntity(w, "RESOLUTION_ERROR", resolutionErr.Error(), map[string]string{resolutionErr.Kind: resolutionErr.Key})
	case errors.As(err, &configErr):
		ConfigurationConflict(w, configErr.Reason, configErr.Violations.ToMap())
	case errors.Is(err, payroll.ErrCatalogUnavailable):
		slog.Error("payroll catalog unavailable", "error", err)
		ServiceUnavailable(w, "Payroll configuration is temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		GatewayTimeout(w, "Payroll computation timed out")

	// Default
	default:
		slog.Error("unhandled payroll error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
