package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/boatyard/boatyard-server/internal/errors"
	"github.com/boatyard/boatyard-server/internal/store"
	"github.com/boatyard/boatyard-server/internal/validation"
)

const msgInternal = "Internal server error"

// APIError is a custom error type that implements huma.StatusError.
// Every error leaves the server as {"Error": message}; validation failures
// also carry the failing fields under "details".
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Message string `json:"Error" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Per-field validation messages"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler(logger *slog.Logger) {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			if apiErr := fromError(err); apiErr != nil {
				if apiErr.status >= http.StatusInternalServerError && logger != nil {
					logger.Error("Request failed", "error", err)
				}
				return apiErr
			}
		}

		// Body and parameter failures detected by huma itself.
		if status == http.StatusBadRequest || status == http.StatusUnprocessableEntity {
			return &APIError{status: http.StatusBadRequest, Message: validation.MissingAttributesMessage}
		}

		if status >= http.StatusInternalServerError {
			if logger != nil {
				logger.Error("Unhandled error", "status", status, "message", message, "errors", errs)
			}
			message = msgInternal
		}

		return &APIError{status: status, Message: message}
	}
}

// toAPIError converts an error returned by a service into the response error.
func toAPIError(err error) error {
	if err == nil {
		return nil
	}
	var statusErr huma.StatusError
	if errors.As(err, &statusErr) {
		return statusErr
	}
	return huma.NewError(http.StatusInternalServerError, msgInternal, err)
}

// fromError maps domain and store errors. It returns nil for anything else.
func fromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		msg := domainErr.Message
		if domainErr.HTTPStatus() == http.StatusInternalServerError {
			msg = msgInternal
		}
		apiErr := &APIError{status: domainErr.HTTPStatus(), Message: msg}
		if domainErr.Code == domainerrors.CodeValidation {
			apiErr.Details = domainErr.Details
		}
		return apiErr
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return &APIError{status: storeErr.HTTPCode(), Message: storeErr.Message}
	}

	return nil
}
