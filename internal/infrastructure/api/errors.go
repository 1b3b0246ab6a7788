package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/ports"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error   string             `json:"error"`
	Status  int                `json:"status,omitempty"` // upstream status for commerce failures
	Detail  string             `json:"detail,omitempty"`
	Details []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail names a rejected request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain and upstream errors onto HTTP statuses
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var validationErrs validator.ValidationErrors
	var apiErr *ports.APIError

	switch {
	case errors.As(err, &validationErrs):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Request validation failed",
			Details: validationDetails(validationErrs),
		})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidSignature), errors.Is(err, domain.ErrInvalidState):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrDesignNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrShopNotConnected):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNoValidLineItems):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrDuplicateShareToken):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	case errors.As(err, &apiErr):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:  apiErr.Service + " request failed",
			Status: apiErr.StatusCode,
			Detail: apiErr.Body,
		})
	default:
		logger.Error().Err(err).Msg("Unhandled request error")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

func validationDetails(errs validator.ValidationErrors) []ValidationDetail {
	details := make([]ValidationDetail, 0, len(errs))
	for _, e := range errs {
		details = append(details, ValidationDetail{Field: e.Field(), Message: validationMessage(e)})
	}
	return details
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_without":
		return "This field is required"
	case "min":
		return "Must be at least " + e.Param()
	case "max":
		return "Must be at most " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "url":
		return "Invalid URL format"
	default:
		return "Invalid value"
	}
}
