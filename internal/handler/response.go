package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"delivery/internal/repository"
	"delivery/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	// ConflictingID names the existing pricing range a rejected insert
	// overlaps, so an admin UI can point at it.
	ConflictingID string `json:"conflicting_id,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var conflict *service.RangeConflictError
	if errors.As(err, &conflict) {
		resp.ConflictingID = conflict.ConflictingID
	}

	c.JSON(mapErrorToHTTPStatus(err), resp)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidOrderID),
		errors.Is(err, service.ErrInvalidDeliveryID),
		errors.Is(err, service.ErrInvalidCourierID),
		errors.Is(err, service.ErrInvalidDistance),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidCourierStatus),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidBaseConfig),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrInvalidDistanceRange):
		return http.StatusBadRequest

	// Conflict and invalid-state errors
	case errors.Is(err, service.ErrRangeOverlap),
		errors.Is(err, service.ErrCourierAlreadyAssigned),
		errors.Is(err, service.ErrCourierNotAvailable),
		errors.Is(err, service.ErrDeliveryClosed),
		errors.Is(err, service.ErrNoCourierAssigned),
		errors.Is(err, service.ErrAssignmentInProgress):
		return http.StatusConflict

	// Service unavailable
	case errors.Is(err, service.ErrNoCourierAvailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
