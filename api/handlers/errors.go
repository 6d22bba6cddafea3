package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/vidfetch/internal/domain"
)

// ErrorResponse is the JSON body of a failed request
type ErrorResponse struct {
	Kind  domain.FailureKind `json:"kind"`
	Error string             `json:"error"`
	Hint  string             `json:"hint,omitempty"`
}

// StatusFor maps a pipeline failure to an HTTP status code
func StatusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}

	switch domain.KindOf(err) {
	case domain.KindInvalidInput, domain.KindInvalidChoice:
		return http.StatusBadRequest
	case domain.KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse builds the response body for err
func NewErrorResponse(err error) ErrorResponse {
	dlErr := domain.AsDownloadError(err)
	return ErrorResponse{
		Kind:  dlErr.Kind,
		Error: dlErr.Message,
		Hint:  dlErr.Hint,
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(StatusFor(err), NewErrorResponse(err))
}
