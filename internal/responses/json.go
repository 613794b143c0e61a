package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tablescope/internal/apperrors"
	"tablescope/internal/middlewares"
)

type APIResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func Success(c *gin.Context, statusCode int, data any, message string) {
	c.JSON(statusCode, APIResponse{
		Status:    "success",
		Message:   message,
		Data:      data,
		RequestID: c.GetString(middlewares.RequestIDKey),
	})
}

func Fail(c *gin.Context, statusCode int, err error, message string) {
	resp := APIResponse{
		Status:    "error",
		Message:   message,
		RequestID: c.GetString(middlewares.RequestIDKey),
	}
	if err != nil {
		resp.Error = err.Error()
		_ = c.Error(err)
	}
	c.JSON(statusCode, resp)
}

// StatusFor maps service errors to HTTP status codes. Rejected input is the
// caller's fault; a failing database behind us is a bad gateway.
func StatusFor(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrQueryExecutionFailed), errors.Is(err, apperrors.ErrMetadataUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
