package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ppiankov/edgarflat/internal/model"
)

// AppError carries the HTTP status an error maps to.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// MapError maps pipeline and store failures to an HTTP status.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, model.ErrInputMissing):
		return NewAppError(http.StatusBadRequest, "Please select a company", err)
	case errors.Is(err, model.ErrInvalidUser):
		return NewAppError(http.StatusBadRequest, "Invalid user", err)
	case errors.Is(err, model.ErrUnknownUser):
		return NewAppError(http.StatusUnauthorized, "Unknown user", err)
	case errors.Is(err, model.ErrNoDataYet):
		return NewAppError(http.StatusNotFound, "No financials yet, process a company first", err)
	case errors.Is(err, model.ErrUpstreamUnavailable):
		return NewAppError(http.StatusBadGateway, "Sorry, data for this company is unavailable", err)
	}
	return NewAppError(http.StatusInternalServerError, "Internal server error", err)
}

func (s *Server) handleError(c *gin.Context, err error) {
	appErr := MapError(err)
	if appErr.Code >= http.StatusInternalServerError {
		s.logger.Warn("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.AbortWithStatusJSON(appErr.Code, gin.H{"error": appErr.Message})
}
