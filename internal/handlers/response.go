package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlms/skills-backend/internal/apierr"
	"github.com/openlms/skills-backend/internal/skillerr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps domain errors onto HTTP statuses; anything
// unrecognized is a 500 with a generic code.
func RespondServiceError(c *gin.Context, err error) {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		RespondError(c, apiErr.Status, apiErr.Code, apiErr.Err)
		return
	}
	switch {
	case skillerr.IsNotFound(err):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case skillerr.IsValidation(err):
		RespondError(c, http.StatusBadRequest, "validation_failed", err)
	case skillerr.IsConflict(err):
		RespondError(c, http.StatusConflict, "conflict", err)
	case skillerr.IsNotConfigured(err):
		RespondError(c, http.StatusUnprocessableEntity, "not_configured", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
