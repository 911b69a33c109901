package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursecraft-backend/internal/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondError maps a service error onto its HTTP status and stable
// machine code. Untyped errors become a plain 500.
func RespondError(c *gin.Context, err error) {
	c.JSON(apierr.StatusOf(err), ErrorEnvelope{
		Error: APIError{
			Message: err.Error(),
			Code:    string(apierr.CodeOf(err)),
		},
	})
}

func RespondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorEnvelope{
		Error: APIError{Message: msg, Code: string(apierr.CodeInvalidArgument)},
	})
}
