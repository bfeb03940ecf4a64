package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/logging"
	"github.com/sirupsen/logrus"
)

// APIResponse is the envelope every endpoint answers with.
// Failed responses echo the request id so clients can quote it in reports.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// SuccessResponse writes a successful envelope with an explicit status
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{Success: true, Message: message, Data: data})
}

// OKResponse writes 200
func OKResponse(c *gin.Context, message string, data interface{}) {
	SuccessResponse(c, http.StatusOK, message, data)
}

// CreatedResponse writes 201
func CreatedResponse(c *gin.Context, message string, data interface{}) {
	SuccessResponse(c, http.StatusCreated, message, data)
}

// ErrorResponse writes a failed envelope
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	failure(c, statusCode, message, nil)
}

func failure(c *gin.Context, statusCode int, message string, detail interface{}) {
	c.JSON(statusCode, APIResponse{
		Error:     message,
		Data:      detail,
		RequestID: c.GetString("request_id"),
	})
}

func BadRequestResponse(c *gin.Context, message string) {
	failure(c, http.StatusBadRequest, message, nil)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	failure(c, http.StatusUnauthorized, message, nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	failure(c, http.StatusForbidden, message, nil)
}

func NotFoundResponse(c *gin.Context, message string) {
	failure(c, http.StatusNotFound, message, nil)
}

func InternalServerErrorResponse(c *gin.Context, message string) {
	failure(c, http.StatusInternalServerError, message, nil)
}

// RespondError maps err onto the error taxonomy. Forbidden and NotFound carry no detail.
func RespondError(c *gin.Context, err error) {
	var invalid *errs.ValidationError
	switch {
	case errors.As(err, &invalid):
		failure(c, http.StatusBadRequest, "Validation failed", invalid)
	case errors.Is(err, errs.ErrValidationFailed):
		BadRequestResponse(c, "Validation failed")
	case errors.Is(err, errs.ErrUnauthorized):
		UnauthorizedResponse(c, "Unauthorized")
	case errors.Is(err, errs.ErrForbidden):
		ForbiddenResponse(c, "Insufficient privilege")
	case errors.Is(err, errs.ErrNotFound):
		NotFoundResponse(c, "Not found")
	default:
		logging.FromContext(c.Request.Context()).WithFields(logrus.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		}).Error("Request failed")
		InternalServerErrorResponse(c, "Internal server error")
	}
}
