package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smallbiznis/orghub/internal/service"
)

// envelope is the success response shape shared by every endpoint.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondSuccess(c *gin.Context, code int, message string, data any) {
	c.JSON(code, envelope{Status: "success", Message: message, Data: data})
}

// respondError translates service errors into the failure envelopes.
// Unexpected errors are logged with their cause and reported to the
// caller only as the generic fallback.
func respondError(c *gin.Context, err error, fallback string) {
	var fieldErrs service.FieldErrors
	if errors.As(err, &fieldErrs) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fieldErrs})
		return
	}

	var apiErr *service.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.StatusCode, gin.H{
			"status":     apiErr.Status,
			"message":    apiErr.Message,
			"statusCode": apiErr.StatusCode,
		})
		return
	}

	zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{
		"status":     "Bad request",
		"message":    fallback,
		"statusCode": http.StatusBadRequest,
	})
}

// bindJSON decodes the request body. A field of the wrong JSON type is
// reported as a per-field validation error; anything else malformed is a
// plain bad-request envelope.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": service.FieldErrors{
				{Field: typeErr.Field, Message: typeErr.Field + " must be a string"},
			}})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"status":     "Bad request",
			"message":    "Invalid payload",
			"statusCode": http.StatusBadRequest,
		})
		return false
	}
	return true
}
