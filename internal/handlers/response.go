package handler

import (
	"invoice-billing-backend/internal/apperror"
	"invoice-billing-backend/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIError is the body returned for calls that match no route.
type APIError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

// InvalidCall answers any method/path pair the API does not serve.
func InvalidCall(c *gin.Context) {
	c.JSON(int(apperror.CodeBadRequest), APIError{Code: "1", Message: "Invalid API Call"})
}

// respondError writes err's status with its caller-facing message as a JSON string.
func respondError(c *gin.Context, err error) {
	code := apperror.CodeOf(err)
	if code >= apperror.CodeInternal {
		logger.FromContext(c).Error("request failed", zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(int(code), apperror.MessageOf(err, "Internal server error"))
}
