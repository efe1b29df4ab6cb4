package middleware

import (
	"github.com/gin-gonic/gin"

	"masterdata/internal/core/apperror"
	"masterdata/internal/importexport"
	"masterdata/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		// Import/export gate errors keep their contract body `{"error": ...}`.
		if ge, ok := importexport.AsGateError(err); ok {
			c.JSON(ge.Status, gin.H{"error": ge.Message})
			return
		}

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}

			c.JSON(appErr.HTTPStatus, gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			})
			return
		}

		// Unknown error - log and return generic message
		logger.Error(c.Request.Context(), "unhandled error",
			"error", err,
		)

		c.JSON(500, gin.H{
			"code":    apperror.CodeInternal,
			"message": "Internal server error",
			"details": map[string]any{
				"request_id": c.GetString("request_id"),
			},
		})
	}
}
