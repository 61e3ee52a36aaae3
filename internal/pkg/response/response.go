package response

import (
	"log/slog"
	"net/http"

	"hotel/internal/pkg/apperror"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// FromError writes a business error with its mapped status.
// Anything else is logged and reported as an internal error without leaking details.
func FromError(c *gin.Context, err error) {
	if appErr, ok := apperror.As(err); ok {
		Error(c, appErr.Kind.HTTPStatus(), string(appErr.Kind), appErr.Message)
		return
	}

	_ = c.Error(err)
	slog.ErrorContext(c.Request.Context(), "request failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"error", err,
	)
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}
