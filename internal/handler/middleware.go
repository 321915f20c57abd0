package handler

import (
	"github.com/saptiva-ai/bankcopilot/internal/errors"
	"github.com/saptiva-ai/bankcopilot/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrorHandler drains errors accumulated via c.Error during the
// request and writes the last one as a JSON response, translating
// *errors.AppError into its declared HTTP status and the taxonomy's
// stable machine code; any other error is treated as internal.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var appErr *errors.AppError
		if ae, ok := err.(*errors.AppError); ok {
			appErr = ae
		} else {
			appErr = errors.NewInternalServerError(err.Error())
		}

		logger.ErrorWithFields(c.Request.Context(), appErr, map[string]interface{}{
			"code": appErr.Code,
			"path": c.Request.URL.Path,
		})

		body := gin.H{
			"success": false,
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		}
		if appErr.RetryAfterMs > 0 {
			body["error"].(gin.H)["retry_after_ms"] = appErr.RetryAfterMs
		}
		c.JSON(appErr.HTTPStatus, body)
	}
}

// RequestContext stamps a trace_id onto the request context so every
// downstream logger.Info/Error call carries it.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Trace-Id")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		ctx := logger.With(c.Request.Context(), "trace_id", traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Trace-Id", traceID)
		c.Next()
	}
}
