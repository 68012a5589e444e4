package middleware

import (
	"campusnest_backend/internal/logger"
	"campusnest_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// ErrorHandler is the single place errors pushed with c.Error become HTTP
// responses. AppErrors keep their status code; anything else is a 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.HTTPCode < 500 {
			logger.CtxWarn(c.Request.Context(), "request failed",
				"code", appErr.Code,
				"path", c.Request.URL.Path,
			)
		} else {
			logger.CtxWithError(c.Request.Context(), "request failed", err, "path", c.Request.URL.Path)
		}
		apperrors.HandleError(c, err)
	}
}
