package apperrors

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// HandleError пишет ошибку в ответ. Не-AppError становится INTERNAL_ERROR;
// в release режиме детали 5xx ошибок скрываются.
func HandleError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	if appErr.HTTPCode >= 500 {
		slog.ErrorContext(c.Request.Context(), "server error", "code", appErr.Code, "error", err.Error())
		if gin.Mode() == gin.ReleaseMode {
			appErr = New(appErr.Code, appErr.Domain, appErr.Message, appErr.HTTPCode)
		}
	}

	c.JSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}
