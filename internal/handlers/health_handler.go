package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.Health)
}

// Health reports "ok", or "degraded" with 503 when the configured database
// does not answer a ping.
func (h *HealthHandler) Health(c *gin.Context) {
	resp := gin.H{"status": "ok", "registry": "disabled"}
	if h.db == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		resp["status"] = "degraded"
		resp["registry"] = "unavailable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	resp["registry"] = "ok"
	c.JSON(http.StatusOK, resp)
}
