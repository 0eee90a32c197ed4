package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	ping   func(context.Context) error
	testDB func(context.Context) error
}

func NewHealthHandler(ping, testDB func(context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping, testDB: testDB}
}

// Root is the banner route.
func (h *HealthHandler) Root(ctx *gin.Context) {
	ctx.String(http.StatusOK, "modern blog server running rapidly")
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.ping != nil {
		if err := h.ping(ctx.Request.Context()); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// TestDB runs a trivial query to confirm connectivity.
func (h *HealthHandler) TestDB(ctx *gin.Context) {
	if h.testDB == nil {
		RespondInternal(ctx, "database not configured")
		return
	}

	if err := h.testDB(ctx.Request.Context()); err != nil {
		RespondInternal(ctx, "database connection failed")
		return
	}

	RespondOK(ctx, "database connected successfully", nil)
}
