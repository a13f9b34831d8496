package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nse_screener_backend/services/marketdata"
)

// AdminController exposes operator-only actions.
type AdminController struct {
	market *marketdata.Service
}

// NewAdminController creates a new admin controller
func NewAdminController(market *marketdata.Service) *AdminController {
	return &AdminController{market: market}
}

// TriggerRefresh reloads bars and recomputes all indicators
// POST /api/v1/admin/refresh
func (ac *AdminController) TriggerRefresh(c *gin.Context) {
	if err := ac.market.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"summary": ac.market.Summary(),
	})
}
