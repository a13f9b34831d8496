package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nse_screener_backend/services/marketdata"
	"nse_screener_backend/services/screener"
)

// ScreenerController serves snapshot, filter and bucket queries.
type ScreenerController struct {
	market *marketdata.Service
}

// NewScreenerController creates a new screener controller
func NewScreenerController(market *marketdata.Service) *ScreenerController {
	return &ScreenerController{market: market}
}

// GetSnapshot returns the latest-per-symbol rows
// GET /api/v1/screener/snapshot
func (sc *ScreenerController) GetSnapshot(c *gin.Context) {
	snapshot := sc.market.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"data":         snapshot,
		"total":        len(snapshot),
		"refreshed_at": sc.market.RefreshedAt(),
		"report":       sc.market.Report(),
	})
}

// Screen evaluates ad-hoc filter specs against the snapshot
// POST /api/v1/screener/screen
func (sc *ScreenerController) Screen(c *gin.Context) {
	var specs []screener.FilterSpec
	if err := c.ShouldBindJSON(&specs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	buckets, err := sc.market.Screen(specs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":         buckets,
		"refreshed_at": sc.market.RefreshedAt(),
	})
}

// GetBuckets returns the preset strategy bucket results
// GET /api/v1/screener/buckets
func (sc *ScreenerController) GetBuckets(c *gin.Context) {
	buckets := sc.market.Buckets()
	counts := make(map[string]int, len(buckets))
	for label, rows := range buckets {
		counts[label] = len(rows)
	}
	c.JSON(http.StatusOK, gin.H{
		"data":         buckets,
		"counts":       counts,
		"refreshed_at": sc.market.RefreshedAt(),
	})
}

// GetBucket returns one preset bucket by label
// GET /api/v1/screener/buckets/:label
func (sc *ScreenerController) GetBucket(c *gin.Context) {
	label := c.Param("label")
	rows, ok := sc.market.Buckets()[label]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bucket not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":         rows,
		"total":        len(rows),
		"bucket":       label,
		"refreshed_at": sc.market.RefreshedAt(),
	})
}

// GetPresets returns the preset bucket definitions
// GET /api/v1/screener/presets
func (sc *ScreenerController) GetPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": sc.market.Presets()})
}
