package controllers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"nse_screener_backend/services/marketdata"
)

// StockController serves per-symbol queries.
type StockController struct {
	market *marketdata.Service
}

// NewStockController creates a new stock controller
func NewStockController(market *marketdata.Service) *StockController {
	return &StockController{market: market}
}

// GetStocks lists symbols with their series lengths
// GET /api/v1/stocks
func (sc *StockController) GetStocks(c *gin.Context) {
	counts := sc.market.Symbols()

	symbols := make([]string, 0, len(counts))
	for sym := range counts {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	type entry struct {
		Symbol string `json:"symbol"`
		Bars   int    `json:"bars"`
	}
	data := make([]entry, len(symbols))
	for i, sym := range symbols {
		data[i] = entry{Symbol: sym, Bars: counts[sym]}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  data,
		"total": len(data),
	})
}

// GetIndicators returns the enriched series for one symbol
// GET /api/v1/stocks/:symbol/indicators
func (sc *StockController) GetIndicators(c *gin.Context) {
	symbol := c.Param("symbol")
	series := sc.market.Series(symbol)
	if len(series) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Symbol not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":         series,
		"total":        len(series),
		"symbol":       symbol,
		"refreshed_at": sc.market.RefreshedAt(),
	})
}
