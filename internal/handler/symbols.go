package handler

import (
	"net/http"
	"strconv"
	"strings"

	"crypto-chart-bot/internal/symbols"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const maxSearchLimit = 50

// SearchSymbols godoc
// @Summary      Search tradable symbols
// @Description  Exact match first, then substring matches in alphabetical order
// @Tags         symbols
// @Produce      json
// @Param        q      query  string  true   "Query (e.g., doge, BTC/USDT)"
// @Param        limit  query  int     false  "Maximum results (1-50)"  default(5)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/symbols [get]
func (h *Handler) SearchSymbols(c *gin.Context) {
	if h.symbols == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "symbol cache unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.search-symbols")
	defer span.End()

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	limit := symbols.DefaultSearchLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxSearchLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 50"})
			return
		}
		limit = n
	}
	span.SetAttributes(attribute.String("query", query), attribute.Int("limit", limit))

	matches, err := h.symbols.Search(ctx, query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if matches == nil {
		matches = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "symbols": matches})
}

// GetPopular godoc
// @Summary      Popular coins
// @Tags         symbols
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/popular [get]
func (h *Handler) GetPopular(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"coins": symbols.Popular()})
}
