package storeapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/corethreads/commerce/internal/webserver"
	"github.com/corethreads/commerce/pkg/metrics"
)

// registerMetricsRoutes registers the checkout counters read endpoint
func registerMetricsRoutes() {
	webserver.ApiGET("/metrics/checkout", getCheckoutMetrics)
}

// getCheckoutMetrics sums the checkout counters over a trailing window
// (hours query param, default 24).
func getCheckoutMetrics(c echo.Context) error {
	hours := 24
	if h, err := strconv.Atoi(c.QueryParam("hours")); err == nil && h > 0 && h <= 24*30 {
		hours = h
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	return ok(c, map[string]interface{}{
		"window_hours":   hours,
		"success":        metrics.SumSince(metrics.CheckoutSuccess, since),
		"failure":        metrics.SumSince(metrics.CheckoutFailure, since),
		"conflict_retry": metrics.SumSince(metrics.CheckoutConflictRetry, since),
		"stock_resync":   metrics.SumSince(metrics.StockResyncRun, since),
	})
}
