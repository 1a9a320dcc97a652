// Package router defines how HTTP routes are registered for the API.
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ticketry/ticket-platform/internal/config"
	"github.com/ticketry/ticket-platform/internal/handler"
	"github.com/ticketry/ticket-platform/internal/middleware"
)

// Register wires every route of the service onto the provided Echo
// instance.  The public surface is the purchase endpoint (rate
// limited), the stock display (cached) and the per-transaction ticket
// lookup.  Statistics and CSV reports require an admin token.
func Register(e *echo.Echo, tickets *handler.TicketHandler, reports *handler.ReportHandler, auth *handler.AuthHandler, jwtSecret string, rdb *redis.Client, rl config.RateLimitConfig) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/v1/auth/login", auth.Login)

	v1 := e.Group("/v1/tickets")
	v1.POST("", tickets.Reserve, middleware.RateLimit(rl, rdb))
	v1.GET("/stock", tickets.Stock, middleware.CacheJSON(rdb, 5*time.Second))
	v1.GET("/stock/:tier", tickets.StockTier, middleware.CacheJSON(rdb, 5*time.Second))
	v1.GET("/transaction/:id", tickets.ByTransaction)

	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(handler.RoleAdmin))
	admin.GET("/tickets/stats", tickets.Stats)
	admin.GET("/reports/csv", reports.TicketsCSV)
	admin.GET("/reports/csv/:period", reports.TicketsCSVPeriod)
	admin.GET("/reports/financial-csv", reports.FinancialCSV)
}
