package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matsalen/desafio-procion/internal/catalog"
	"github.com/matsalen/desafio-procion/internal/events"
	"github.com/matsalen/desafio-procion/internal/metrics"
	"github.com/matsalen/desafio-procion/internal/orders"
	"github.com/matsalen/desafio-procion/internal/receipt"
)

// HandlerConfig groups dependencies for the HTTP handlers.
type HandlerConfig struct {
	Customers      *catalog.CustomerService
	Products       *catalog.ProductService
	Orders         *orders.Store
	Receipts       *receipt.Renderer
	Events         *events.Dispatcher // nil disables order events
	Metrics        *metrics.ServerMetrics
	RequestTimeout time.Duration
}

// NewRouter builds the gin engine with middleware, health, metrics and every resource route.
func NewRouter(cfg HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog())
	if cfg.Metrics != nil {
		r.Use(Instrument(cfg.Metrics))
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	r.Use(Timeout(cfg.RequestTimeout))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	RegisterCustomerRoutes(r, cfg)
	RegisterProductRoutes(r, cfg)
	RegisterOrdersRoutes(r, cfg)
	RegisterReportRoutes(r, cfg)

	return r
}
