package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"

	"github.com/matsalen/desafio-procion/internal/apperr"
)

// RegisterReportRoutes exposes a flat CSV of every order line.
func RegisterReportRoutes(r *gin.Engine, cfg HandlerConfig) {
	r.GET("/reports/orders.csv", func(c *gin.Context) {
		rows, err := cfg.Orders.ExportRows(c.Request.Context(), cfg.Receipts.CustomerPlaceholder)
		if err != nil {
			respondError(c, err, http.StatusNotFound)
			return
		}
		data, err := gocsv.MarshalBytes(&rows)
		if err != nil {
			respondError(c, apperr.Persistence("export orders", err), http.StatusNotFound)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="orders.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
	})
}
