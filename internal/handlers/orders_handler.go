package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/matsalen/desafio-procion/internal/orders"
	"github.com/matsalen/desafio-procion/internal/receipt"
	"github.com/matsalen/desafio-procion/internal/validation"
)

// RegisterOrdersRoutes registers routes for order API.
func RegisterOrdersRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	store := cfg.Orders

	r.GET("/orders", func(c *gin.Context) {
		list, err := store.List(c.Request.Context())
		if err != nil {
			respondError(c, err, http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.GET("/orders/:id", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		o, err := store.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, o)
	})

	r.POST("/orders", func(c *gin.Context) {
		var req validation.CreateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		draft := orders.Draft{
			CustomerID:     req.CustomerID,
			PaymentMethod:  req.PaymentMethod,
			Total:          req.Total,
			IdempotencyKey: c.GetHeader("Idempotency-Key"),
			Lines:          make([]orders.DraftLine, 0, len(req.Items)),
		}
		for _, it := range req.Items {
			draft.Lines = append(draft.Lines, orders.DraftLine{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: *it.UnitPrice,
			})
		}

		// unknown customer or product is the caller's mistake here, not a missing resource
		res, err := store.Compose(c.Request.Context(), draft)
		if err != nil {
			respondError(c, err, http.StatusBadRequest)
			return
		}

		if res.Replayed {
			c.JSON(http.StatusOK, res.Order)
			return
		}

		if cfg.Metrics != nil {
			cfg.Metrics.OrdersCreated.Inc()
		}
		cfg.Events.Emit(res.Order)
		zap.L().Info("order created",
			zap.String("request_id", c.GetString("request_id")),
			zap.Int64("order_id", res.Order.ID),
			zap.Int("lines", len(res.Order.Lines)),
			zap.String("total", res.Order.Total.StringFixed(2)))

		c.Header("Location", fmt.Sprintf("/orders/%d", res.Order.ID))
		c.JSON(http.StatusCreated, res.Order)
	})

	r.GET("/orders/:id/receipt", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		o, err := store.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, http.StatusNotFound)
			return
		}
		pdf, err := cfg.Receipts.Bytes(o)
		if err != nil {
			zap.L().Error("receipt render failed", zap.Int64("order_id", id), zap.Error(err))
			code := "receipt_render_failed"
			if !errors.Is(err, receipt.ErrRender) {
				code = "receipt_failed"
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": code,
				"msg":   "order is saved but its receipt could not be generated",
			})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, receipt.FileName(o)))
		c.Data(http.StatusOK, "application/pdf", pdf)
	})

	r.GET("/orders/:id/receipt/email", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		o, err := store.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, http.StatusNotFound)
			return
		}
		d := cfg.Receipts.Draft(o)
		c.JSON(http.StatusOK, gin.H{
			"to":      d.To,
			"subject": d.Subject,
			"body":    d.Body,
			"mailto":  d.MailtoURL(),
		})
	})
}
