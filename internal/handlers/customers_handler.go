package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matsalen/desafio-procion/internal/catalog"
	"github.com/matsalen/desafio-procion/internal/validation"
)

// RegisterCustomerRoutes registers the customer catalog. DELETE toggles the
// active flag; only /purge removes the row.
func RegisterCustomerRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	svc := cfg.Customers

	g := r.Group("/customers")

	g.GET("", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			respondError(c, err, http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	g.GET("/:id", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		cust, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, cust)
	})

	g.POST("", func(c *gin.Context) {
		var req validation.CustomerRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		cust, err := svc.Create(c.Request.Context(), customerInput(req))
		if err != nil {
			respondError(c, err, http.StatusNotFound)
			return
		}
		c.JSON(http.StatusCreated, cust)
	})

	g.PUT("/:id", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req validation.CustomerRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		cust, err := svc.Update(c.Request.Context(), id, customerInput(req))
		if err != nil {
			respondError(c, err, http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, cust)
	})

	toggle := func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		res, err := svc.ToggleActive(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, res)
	}
	g.DELETE("/:id", toggle)
	g.PATCH("/:id/active", toggle)

	g.DELETE("/:id/purge", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := svc.Purge(c.Request.Context(), id); err != nil {
			respondError(c, err, http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Customer purged"})
	})
}

func customerInput(req validation.CustomerRequest) catalog.CustomerInput {
	return catalog.CustomerInput{Name: req.Name, Email: req.Email, Phone: req.Phone}
}
