package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matsalen/desafio-procion/internal/catalog"
	"github.com/matsalen/desafio-procion/internal/validation"
)

func RegisterProductRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	svc := cfg.Products

	g := r.Group("/products")

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
		p, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	g.POST("", func(c *gin.Context) {
		var req validation.ProductRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		p, err := svc.Create(c.Request.Context(), productInput(req))
		if err != nil {
			respondError(c, err, http.StatusNotFound)
			return
		}
		c.JSON(http.StatusCreated, p)
	})

	g.PUT("/:id", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req validation.ProductRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		p, err := svc.Update(c.Request.Context(), id, productInput(req))
		if err != nil {
			respondError(c, err, http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, p)
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
		c.JSON(http.StatusOK, gin.H{"message": "Product purged"})
	})
}

// productInput assumes req already passed validation, so the price parses.
func productInput(req validation.ProductRequest) catalog.ProductInput {
	price, _ := req.PriceDecimal()
	return catalog.ProductInput{Name: req.Name, Price: price, Description: req.Description}
}
