package httpserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type addToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

func getCartHandler(logger *log.Logger, svc userService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.Cart(c.Request.Context(), c.Param("userId"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// addToCartHandler increments the line for productId; an omitted quantity counts as 1.
func addToCartHandler(logger *log.Logger, svc userService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bodyError(c, err, "invalid request body")
			return
		}
		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
		cart, err := svc.AddToCart(c.Request.Context(), c.Param("userId"), req.ProductID, quantity)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func removeFromCartHandler(logger *log.Logger, svc userService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.RemoveFromCart(c.Request.Context(), c.Param("userId"), c.Param("productId"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func clearCartHandler(logger *log.Logger, svc userService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.ClearCart(c.Request.Context(), c.Param("userId"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}
