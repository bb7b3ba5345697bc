package httpserver

import (
	"io"
	"log"
	"net/http"

	checkoutsvc "shophub/internal/service/checkout"

	"github.com/gin-gonic/gin"
)

func checkoutHandler(logger *log.Logger, svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutsvc.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			bodyError(c, err, "invalid request body")
			return
		}
		res, err := svc.Checkout(c.Request.Context(), req, c.GetHeader("Idempotency-Key"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func listOrdersHandler(logger *log.Logger, svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.ListByUser(c.Request.Context(), c.Param("userId"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func getOrderHandler(logger *log.Logger, svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// paymentWebhookHandler acknowledges every verified event with 200 so the processor stops
// redelivering; only unverifiable payloads are rejected.
func paymentWebhookHandler(logger *log.Logger, svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			bodyError(c, err, "unreadable body")
			return
		}
		outcome, err := svc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
	}
}
