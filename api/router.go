package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/amaurydelille/SWP391BE/internal/checkout"
)

// InitRoutes registers the payment, deposit, cart and reporting endpoints on
// the given Gin engine.
func InitRoutes(e *gin.Engine, service *checkout.Service, logger *zap.Logger) {
	h := NewPaymentHandler(service, logger)

	g := e.Group("/api")
	g.POST("/payment/:userId", h.handlePayment)
	g.POST("/deposit/:userId", h.handleDeposit)

	g.POST("/users/:userId/cart/:artworkId", h.handleAddToCart)
	g.GET("/users/:userId/cart", h.handleGetCart)
	g.DELETE("/users/:userId/cart/:artworkId", h.handleRemoveFromCart)

	g.GET("/transactions/:userId", h.handleGetPurchases)
	g.GET("/payment-history/:userId", h.handlePaymentHistory)
	g.GET("/customer-order-history/:creatorId", h.handleCustomerOrderHistory)
	g.GET("/admin-profit-history/:adminId", h.handleAdminProfitHistory)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}
