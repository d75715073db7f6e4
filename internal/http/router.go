// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"nomnomgo/internal/http/handlers"
	"nomnomgo/internal/http/middleware"
	"nomnomgo/internal/modules/assignment"
	"nomnomgo/internal/modules/customer"
	"nomnomgo/internal/modules/order"
	"nomnomgo/internal/modules/payment"
	"nomnomgo/internal/modules/refund"
	"nomnomgo/internal/modules/wallet"
)

type RouterDeps struct {
	Orders     *order.Service
	Wallets    *wallet.Service
	Customers  *customer.Service
	Payments   *payment.Service
	Assignment *assignment.Service
	Refunds    *refund.Service
	Log        *slog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))

	paymentHandler := handlers.NewPaymentHandler(deps.Payments)
	r.POST("/pay-delivery", paymentHandler.Pay)

	orderHandler := handlers.NewOrderHandler(deps.Orders)
	r.POST("/orders", orderHandler.Create)
	r.GET("/orders", orderHandler.List)
	r.GET("/orders/:id", orderHandler.Get)
	r.PATCH("/orders/:id/status", orderHandler.PatchStatus)

	deliveryHandler := handlers.NewDeliveryHandler(deps.Assignment, deps.Refunds)
	r.POST("/assign-driver/:orderId", deliveryHandler.Assign)
	r.POST("/deliver-food/cancel/:orderId", deliveryHandler.Cancel)
	r.POST("/reject-delivery/:orderId/:driverId", deliveryHandler.Reject)

	walletHandler := handlers.NewWalletHandler(deps.Wallets)
	r.GET("/wallet/:customerId", walletHandler.Get)
	r.PUT("/wallet/:customerId", walletHandler.SetBalance)
	r.POST("/wallet/:customerId/process-payment", walletHandler.ProcessPayment)

	customerHandler := handlers.NewCustomerHandler(deps.Customers)
	r.POST("/customers", customerHandler.Create)
	r.GET("/customers", customerHandler.List)
	r.GET("/customers/:customerId", customerHandler.Get)
	r.PUT("/customers/:customerId", customerHandler.Update)
	r.DELETE("/customers/:customerId", customerHandler.Delete)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
