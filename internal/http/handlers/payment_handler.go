// README: Payment initiation handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nomnomgo/internal/modules/payment"
	"nomnomgo/internal/types"
)

type PaymentHandler struct {
	payments *payment.Service
}

func NewPaymentHandler(payments *payment.Service) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type payReq struct {
	CustomerID      string    `json:"custId"`
	OrderID         string    `json:"orderId"`
	RestaurantID    string    `json:"restaurantId"`
	RestaurantName  string    `json:"restaurantName"`
	Items           []itemReq `json:"items"`
	DeliveryAddress string    `json:"deliveryAddress"`
	Subtotal        float64   `json:"subtotal"`
	DeliveryFee     float64   `json:"deliveryFee"`
}

func (h *PaymentHandler) Pay(c *gin.Context) {
	var req payReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if req.CustomerID == "" || req.OrderID == "" {
		writeError(c, http.StatusBadRequest, "missing customer ID or order ID")
		return
	}

	result, err := h.payments.Pay(c.Request.Context(), payment.PayCommand{
		CustomerID:      types.ID(req.CustomerID),
		OrderID:         types.ID(req.OrderID),
		RestaurantID:    req.RestaurantID,
		RestaurantName:  req.RestaurantName,
		Items:           toItems(req.Items),
		DeliveryAddress: req.DeliveryAddress,
		Subtotal:        types.MoneyFromFloat(req.Subtotal),
		DeliveryFee:     types.MoneyFromFloat(req.DeliveryFee),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	data := gin.H{
		"orderId":    string(result.OrderID),
		"newBalance": result.NewBalance.Format(),
	}
	if result.DriverID != nil {
		data["driverId"] = string(*result.DriverID)
		writeMessage(c, http.StatusOK, "Payment processed and driver assigned", data)
		return
	}
	data["pending"] = true
	writeMessage(c, http.StatusAccepted, "Payment processed; searching for a driver", data)
}
