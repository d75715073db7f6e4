// README: Delivery orchestration handlers: manual driver assignment, order
// cancellation with refund, and delivery rejection.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nomnomgo/internal/modules/assignment"
	"nomnomgo/internal/modules/refund"
	"nomnomgo/internal/types"
)

type DeliveryHandler struct {
	assigner *assignment.Service
	refunds  *refund.Service
}

func NewDeliveryHandler(assigner *assignment.Service, refunds *refund.Service) *DeliveryHandler {
	return &DeliveryHandler{assigner: assigner, refunds: refunds}
}

// Assign handles POST /assign-driver/:orderId. When no driver is available
// the order is queued on the retry loop and 202 is returned.
func (h *DeliveryHandler) Assign(c *gin.Context) {
	orderID := types.ID(c.Param("orderId"))
	if orderID == "" {
		writeError(c, http.StatusBadRequest, "missing order id")
		return
	}

	driverID, err := h.assigner.Assign(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, assignment.ErrNoDriverAvailable) {
			h.assigner.StartPending(orderID)
			writeMessage(c, http.StatusAccepted, "no available drivers; order queued for retry", gin.H{
				"orderId": string(orderID),
				"pending": true,
			})
			return
		}
		writeServiceError(c, err)
		return
	}
	writeMessage(c, http.StatusOK, "Driver assigned successfully", gin.H{
		"orderId":  string(orderID),
		"driverId": string(driverID),
	})
}

// Cancel handles POST /deliver-food/cancel/:orderId.
func (h *DeliveryHandler) Cancel(c *gin.Context) {
	orderID := types.ID(c.Param("orderId"))
	if orderID == "" {
		writeError(c, http.StatusBadRequest, "missing order id")
		return
	}

	result, err := h.refunds.CancelOrder(c.Request.Context(), orderID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	if result.AlreadyCancelled {
		writeMessage(c, http.StatusOK, "Order already cancelled", gin.H{
			"order": orderView(result.Order),
		})
		return
	}
	writeMessage(c, http.StatusOK, "Order cancelled and refunded", gin.H{
		"order":      orderView(result.Order),
		"refunded":   result.Refunded.Format(),
		"newBalance": result.NewBalance.Format(),
	})
}

// Reject handles POST /reject-delivery/:orderId/:driverId.
func (h *DeliveryHandler) Reject(c *gin.Context) {
	orderID := types.ID(c.Param("orderId"))
	driverID, err := strconv.ParseInt(c.Param("driverId"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid driver id")
		return
	}

	result, err := h.assigner.Reject(c.Request.Context(), orderID, driverID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	data := gin.H{"orderId": string(orderID)}
	if result.NewDriverID != nil {
		data["driverId"] = string(*result.NewDriverID)
		writeMessage(c, http.StatusOK, "Delivery rejected; new driver assigned", data)
		return
	}
	data["pending"] = true
	writeMessage(c, http.StatusOK, "Delivery rejected; finding new driver", data)
}
