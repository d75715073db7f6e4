// README: Order CRUD and status-patch handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nomnomgo/internal/modules/order"
	"nomnomgo/internal/types"
)

type OrderHandler struct {
	orders *order.Service
}

func NewOrderHandler(orders *order.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type itemReq struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	ImageRef  string  `json:"imageRef"`
}

type createOrderReq struct {
	OrderID         string    `json:"orderId"`
	CustomerID      string    `json:"customerId"`
	RestaurantID    string    `json:"restaurantId"`
	RestaurantName  string    `json:"restaurantName"`
	Items           []itemReq `json:"items"`
	DeliveryAddress string    `json:"deliveryAddress"`
	Subtotal        float64   `json:"subtotal"`
	DeliveryFee     float64   `json:"deliveryFee"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	o := &order.Order{
		ID:              types.ID(req.OrderID),
		CustomerID:      types.ID(req.CustomerID),
		RestaurantID:    req.RestaurantID,
		RestaurantName:  req.RestaurantName,
		Items:           toItems(req.Items),
		DeliveryAddress: req.DeliveryAddress,
		Subtotal:        types.MoneyFromFloat(req.Subtotal),
		DeliveryFee:     types.MoneyFromFloat(req.DeliveryFee),
	}
	if err := h.orders.Create(c.Request.Context(), o); err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusCreated, orderView(o))
}

func (h *OrderHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing order id")
		return
	}
	o, err := h.orders.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, orderView(o))
}

func (h *OrderHandler) List(c *gin.Context) {
	customerID := c.Query("customerId")
	if customerID == "" {
		writeError(c, http.StatusBadRequest, "missing customerId")
		return
	}
	orders, err := h.orders.ListByCustomer(c.Request.Context(), types.ID(customerID))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	views := make([]gin.H, len(orders))
	for i, o := range orders {
		views[i] = orderView(o)
	}
	writeData(c, http.StatusOK, views)
}

type statusPatchReq struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"paymentStatus"`
	DriverStatus  *string `json:"driverStatus"`
	DriverID      *string `json:"driverId"`
	ClearDriver   bool    `json:"clearDriver"`
}

func (h *OrderHandler) PatchStatus(c *gin.Context) {
	id := c.Param("id")
	var req statusPatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	upd := order.StatusUpdate{}
	if req.Status != nil {
		s := order.Status(*req.Status)
		upd.Status = &s
	}
	if req.PaymentStatus != nil {
		p := order.PaymentStatus(*req.PaymentStatus)
		upd.PaymentStatus = &p
	}
	if req.DriverStatus != nil {
		d := order.DriverStatus(*req.DriverStatus)
		upd.DriverStatus = &d
	}
	if req.DriverID != nil {
		upd.SetDriver = true
		d := types.ID(*req.DriverID)
		upd.DriverID = &d
	} else if req.ClearDriver {
		upd.SetDriver = true
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), types.ID(id), upd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, orderView(o))
}

func toItems(in []itemReq) []order.Item {
	out := make([]order.Item, len(in))
	for i, it := range in {
		out[i] = order.Item{
			ID:        it.ID,
			Name:      it.Name,
			UnitPrice: types.MoneyFromFloat(it.UnitPrice),
			Quantity:  it.Quantity,
			ImageRef:  it.ImageRef,
		}
	}
	return out
}

func orderView(o *order.Order) gin.H {
	items := make([]gin.H, len(o.Items))
	for i, it := range o.Items {
		items[i] = gin.H{
			"id":        it.ID,
			"name":      it.Name,
			"unitPrice": it.UnitPrice.Format(),
			"quantity":  it.Quantity,
			"imageRef":  it.ImageRef,
		}
	}
	var driverID *string
	if o.DriverID != nil {
		s := string(*o.DriverID)
		driverID = &s
	}
	return gin.H{
		"orderId":         string(o.ID),
		"customerId":      string(o.CustomerID),
		"restaurantId":    o.RestaurantID,
		"restaurantName":  o.RestaurantName,
		"items":           items,
		"deliveryAddress": o.DeliveryAddress,
		"subtotal":        o.Subtotal.Format(),
		"deliveryFee":     o.DeliveryFee.Format(),
		"total":           o.Total().Format(),
		"status":          string(o.Status),
		"paymentStatus":   string(o.PaymentStatus),
		"driverId":        driverID,
		"driverStatus":    string(o.DriverStatus),
		"createdAt":       o.CreatedAt.Format(time.RFC3339),
		"updatedAt":       o.UpdatedAt.Format(time.RFC3339),
	}
}
