// README: Customer CRUD handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nomnomgo/internal/modules/customer"
	"nomnomgo/internal/types"
)

type CustomerHandler struct {
	customers *customer.Service
}

func NewCustomerHandler(customers *customer.Service) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

type customerReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (h *CustomerHandler) Create(c *gin.Context) {
	var req customerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	cust := &customer.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if err := h.customers.Create(c.Request.Context(), cust); err != nil {
		writeServiceError(c, err)
		return
	}
	writeMessage(c, http.StatusCreated, "Customer created successfully", customerView(cust))
}

func (h *CustomerHandler) Get(c *gin.Context) {
	cust, err := h.customers.Get(c.Request.Context(), types.ID(c.Param("customerId")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, customerView(cust))
}

func (h *CustomerHandler) List(c *gin.Context) {
	custs, err := h.customers.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	views := make([]gin.H, 0, len(custs))
	for _, cust := range custs {
		views = append(views, customerView(cust))
	}
	writeData(c, http.StatusOK, views)
}

func (h *CustomerHandler) Update(c *gin.Context) {
	var req customerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	uid := types.ID(c.Param("customerId"))
	cust, err := h.customers.Get(c.Request.Context(), uid)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if req.Name != "" {
		cust.Name = req.Name
	}
	if req.Email != "" {
		cust.Email = req.Email
	}
	if req.Phone != "" {
		cust.Phone = req.Phone
	}
	if req.Address != "" {
		cust.Address = req.Address
	}
	if err := h.customers.Update(c.Request.Context(), cust); err != nil {
		writeServiceError(c, err)
		return
	}
	writeMessage(c, http.StatusOK, "Customer updated successfully", customerView(cust))
}

func (h *CustomerHandler) Delete(c *gin.Context) {
	if err := h.customers.Delete(c.Request.Context(), types.ID(c.Param("customerId"))); err != nil {
		writeServiceError(c, err)
		return
	}
	writeMessage(c, http.StatusOK, "Customer deleted successfully", nil)
}

func customerView(c *customer.Customer) gin.H {
	return gin.H{
		"uid":       string(c.UID),
		"name":      c.Name,
		"email":     c.Email,
		"phone":     c.Phone,
		"address":   c.Address,
		"createdAt": c.CreatedAt.Format(time.RFC3339),
		"updatedAt": c.UpdatedAt.Format(time.RFC3339),
	}
}
