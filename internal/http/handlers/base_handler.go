// README: Shared response envelope and error mapping for all handlers.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nomnomgo/internal/driver"
	"nomnomgo/internal/modules/assignment"
	"nomnomgo/internal/modules/customer"
	"nomnomgo/internal/modules/order"
	"nomnomgo/internal/modules/wallet"
)

// response is the wire envelope; code duplicates the HTTP status.
type response struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeData(c *gin.Context, status int, data any) {
	c.JSON(status, response{Code: status, Data: data})
}

func writeMessage(c *gin.Context, status int, message string, data any) {
	c.JSON(status, response{Code: status, Message: message, Data: data})
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, response{Code: status, Message: message})
}

// writeServiceError maps module errors onto the envelope, embedding the
// collaborator's message.
func writeServiceError(c *gin.Context, err error) {
	var funds *wallet.InsufficientFundsError
	switch {
	case errors.As(err, &funds):
		writeMessage(c, http.StatusBadRequest, funds.Error(), gin.H{
			"currentBalance": funds.CurrentBalance.Format(),
			"required":       funds.Required.Format(),
		})
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, wallet.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, driver.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrBadRequest),
		errors.Is(err, wallet.ErrBadRequest),
		errors.Is(err, customer.ErrBadRequest),
		errors.Is(err, assignment.ErrInvalidOrder):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, customer.ErrDuplicate),
		errors.Is(err, order.ErrInvalidState),
		errors.Is(err, assignment.ErrOrderNotAssignable):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, assignment.ErrNoDriverAvailable):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, err.Error())
	}
}
