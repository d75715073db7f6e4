// README: Wallet handlers: balance read, direct payment, top-up.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nomnomgo/internal/modules/wallet"
	"nomnomgo/internal/types"
)

type WalletHandler struct {
	wallets *wallet.Service
}

func NewWalletHandler(wallets *wallet.Service) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

func (h *WalletHandler) Get(c *gin.Context) {
	customerID := types.ID(c.Param("customerId"))
	balance, err := h.wallets.GetBalance(c.Request.Context(), customerID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"balance": balance.Format()})
}

type processPaymentReq struct {
	Amount  float64 `json:"amount"`
	OrderID string  `json:"orderId"`
}

// ProcessPayment debits the wallet directly, without order orchestration.
func (h *WalletHandler) ProcessPayment(c *gin.Context) {
	customerID := types.ID(c.Param("customerId"))
	var req processPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	newBalance, err := h.wallets.Debit(c.Request.Context(), customerID,
		types.MoneyFromFloat(req.Amount), types.ID(req.OrderID))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeMessage(c, http.StatusOK, "Payment processed successfully", gin.H{
		"newBalance":        newBalance.Format(),
		"transactionAmount": types.MoneyFromFloat(req.Amount).Format(),
	})
}

type setBalanceReq struct {
	Balance float64 `json:"balance"`
}

func (h *WalletHandler) SetBalance(c *gin.Context) {
	customerID := types.ID(c.Param("customerId"))
	var req setBalanceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if req.Balance < 0 {
		writeError(c, http.StatusBadRequest, "balance cannot be negative")
		return
	}
	if err := h.wallets.SetBalance(c.Request.Context(), customerID, types.MoneyFromFloat(req.Balance)); err != nil {
		writeServiceError(c, err)
		return
	}
	writeMessage(c, http.StatusOK, "Wallet updated successfully", gin.H{
		"balance": types.MoneyFromFloat(req.Balance).Format(),
	})
}
