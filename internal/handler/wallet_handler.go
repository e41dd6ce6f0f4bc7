package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devdattatalele/zapmygoal/internal/service"
	"github.com/devdattatalele/zapmygoal/pkg/helpers"
	"github.com/devdattatalele/zapmygoal/pkg/logger"
)

// WalletHandler handles wallet requests
type WalletHandler struct {
	wallets service.WalletService
	log     *logger.Logger
}

func NewWalletHandler(wallets service.WalletService, log *logger.Logger) *WalletHandler {
	return &WalletHandler{wallets: wallets, log: log}
}

// Balance handles GET /api/wallet
func (h *WalletHandler) Balance(c *gin.Context) {
	wallet, err := h.wallets.Balance(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"wallet":    wallet,
		"formatted": helpers.FormatINR(wallet.Balance),
	})
}

// DepositRequest is the deposit payload
type DepositRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// Deposit handles POST /api/wallet/deposits
func (h *WalletHandler) Deposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation",
			"message": "Please provide a positive deposit amount.",
		})
		return
	}

	wallet, err := h.wallets.Deposit(c.Request.Context(), GetUserID(c), req.Amount)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"wallet":    wallet,
		"formatted": helpers.FormatINR(wallet.Balance),
	})
}

// Transactions handles GET /api/wallet/transactions
func (h *WalletHandler) Transactions(c *gin.Context) {
	history, err := h.wallets.Transactions(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": history})
}
