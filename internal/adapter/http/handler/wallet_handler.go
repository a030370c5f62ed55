package handler

import (
	"coin-ledger/internal/adapter/http/dto"
	"coin-ledger/internal/core/ports"
	"coin-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// List handles GET /api/v1/wallets.
func (h *WalletHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	wallets, err := h.walletSvc.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.NewWalletList(wallets))
}

// Create handles POST /api/v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	dto.NormalizeText(&req)

	wallet, err := h.walletSvc.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	setResourceID(c, wallet.ID.String())
	response.Created(c, dto.NewWalletResponse(wallet))
}

// Get handles GET /api/v1/wallets/:walletId.
func (h *WalletHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	walletID, ok := pathUUID(c, "walletId")
	if !ok {
		return
	}

	wallet, err := h.walletSvc.Get(c.Request.Context(), userID, walletID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.NewWalletResponse(wallet))
}

// Rename handles PATCH /api/v1/wallets/:walletId.
func (h *WalletHandler) Rename(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	walletID, ok := pathUUID(c, "walletId")
	if !ok {
		return
	}

	var req dto.RenameWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	dto.NormalizeText(&req)

	wallet, err := h.walletSvc.Rename(c.Request.Context(), userID, walletID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.NewWalletResponse(wallet))
}

// Delete handles DELETE /api/v1/wallets/:walletId. Transactions of the
// wallet go with it.
func (h *WalletHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	walletID, ok := pathUUID(c, "walletId")
	if !ok {
		return
	}

	if err := h.walletSvc.Delete(c.Request.Context(), userID, walletID); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, gin.H{"id": walletID.String(), "deleted": true})
}
