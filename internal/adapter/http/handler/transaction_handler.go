package handler

import (
	"coin-ledger/internal/adapter/http/dto"
	"coin-ledger/internal/core/ports"
	"coin-ledger/pkg/apperror"
	"coin-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// TransactionHandler handles ledger entry endpoints. Writes go through the
// ledger service only.
type TransactionHandler struct {
	ledgerSvc    ports.LedgerService
	portfolioSvc ports.PortfolioService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerSvc ports.LedgerService, portfolioSvc ports.PortfolioService) *TransactionHandler {
	return &TransactionHandler{ledgerSvc: ledgerSvc, portfolioSvc: portfolioSvc}
}

// List handles GET /api/v1/wallets/:walletId/transactions, newest first.
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	walletID, ok := pathUUID(c, "walletId")
	if !ok {
		return
	}

	txs, err := h.portfolioSvc.ListTransactions(c.Request.Context(), userID, walletID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.NewTransactionList(txs))
}

// ListPage handles GET /api/v1/wallets/:walletId/transactions/paginated.
func (h *TransactionHandler) ListPage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	walletID, ok := pathUUID(c, "walletId")
	if !ok {
		return
	}

	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, apperror.Validation(err.Error()))
		return
	}

	params := ports.TransactionListParams{WalletID: walletID, Page: q.Page, PageSize: q.Limit}.Normalize()
	txs, total, err := h.portfolioSvc.ListTransactionsPage(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, dto.TransactionPage{
		Data: dto.NewTransactionList(txs),
		Meta: dto.NewPageMeta(total, params.Page, params.PageSize),
	})
}

// Get handles GET /api/v1/wallets/:walletId/transactions/:transactionId.
func (h *TransactionHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	walletID, ok := pathUUID(c, "walletId")
	if !ok {
		return
	}
	txID, ok := pathUUID(c, "transactionId")
	if !ok {
		return
	}

	tx, err := h.portfolioSvc.GetTransaction(c.Request.Context(), userID, walletID, txID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.NewTransactionResponse(tx))
}

// Create handles POST /api/v1/wallets/:walletId/transactions. A repeated
// Idempotency-Key returns the first result.
func (h *TransactionHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	walletID, ok := pathUUID(c, "walletId")
	if !ok {
		return
	}

	var key dto.IdempotencyKey
	if err := c.ShouldBindHeader(&key); err != nil {
		respondError(c, apperror.Validation(err.Error()))
		return
	}

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	input, err := req.ToPorts(userID, walletID, key.Key)
	if err != nil {
		respondError(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.ledgerSvc.CreateTransaction(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	setResourceID(c, result.Transaction.ID.String())
	response.Created(c, dto.NewMutationResponse(result))
}

// Update handles PATCH /api/v1/wallets/:walletId/transactions/:transactionId.
func (h *TransactionHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	walletID, ok := pathUUID(c, "walletId")
	if !ok {
		return
	}
	txID, ok := pathUUID(c, "transactionId")
	if !ok {
		return
	}

	var req dto.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	patch, err := req.ToPatch()
	if err != nil {
		respondError(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.ledgerSvc.UpdateTransaction(c.Request.Context(), ports.UpdateTransactionRequest{
		UserID:        userID,
		WalletID:      walletID,
		TransactionID: txID,
		Patch:         patch,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.NewMutationResponse(result))
}

// Delete handles DELETE /api/v1/wallets/:walletId/transactions/:transactionId.
func (h *TransactionHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	walletID, ok := pathUUID(c, "walletId")
	if !ok {
		return
	}
	txID, ok := pathUUID(c, "transactionId")
	if !ok {
		return
	}

	result, err := h.ledgerSvc.DeleteTransaction(c.Request.Context(), userID, walletID, txID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.NewMutationResponse(result))
}
