package handler

import (
	"coin-ledger/internal/adapter/http/dto"
	"coin-ledger/internal/core/ports"
	"coin-ledger/pkg/apperror"
	"coin-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// PortfolioHandler serves the read-only views derived from a wallet's ledger.
type PortfolioHandler struct {
	portfolioSvc ports.PortfolioService
	vsCurrency   string
}

// NewPortfolioHandler creates a new PortfolioHandler. vsCurrency is the
// quote currency of every price.
func NewPortfolioHandler(portfolioSvc ports.PortfolioService, vsCurrency string) *PortfolioHandler {
	return &PortfolioHandler{portfolioSvc: portfolioSvc, vsCurrency: vsCurrency}
}

// Summary handles GET /api/v1/wallets/:walletId/summary.
func (h *PortfolioHandler) Summary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	walletID, ok := pathUUID(c, "walletId")
	if !ok {
		return
	}

	summary, err := h.portfolioSvc.Summary(c.Request.Context(), userID, walletID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.NewSummaryResponse(summary, h.vsCurrency))
}

// Positions handles GET /api/v1/wallets/:walletId/transactions/grouped.
func (h *PortfolioHandler) Positions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	walletID, ok := pathUUID(c, "walletId")
	if !ok {
		return
	}

	positions, err := h.portfolioSvc.Positions(c.Request.Context(), userID, walletID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.NewPositionList(positions))
}

// CoinTransactions handles GET .../transactions/coins/:coinSymbol.
func (h *PortfolioHandler) CoinTransactions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	walletID, ok := pathUUID(c, "walletId")
	if !ok {
		return
	}

	txs, err := h.portfolioSvc.ListCoinTransactions(c.Request.Context(), userID, walletID, c.Param("coinSymbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.NewTransactionList(txs))
}

// CoinStats handles GET .../transactions/coins/:coinSymbol/stats.
func (h *PortfolioHandler) CoinStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	walletID, ok := pathUUID(c, "walletId")
	if !ok {
		return
	}

	position, err := h.portfolioSvc.CoinStats(c.Request.Context(), userID, walletID, c.Param("coinSymbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.NewPositionResponse(*position))
}

// CoinChart handles GET .../transactions/coins/:coinSymbol/chart?from=.
func (h *PortfolioHandler) CoinChart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	walletID, ok := pathUUID(c, "walletId")
	if !ok {
		return
	}

	var q dto.ChartQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, apperror.Validation(err.Error()))
		return
	}
	from, err := q.ParseFrom()
	if err != nil {
		respondError(c, apperror.Validation(err.Error()))
		return
	}

	chart, err := h.portfolioSvc.CoinChart(c.Request.Context(), userID, walletID, c.Param("coinSymbol"), from)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.NewChartResponse(chart))
}
