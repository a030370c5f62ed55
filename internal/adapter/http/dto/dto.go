package dto

import (
	"errors"
	"time"

	"coin-ledger/internal/core/domain"
	"coin-ledger/internal/core/ledger"
	"coin-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Requests ---

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	Name string `json:"name" binding:"required,wallet_name"`
}

// RenameWalletRequest is the request body for renaming a wallet.
type RenameWalletRequest struct {
	Name string `json:"name" binding:"required,wallet_name"`
}

// CreateTransactionRequest is the request body for recording a buy or sell.
// Decimals accept both JSON strings and numbers.
type CreateTransactionRequest struct {
	CoinSymbol string           `json:"coin_symbol" binding:"required,coin_symbol"`
	Side       string           `json:"buy_or_sell" binding:"required"`
	Quantity   *decimal.Decimal `json:"quantity" binding:"required"`
	Price      *decimal.Decimal `json:"price" binding:"required"`
	OccurredAt *time.Time       `json:"occurred_at,omitempty"`
}

// ToPorts converts the body into a service request.
func (r CreateTransactionRequest) ToPorts(userID, walletID uuid.UUID, idempotencyKey string) (ports.CreateTransactionRequest, error) {
	side, err := domain.ParseSide(r.Side)
	if err != nil {
		return ports.CreateTransactionRequest{}, err
	}
	return ports.CreateTransactionRequest{
		UserID:         userID,
		WalletID:       walletID,
		CoinSymbol:     r.CoinSymbol,
		Side:           side,
		Quantity:       *r.Quantity,
		Price:          *r.Price,
		OccurredAt:     r.OccurredAt,
		IdempotencyKey: idempotencyKey,
	}, nil
}

// UpdateTransactionRequest is a partial edit; absent fields stay unchanged.
type UpdateTransactionRequest struct {
	CoinSymbol *string          `json:"coin_symbol,omitempty"`
	WalletID   *string          `json:"wallet_id,omitempty"`
	Side       *string          `json:"buy_or_sell,omitempty"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	OccurredAt *time.Time       `json:"occurred_at,omitempty"`
}

// ErrImmutableField is returned for edits of the coin or wallet of an entry.
var ErrImmutableField = errors.New("coin_symbol and wallet_id cannot be changed")

// ToPatch converts the body into a domain patch.
func (r UpdateTransactionRequest) ToPatch() (domain.TransactionPatch, error) {
	if r.CoinSymbol != nil || r.WalletID != nil {
		return domain.TransactionPatch{}, ErrImmutableField
	}
	patch := domain.TransactionPatch{
		Quantity:   r.Quantity,
		Price:      r.Price,
		OccurredAt: r.OccurredAt,
	}
	if r.Side != nil {
		side, err := domain.ParseSide(*r.Side)
		if err != nil {
			return domain.TransactionPatch{}, err
		}
		patch.Side = &side
	}
	return patch, nil
}

// PageQuery holds pagination query parameters.
type PageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1,max=1000000"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ChartQuery holds the optional lower bound of a coin chart (RFC 3339).
type ChartQuery struct {
	From string `form:"from"`
}

// ParseFrom returns the zero time when no bound was given.
func (q ChartQuery) ParseFrom() (time.Time, error) {
	if q.From == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, q.From)
	if err != nil {
		return time.Time{}, errors.New("from must be an RFC 3339 timestamp")
	}
	return t, nil
}

// --- Responses ---

// WalletResponse is a wallet with its cached totals.
type WalletResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	TotalInvested    string    `json:"total_invested"`
	TotalRealizedPnL string    `json:"total_realized_pnl"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewWalletResponse maps a wallet.
func NewWalletResponse(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:               w.ID.String(),
		Name:             w.Name,
		TotalInvested:    moneyString(w.TotalInvested),
		TotalRealizedPnL: moneyString(w.TotalRealizedPnL),
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

// NewWalletList maps a list of wallets.
func NewWalletList(wallets []domain.Wallet) []WalletResponse {
	out := make([]WalletResponse, 0, len(wallets))
	for i := range wallets {
		out = append(out, NewWalletResponse(&wallets[i]))
	}
	return out
}

// TransactionResponse is one ledger entry. Total is price times quantity.
type TransactionResponse struct {
	ID         string    `json:"id"`
	WalletID   string    `json:"wallet_id"`
	CoinSymbol string    `json:"coin_symbol"`
	Side       string    `json:"buy_or_sell"`
	Quantity   string    `json:"quantity"`
	Price      string    `json:"price"`
	Total      string    `json:"total"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewTransactionResponse maps a transaction.
func NewTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:         t.ID.String(),
		WalletID:   t.WalletID.String(),
		CoinSymbol: t.CoinSymbol,
		Side:       string(t.Side),
		Quantity:   t.Quantity.String(),
		Price:      t.Price.String(),
		Total:      moneyString(t.Total()),
		OccurredAt: t.OccurredAt,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

// NewTransactionList maps a list of transactions.
func NewTransactionList(txs []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for i := range txs {
		out = append(out, NewTransactionResponse(&txs[i]))
	}
	return out
}

// PageMeta describes one page of a paginated listing.
type PageMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	LastPage int   `json:"last_page"`
	PerPage  int   `json:"per_page"`
}

// NewPageMeta computes the last page; an empty listing has one empty page.
func NewPageMeta(total int64, page, perPage int) PageMeta {
	last := 1
	if perPage > 0 && total > 0 {
		last = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return PageMeta{Total: total, Page: page, LastPage: last, PerPage: perPage}
}

// TransactionPage is a page of transactions with its meta.
type TransactionPage struct {
	Data []TransactionResponse `json:"data"`
	Meta PageMeta              `json:"meta"`
}

// PositionResponse holds the figures of one coin of a wallet.
type PositionResponse struct {
	CoinSymbol       string  `json:"coin_symbol"`
	TotalQuantity    string  `json:"total_quantity"`
	AvgBuyingPrice   string  `json:"avg_buying_price"`
	Invested         string  `json:"invested"`
	RealizedPnL      string  `json:"realized_pnl"`
	TotalBuyQuantity string  `json:"total_buy_quantity"`
	TotalSellQty     string  `json:"total_sell_quantity"`
	Transactions     int     `json:"transactions"`
	CurrentPrice     *string `json:"current_price"`
	CurrentValue     string  `json:"current_value"`
	UnrealizedPnL    string  `json:"unrealized_pnl"`
}

// NewProjectionResponse maps a projection without market data.
func NewProjectionResponse(p ledger.Projection) PositionResponse {
	return PositionResponse{
		CoinSymbol:       p.CoinSymbol,
		TotalQuantity:    quantityString(p.Quantity),
		AvgBuyingPrice:   moneyString(p.AvgBuyingPrice()),
		Invested:         moneyString(p.Invested()),
		RealizedPnL:      moneyString(p.RealizedPnL),
		TotalBuyQuantity: quantityString(p.TotalBuyQty),
		TotalSellQty:     quantityString(p.TotalSellQty),
		Transactions:     p.Transactions,
		CurrentValue:     moneyString(decimal.Zero),
		UnrealizedPnL:    moneyString(decimal.Zero),
	}
}

// NewPositionResponse maps a priced position. An unknown price renders as null.
func NewPositionResponse(p ledger.Position) PositionResponse {
	out := NewProjectionResponse(p.Projection)
	if p.PriceKnown {
		price := p.CurrentPrice.String()
		out.CurrentPrice = &price
	}
	out.CurrentValue = moneyString(p.CurrentValue)
	out.UnrealizedPnL = moneyString(p.UnrealizedPnL)
	return out
}

// NewPositionList maps a list of positions.
func NewPositionList(positions []ledger.Position) []PositionResponse {
	out := make([]PositionResponse, 0, len(positions))
	for _, p := range positions {
		out = append(out, NewPositionResponse(p))
	}
	return out
}

// MutationResponse is returned by every ledger write.
type MutationResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Deleted     bool                `json:"deleted"`
	Position    PositionResponse    `json:"position"`
	Wallet      WalletTotals        `json:"wallet"`
}

// WalletTotals are the cached totals of a wallet after a mutation.
type WalletTotals struct {
	TotalInvested    string `json:"total_invested"`
	TotalRealizedPnL string `json:"total_realized_pnl"`
}

// NewMutationResponse maps a mutation result.
func NewMutationResponse(r *ports.MutationResult) MutationResponse {
	return MutationResponse{
		Transaction: NewTransactionResponse(&r.Transaction),
		Deleted:     r.Deleted,
		Position:    NewProjectionResponse(r.Position),
		Wallet: WalletTotals{
			TotalInvested:    moneyString(r.Wallet.TotalInvested),
			TotalRealizedPnL: moneyString(r.Wallet.TotalRealizedPnL),
		},
	}
}

// SummaryResponse is the portfolio view of one wallet.
type SummaryResponse struct {
	Currency         string             `json:"currency"`
	TotalInvested    string             `json:"total_invested"`
	TotalRealizedPnL string             `json:"total_realized_pnl"`
	CurrentValue     string             `json:"current_value"`
	UnrealizedPnL    string             `json:"unrealized_pnl"`
	TotalPnL         string             `json:"total_pnl"`
	Display          map[string]string  `json:"display,omitempty"`
	Positions        []PositionResponse `json:"positions"`
	MissingPrices    []string           `json:"missing_prices"`
}

// NewSummaryResponse maps a summary valued in the given currency.
func NewSummaryResponse(s *ledger.Summary, currency string) SummaryResponse {
	out := SummaryResponse{
		Currency:         currency,
		TotalInvested:    moneyString(s.TotalInvested),
		TotalRealizedPnL: moneyString(s.TotalRealizedPnL),
		CurrentValue:     moneyString(s.CurrentValue),
		UnrealizedPnL:    moneyString(s.UnrealizedPnL),
		TotalPnL:         moneyString(s.TotalPnL),
		Positions:        NewPositionList(s.Positions),
		MissingPrices:    s.MissingPrices,
	}
	if out.MissingPrices == nil {
		out.MissingPrices = []string{}
	}

	display := map[string]string{}
	for key, value := range map[string]decimal.Decimal{
		"total_invested":     s.TotalInvested,
		"total_realized_pnl": s.TotalRealizedPnL,
		"current_value":      s.CurrentValue,
		"unrealized_pnl":     s.UnrealizedPnL,
		"total_pnl":          s.TotalPnL,
	} {
		if formatted, ok := FormatMoney(value, currency); ok {
			display[key] = formatted
		}
	}
	if len(display) > 0 {
		out.Display = display
	}
	return out
}

// ChartPoint is one step of a coin's running quantity.
type ChartPoint struct {
	TransactionID   string    `json:"transaction_id"`
	OccurredAt      time.Time `json:"occurred_at"`
	Side            string    `json:"buy_or_sell"`
	Quantity        string    `json:"quantity"`
	RunningQuantity string    `json:"running_quantity"`
}

// ChartResponse is the running quantity of one coin over time.
type ChartResponse struct {
	CoinSymbol      string       `json:"coin_symbol"`
	InitialQuantity string       `json:"initial_quantity"`
	Points          []ChartPoint `json:"points"`
}

// NewChartResponse maps a coin chart.
func NewChartResponse(c *ports.CoinChart) ChartResponse {
	points := make([]ChartPoint, 0, len(c.Points))
	for _, p := range c.Points {
		points = append(points, ChartPoint{
			TransactionID:   p.TransactionID.String(),
			OccurredAt:      p.OccurredAt,
			Side:            string(p.Side),
			Quantity:        quantityString(p.Quantity),
			RunningQuantity: quantityString(p.RunningQuantity),
		})
	}
	return ChartResponse{
		CoinSymbol:      c.CoinSymbol,
		InitialQuantity: quantityString(c.InitialQuantity),
		Points:          points,
	}
}

// HealthResponse reports the state of every dependency.
type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

func moneyString(d decimal.Decimal) string {
	return ledger.RoundMoney(d).StringFixed(ledger.MoneyPlaces)
}

func quantityString(d decimal.Decimal) string {
	return ledger.RoundQuantity(d).String()
}
