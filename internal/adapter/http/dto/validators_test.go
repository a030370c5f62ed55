package dto

import (
	"strings"
	"testing"

	"coin-ledger/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"  Main  ", "Main"},
		{"Cold\t\tstorage", "Cold storage"},
		{"Tom & Jerry <3", "Tom & Jerry <3"},
		{"Long\x00term\x1b", "Longterm"},
		{" \n ", ""},
	}
	for _, tt := range tests {
		req := CreateWalletRequest{Name: tt.raw}
		NormalizeText(&req)
		assert.Equal(t, tt.want, req.Name, "%q", tt.raw)
	}
}

func TestNormalizeText_PointerFields(t *testing.T) {
	side := "  sell "
	req := UpdateTransactionRequest{Side: &side}
	NormalizeText(&req)

	assert.Equal(t, "sell", *req.Side)
	assert.Nil(t, req.Quantity)

	NormalizeText("not a struct pointer")
}

func TestWalletNameValidation(t *testing.T) {
	assert.NoError(t, binding.Validator.ValidateStruct(&CreateWalletRequest{Name: "Main"}))
	assert.NoError(t, binding.Validator.ValidateStruct(&RenameWalletRequest{Name: strings.Repeat("é", domain.MaxWalletNameLength)}))

	for _, name := range []string{"", "   ", strings.Repeat("x", domain.MaxWalletNameLength+1)} {
		assert.Error(t, binding.Validator.ValidateStruct(&CreateWalletRequest{Name: name}), "%q", name)
	}
}

func TestCoinSymbolValidation(t *testing.T) {
	qty, price := decimal.NewFromInt(1), decimal.NewFromInt(100)

	valid := CreateTransactionRequest{CoinSymbol: "BTC", Side: "buy", Quantity: &qty, Price: &price}
	assert.NoError(t, binding.Validator.ValidateStruct(&valid))

	for _, symbol := range []string{"bt c", "<btc>", "averyveryverylongcoinsymbol"} {
		req := valid
		req.CoinSymbol = symbol
		assert.Error(t, binding.Validator.ValidateStruct(&req), symbol)
	}

	missing := CreateTransactionRequest{CoinSymbol: "btc", Side: "buy", Price: &price}
	assert.Error(t, binding.Validator.ValidateStruct(&missing))
}

func TestIdempotencyKeyValidation(t *testing.T) {
	assert.NoError(t, binding.Validator.ValidateStruct(&IdempotencyKey{}))
	for _, key := range []string{"order-42", "0b9c5d3e-7a3c-4c1f-9d55-1f1f7d0f4b7a", "buy:btc/2024.01"} {
		assert.NoError(t, binding.Validator.ValidateStruct(&IdempotencyKey{Key: key}), key)
	}
	for _, key := range []string{"order 42", "line\nbreak", "caf\u00e9", strings.Repeat("k", 101)} {
		assert.Error(t, binding.Validator.ValidateStruct(&IdempotencyKey{Key: key}), "%q", key)
	}
}
