package dto

import (
	"reflect"
	"strings"
	"unicode"

	"coin-ledger/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("idempotency_key", validateIdempotencyKey)
		_ = v.RegisterValidation("coin_symbol", validateCoinSymbol)
		_ = v.RegisterValidation("wallet_name", validateWalletName)
	}
}

// validateIdempotencyKey accepts visible ASCII only, so keys embed safely
// in Redis key names and log lines.
func validateIdempotencyKey(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	if key == "" {
		return false
	}
	for _, r := range key {
		if r <= ' ' || r > '~' {
			return false
		}
	}
	return true
}

func validateCoinSymbol(fl validator.FieldLevel) bool {
	_, err := domain.ParseCoinSymbol(fl.Field().String())
	return err == nil
}

func validateWalletName(fl validator.FieldLevel) bool {
	_, err := domain.ParseWalletName(fl.Field().String())
	return err == nil
}

// IdempotencyKey is bound from the Idempotency-Key header.
type IdempotencyKey struct {
	Key string `header:"Idempotency-Key" binding:"omitempty,max=100,idempotency_key"`
}

// NormalizeText cleans every exported string and *string field of a struct
// pointer: control characters are dropped, whitespace runs collapse to one
// space and the ends are trimmed. Values are stored as typed; escaping is
// left to whoever renders them.
func NormalizeText(v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return
	}
	rv = rv.Elem()
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.Pointer && !f.IsNil() {
			f = f.Elem()
		}
		if f.Kind() == reflect.String && f.CanSet() {
			f.SetString(normalizeText(f.String()))
		}
	}
}

func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case unicode.IsControl(r):
		default:
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
