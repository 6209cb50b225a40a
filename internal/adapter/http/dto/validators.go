package dto

import (
	"reflect"
	"strings"
	"unicode"

	"wallet-ledger/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("idempotency_key", validateIdempotencyKey)
	}
}

// validateIdempotencyKey accepts non-blank keys of at most 255 bytes without control characters.
func validateIdempotencyKey(fl validator.FieldLevel) bool {
	return IsValidIdempotencyKey(fl.Field().String())
}

// IsValidIdempotencyKey reports whether key is acceptable as an idempotency key.
func IsValidIdempotencyKey(key string) bool {
	k, err := domain.NormalizeIdempotencyKey(key)
	if err != nil {
		return false
	}
	return strings.IndexFunc(k, unicode.IsControl) < 0
}

// TrimStrings trims surrounding whitespace from every exported string
// field (including *string) of a struct pointer. Values are otherwise left
// untouched: idempotency keys are compared byte for byte.
func TrimStrings(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	trimFields(rv.Elem())
}

func trimFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(strings.TrimSpace(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(strings.TrimSpace(elem.String()))
			}
		}
	}
}
