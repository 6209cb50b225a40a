package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxIdempotencyKeyLength matches the key column width in the store.
const MaxIdempotencyKeyLength = 255

// IdempotencyKey records that an operation carrying Key was accepted.
// Keys are committed at most once and never deleted.
type IdempotencyKey struct {
	Key           string    `json:"key"`
	TransactionID uuid.UUID `json:"transaction_id"` // record produced by the accepted operation
	CreatedAt     time.Time `json:"created_at"`
}

// NormalizeIdempotencyKey trims the caller-supplied key and rejects empty or oversized keys.
func NormalizeIdempotencyKey(key string) (string, error) {
	k := strings.TrimSpace(key)
	if k == "" {
		return "", fmt.Errorf("%w: key is required", ErrInvalidIdempotencyKey)
	}
	if len(k) > MaxIdempotencyKeyLength {
		return "", fmt.Errorf("%w: key exceeds %d bytes", ErrInvalidIdempotencyKey, MaxIdempotencyKeyLength)
	}
	return k, nil
}
