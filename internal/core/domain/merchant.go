package domain

import (
	"strings"
	"time"
)

// Merchant represents a payment acceptor. The code is unique and stored
// normalized upper-case; the active flag gates payment acceptance.
type Merchant struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeMerchantCode canonicalizes a merchant code for storage and lookup.
func NormalizeMerchantCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
