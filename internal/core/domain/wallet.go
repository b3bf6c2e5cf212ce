package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is assigned to wallets created at registration.
const DefaultCurrency = "EUR"

// Wallet holds a user's balance. Exactly one wallet exists per user,
// created at registration with a zero balance. The balance is a
// non-negative fixed-point decimal (2 places) and is mutated only through
// ledger debit/credit operations, never directly.
type Wallet struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CanCover reports whether the balance covers the given amount.
func (w *Wallet) CanCover(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}
