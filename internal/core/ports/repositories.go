package ports

import (
	"context"
	"time"

	"tappay/internal/core/domain"

	"github.com/shopspring/decimal"
)

// The repositories below form the persistence gateway. Each method is a
// single store call that either fully succeeds or fully fails; the
// gateway gives no multi-statement transaction guarantee. The ledger
// compensates for partial failures itself.

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create inserts the user and assigns its ID.
	Create(ctx context.Context, u *domain.User) error
	// GetByID returns nil, nil when no user exists.
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// WalletRepository defines persistence operations for wallets.
// Debit and Credit are conditional single-statement mutations: the
// returned bool reports whether the store applied the change (a debit is
// refused when it would drive the balance negative; both are refused when
// the wallet row is missing).
type WalletRepository interface {
	Create(ctx context.Context, w *domain.Wallet) error
	GetByUserID(ctx context.Context, userID int64) (*domain.Wallet, error)
	Debit(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error)
	Credit(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error)
}

// CardRepository defines persistence operations for cards.
type CardRepository interface {
	Create(ctx context.Context, c *domain.Card) error
	GetByID(ctx context.Context, id int64) (*domain.Card, error)
	GetByUID(ctx context.Context, cardUID string) (*domain.Card, error)
	ListByUserID(ctx context.Context, userID int64) ([]domain.Card, error)
	CountActiveByUserID(ctx context.Context, userID int64) (int, error)
	// NameExistsForUser compares display names case-insensitively.
	NameExistsForUser(ctx context.Context, userID int64, name string) (bool, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

// MerchantRepository defines persistence operations for merchants.
type MerchantRepository interface {
	Create(ctx context.Context, m *domain.Merchant) error
	GetByID(ctx context.Context, id int64) (*domain.Merchant, error)
	GetByCode(ctx context.Context, code string) (*domain.Merchant, error)
	List(ctx context.Context) ([]domain.Merchant, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// TransactionRepository defines persistence operations for ledger records.
type TransactionRepository interface {
	// Insert persists the record and assigns its ID.
	Insert(ctx context.Context, t *domain.Transaction) error
	// InsertPair persists both legs of a transfer in one store call.
	InsertPair(ctx context.Context, out, in *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	GetByReference(ctx context.Context, referenceCode string) (*domain.Transaction, error)
	// UpdateStatus moves a PENDING record to a terminal status, setting
	// processedAt. The store refuses the update for non-PENDING rows.
	UpdateStatus(ctx context.Context, id int64, status domain.TransactionStatus, processedAt time.Time) (bool, error)
	// HasRefundFor reports whether a refund already references the given
	// original transaction.
	HasRefundFor(ctx context.Context, originalTransactionID int64) (bool, error)
	// SumSuccessfulPaymentsToday sums SUCCESS PAYMENT amounts for the
	// current calendar day.
	SumSuccessfulPaymentsToday(ctx context.Context, userID int64) (decimal.Decimal, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	UserID   int64
	Status   *domain.TransactionStatus
	Type     *domain.TransactionType
	Page     int
	PageSize int
}

// SessionStore tracks login sessions, replacing the source system's
// process-global session state with an explicit, revocable store.
type SessionStore interface {
	Create(ctx context.Context, sessionID string, userID int64, ttl time.Duration) error
	// Get returns 0, nil for an unknown or expired session.
	Get(ctx context.Context, sessionID string) (int64, error)
	Revoke(ctx context.Context, sessionID string) error
}
