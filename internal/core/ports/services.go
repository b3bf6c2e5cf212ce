package ports

import (
	"context"
	"time"

	"tappay/internal/core/domain"

	"github.com/shopspring/decimal"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID int64, sessionID string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID    int64
	SessionID string
}

// --- Service Ports (Business Logic) ---

// LedgerService is the payment/wallet transaction core. Every operation
// validates its limits in a fixed order, performs the minimal mutation
// sequence through the persistence gateway, and compensates with the
// inverse mutation when a later step fails after funds have moved.
type LedgerService interface {
	ProcessPayment(ctx context.Context, req PaymentRequest) (*domain.Transaction, error)
	RefundPayment(ctx context.Context, req RefundRequest) (*domain.Transaction, error)
	AddFunds(ctx context.Context, req DepositRequest) (*domain.Transaction, error)
	WithdrawFunds(ctx context.Context, req WithdrawalRequest) (*domain.Transaction, error)
	TransferFunds(ctx context.Context, req TransferRequest) (*domain.Transaction, error)
	CancelTransaction(ctx context.Context, transactionID, userID int64) (*domain.Transaction, error)
}

// PaymentRequest holds validated input for payment processing.
type PaymentRequest struct {
	UserID      int64
	CardID      int64
	MerchantID  int64
	Amount      decimal.Decimal
	Description string
}

// RefundRequest holds validated input for refund processing.
type RefundRequest struct {
	TransactionID int64
	UserID        int64
	Reason        string
}

// DepositRequest holds validated input for adding funds.
type DepositRequest struct {
	UserID      int64
	Amount      decimal.Decimal
	Description string
}

// WithdrawalRequest holds validated input for withdrawing funds.
type WithdrawalRequest struct {
	UserID      int64
	Amount      decimal.Decimal
	Description string
}

// TransferRequest holds validated input for a wallet-to-wallet transfer.
type TransferRequest struct {
	FromUserID  int64
	ToUserID    int64
	Amount      decimal.Decimal
	Description string
}

// AuthService defines registration, login and account lifecycle.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	Deactivate(ctx context.Context, userID int64) error
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Email    string
	FullName string
	Password string
}

// LoginResult holds the issued token and its expiry.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// CardService defines card management business logic.
type CardService interface {
	AddCard(ctx context.Context, req AddCardRequest) (*domain.Card, error)
	ListCards(ctx context.Context, userID int64) ([]domain.Card, error)
	DeactivateCard(ctx context.Context, cardID, userID int64) error
	RemoveCard(ctx context.Context, cardID, userID int64) error
}

// AddCardRequest holds input for registering a card.
type AddCardRequest struct {
	UserID  int64
	CardUID string
	Name    string
	Type    domain.CardType
}

// MerchantService defines merchant management business logic.
type MerchantService interface {
	RegisterMerchant(ctx context.Context, req RegisterMerchantRequest) (*domain.Merchant, error)
	ListMerchants(ctx context.Context) ([]domain.Merchant, error)
	SetMerchantActive(ctx context.Context, merchantID int64, active bool) error
}

// RegisterMerchantRequest holds input for merchant onboarding.
type RegisterMerchantRequest struct {
	Code     string
	Name     string
	Category string
}

// ReportingService defines history/balance read models.
type ReportingService interface {
	GetWalletBalance(ctx context.Context, userID int64) (decimal.Decimal, string, error)
	GetDailySpend(ctx context.Context, userID int64) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetTransaction(ctx context.Context, transactionID, userID int64) (*domain.Transaction, error)
}
