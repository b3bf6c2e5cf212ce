package dto

import (
	"tappay/internal/core/domain"
)

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,max=254"`
	FullName string `json:"full_name" binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string       `json:"token"`
	Expiry int64        `json:"expiry"` // Unix timestamp
	User   UserResponse `json:"user"`
}

// UserResponse is the public view of a user account.
type UserResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Active   bool   `json:"active"`
}

// PaymentRequest is the request body for tap payments.
type PaymentRequest struct {
	CardID      int64  `json:"card_id" binding:"required,gt=0"`
	MerchantID  int64  `json:"merchant_id" binding:"required,gt=0"`
	Amount      string `json:"amount" binding:"required,money"`
	Description string `json:"description" binding:"max=255"`
}

// RefundRequest is the request body for refunding a payment. The payment
// being refunded is addressed by the URL path.
type RefundRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// DepositRequest is the request body for adding funds.
type DepositRequest struct {
	Amount      string `json:"amount" binding:"required,money"`
	Description string `json:"description" binding:"max=255"`
}

// WithdrawalRequest is the request body for withdrawing funds.
type WithdrawalRequest struct {
	Amount      string `json:"amount" binding:"required,money"`
	Description string `json:"description" binding:"max=255"`
}

// TransferRequest is the request body for a wallet-to-wallet transfer.
type TransferRequest struct {
	ToUserID    int64  `json:"to_user_id" binding:"required,gt=0"`
	Amount      string `json:"amount" binding:"required,money"`
	Description string `json:"description" binding:"max=255"`
}

// AddCardRequest is the request body for registering a card.
type AddCardRequest struct {
	CardUID string `json:"card_uid" binding:"required,max=64"`
	Name    string `json:"name" binding:"required,min=1,max=50"`
	Type    string `json:"type" binding:"required,oneof=VIRTUAL PHYSICAL"`
}

// CardResponse is the public view of a card.
type CardResponse struct {
	ID        int64  `json:"id"`
	CardUID   string `json:"card_uid"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

// RegisterMerchantRequest is the request body for merchant onboarding.
type RegisterMerchantRequest struct {
	Code     string `json:"code" binding:"required,min=2,max=32"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Category string `json:"category" binding:"max=50"`
}

// SetMerchantActiveRequest toggles a merchant's active flag.
type SetMerchantActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// MerchantResponse is the public view of a merchant.
type MerchantResponse struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Active   bool   `json:"active"`
}

// TransactionResponse is the response body for transaction results.
// Amounts are decimal strings.
type TransactionResponse struct {
	ID                    int64   `json:"id"`
	ReferenceCode         string  `json:"reference_code"`
	CardID                *int64  `json:"card_id,omitempty"`
	MerchantID            *int64  `json:"merchant_id,omitempty"`
	OriginalTransactionID *int64  `json:"original_transaction_id,omitempty"`
	Amount                string  `json:"amount"`
	Type                  string  `json:"type"`
	Status                string  `json:"status"`
	Description           string  `json:"description,omitempty"`
	CreatedAt             string  `json:"created_at"`
	ProcessedAt           *string `json:"processed_at,omitempty"`
}

// WalletBalanceResponse is the response for balance queries.
type WalletBalanceResponse struct {
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// DailySpendResponse is the response for the daily spend query.
type DailySpendResponse struct {
	Spent string `json:"spent"`
	Cap   string `json:"cap"`
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// ToUserResponse converts a domain user to its DTO.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Active:   u.Active,
	}
}

// ToCardResponse converts a domain card to its DTO.
func ToCardResponse(c *domain.Card) CardResponse {
	return CardResponse{
		ID:        c.ID,
		CardUID:   c.CardUID,
		Name:      c.Name,
		Type:      string(c.Type),
		Active:    c.Active,
		CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ToMerchantResponse converts a domain merchant to its DTO.
func ToMerchantResponse(m *domain.Merchant) MerchantResponse {
	return MerchantResponse{
		ID:       m.ID,
		Code:     m.Code,
		Name:     m.Name,
		Category: m.Category,
		Active:   m.Active,
	}
}

// ToTransactionResponse converts a domain transaction to its DTO.
func ToTransactionResponse(tx *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                    tx.ID,
		ReferenceCode:         tx.ReferenceCode,
		CardID:                tx.CardID,
		MerchantID:            tx.MerchantID,
		OriginalTransactionID: tx.OriginalTransactionID,
		Amount:                tx.Amount.StringFixed(2),
		Type:                  string(tx.Type),
		Status:                string(tx.Status),
		Description:           tx.Description,
		CreatedAt:             tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if tx.ProcessedAt != nil {
		s := tx.ProcessedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.ProcessedAt = &s
	}
	return resp
}
