package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypePayment     TransactionType = "PAYMENT"
	TransactionTypeRefund      TransactionType = "REFUND"
	TransactionTypeDeposit     TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal  TransactionType = "WITHDRAWAL"
	TransactionTypeTransferIn  TransactionType = "TRANSFER_IN"
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT"
)

// TransactionStatus represents the lifecycle state of a transaction.
// Transitions are one-way: PENDING -> SUCCESS | FAILED | CANCELLED.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusSuccess   TransactionStatus = "SUCCESS"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// Transaction is an immutable ledger record. Once created, only the
// status and ProcessedAt change, exactly once, when the record reaches a
// terminal state. A refund carries an explicit reference to the payment
// it reverses in addition to the description text.
type Transaction struct {
	ID                    int64             `json:"id"`
	ReferenceCode         string            `json:"reference_code"`
	UserID                int64             `json:"user_id"`
	CardID                *int64            `json:"card_id,omitempty"`
	MerchantID            *int64            `json:"merchant_id,omitempty"`
	OriginalTransactionID *int64            `json:"original_transaction_id,omitempty"`
	Amount                decimal.Decimal   `json:"amount"`
	Type                  TransactionType   `json:"type"`
	Status                TransactionStatus `json:"status"`
	Description           string            `json:"description"`
	CreatedAt             time.Time         `json:"created_at"`
	ProcessedAt           *time.Time        `json:"processed_at,omitempty"`
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusSuccess ||
		t.Status == TransactionStatusFailed ||
		t.Status == TransactionStatusCancelled
}

// IsRefundable returns true if this transaction can be refunded,
// ignoring the refund window.
func (t *Transaction) IsRefundable() bool {
	return t.Type == TransactionTypePayment &&
		t.Status == TransactionStatusSuccess
}

// BelongsTo reports whether the transaction was made by the given user.
func (t *Transaction) BelongsTo(userID int64) bool {
	return t.UserID == userID
}
