package apperror

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// Kind classifies an error for callers that dispatch on behavior rather
// than on individual codes.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindState         Kind = "state"
	KindLimitExceeded Kind = "limit_exceeded"
	KindPersistence   Kind = "persistence"
)

// LimitDetail carries the numeric context of a failed limit check so the
// UI can show the cap, what was attempted, and what was available.
type LimitDetail struct {
	Limit     decimal.Decimal  `json:"limit"`
	Attempted decimal.Decimal  `json:"attempted"`
	Available *decimal.Decimal `json:"available,omitempty"`
}

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Kind       Kind         `json:"kind"`
	Code       string       `json:"error_code"`
	Message    string       `json:"message"`
	HTTPStatus int          `json:"-"`
	Limit      *LimitDetail `json:"limit,omitempty"`
	Err        error        `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(kind Kind, code string, message string, httpStatus int) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(kind Kind, code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

func Validation(message string) *AppError {
	return New(KindValidation, "VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount(message string) *AppError {
	return New(KindValidation, "VAL_002", message, http.StatusBadRequest)
}

func ErrInvalidEmail() *AppError {
	return New(KindValidation, "VAL_003", "Invalid email address", http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New(KindValidation, "VAL_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Authorization (AUTHZ) ----

func ErrNotOwner(entity string) *AppError {
	return New(KindAuthorization, "AUTHZ_001", fmt.Sprintf("%s does not belong to this user", entity), http.StatusForbidden)
}

func ErrInvalidCredentials() *AppError {
	return New(KindAuthorization, "AUTHZ_002", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New(KindAuthorization, "AUTHZ_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- State (STATE) ----

func ErrInactive(entity string) *AppError {
	return New(KindState, "STATE_001", fmt.Sprintf("%s is not active", entity), http.StatusConflict)
}

func ErrNotRefundable() *AppError {
	return New(KindState, "STATE_002", "Transaction is not a refundable successful payment", http.StatusConflict)
}

func ErrRefundWindowExpired() *AppError {
	return New(KindState, "STATE_003", "Refund window expired", http.StatusConflict)
}

func ErrNotCancellable() *AppError {
	return New(KindState, "STATE_004", "Only pending transactions can be cancelled", http.StatusConflict)
}

func ErrDuplicate(entity string) *AppError {
	return New(KindState, "STATE_005", fmt.Sprintf("%s already exists", entity), http.StatusConflict)
}

// ---- Limits (LIM) ----

func limitErr(code, message string, limit, attempted decimal.Decimal, available *decimal.Decimal) *AppError {
	e := New(KindLimitExceeded, code, message, http.StatusUnprocessableEntity)
	e.Limit = &LimitDetail{Limit: limit, Attempted: attempted, Available: available}
	return e
}

func ErrInsufficientFunds(balance, attempted decimal.Decimal) *AppError {
	return limitErr("LIM_001", "insufficient funds", balance, attempted, &balance)
}

func ErrDailyCapExceeded(cap, attempted, spent decimal.Decimal) *AppError {
	remaining := cap.Sub(spent)
	return limitErr("LIM_002", "Daily spending cap exceeded", cap, attempted, &remaining)
}

func ErrWalletCapExceeded(cap, attempted, balance decimal.Decimal) *AppError {
	headroom := cap.Sub(balance)
	return limitErr("LIM_003", "Wallet balance cap exceeded", cap, attempted, &headroom)
}

func ErrCardLimitReached(limit int) *AppError {
	return New(KindLimitExceeded, "LIM_004", fmt.Sprintf("A user may hold at most %d cards", limit), http.StatusUnprocessableEntity)
}

func ErrPaymentAmountOutOfRange(limit, attempted decimal.Decimal) *AppError {
	return limitErr("LIM_005", "Payment amount out of range", limit, attempted, nil)
}

func ErrDepositCapExceeded(limit, attempted decimal.Decimal) *AppError {
	return limitErr("LIM_006", "Deposit amount exceeds single-deposit cap", limit, attempted, nil)
}

func ErrWithdrawalOutOfBounds(limit, attempted decimal.Decimal) *AppError {
	return limitErr("LIM_007", "Withdrawal amount out of bounds", limit, attempted, nil)
}

func ErrTransferCapExceeded(limit, attempted decimal.Decimal) *AppError {
	return limitErr("LIM_008", "Transfer amount exceeds per-transfer cap", limit, attempted, nil)
}

func ErrAmountCapExceeded(limit, attempted decimal.Decimal) *AppError {
	return limitErr("LIM_009", "Amount exceeds maximum allowed", limit, attempted, nil)
}

// ---- Persistence (STORE) ----

func Persistence(op string, err error) *AppError {
	return Wrap(KindPersistence, "STORE_001", fmt.Sprintf("Storage operation failed: %s", op), http.StatusInternalServerError, err)
}

func ErrDebitNotApplied() *AppError {
	return New(KindPersistence, "STORE_002", "Wallet debit was not applied by the store", http.StatusInternalServerError)
}

func ErrCreditNotApplied() *AppError {
	return New(KindPersistence, "STORE_003", "Wallet credit was not applied by the store", http.StatusInternalServerError)
}

func ErrCompensationFailed(op string, err error) *AppError {
	return Wrap(KindPersistence, "STORE_004", fmt.Sprintf("Compensation failed after partial %s, manual reconciliation required", op), http.StatusInternalServerError, err)
}

// InternalError wraps an unexpected internal error.
func InternalError(err error) *AppError {
	return Wrap(KindPersistence, "STORE_001", "Internal server error", http.StatusInternalServerError, err)
}

// IsKind reports whether err is an *AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Kind == kind
}
