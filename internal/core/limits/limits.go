// Package limits holds the business limit policy: pure, stateless checks
// over exact decimal amounts. Each check returns nil on pass or a typed
// *apperror.AppError carrying the limit and the attempted value. Callers
// evaluate checks in a fixed order (existence/ownership, active-state,
// amount shape, balance, period caps); the first failure wins, so the
// reported reason is stable for multi-violation inputs.
package limits

import (
	"time"

	"tappay/pkg/apperror"

	"github.com/shopspring/decimal"
)

var (
	// MaxPaymentAmount caps a single payment.
	MaxPaymentAmount = decimal.NewFromInt(1000)
	// MaxAmount is the general upper bound for any single amount.
	MaxAmount = decimal.NewFromInt(10000)
	// DailySpendCap bounds the sum of successful payments per calendar day.
	DailySpendCap = decimal.NewFromInt(5000)
	// WalletBalanceCap bounds the balance after any credit.
	WalletBalanceCap = decimal.NewFromInt(10000)
	// MaxDepositAmount caps a single deposit.
	MaxDepositAmount = decimal.NewFromInt(2000)
	// MinWithdrawalAmount and MaxWithdrawalAmount bound a single withdrawal.
	MinWithdrawalAmount = decimal.NewFromInt(10)
	MaxWithdrawalAmount = decimal.NewFromInt(1000)
	// MaxTransferAmount caps a single transfer.
	MaxTransferAmount = decimal.NewFromInt(500)
)

const (
	// MaxActiveCards is the per-user active card cap.
	MaxActiveCards = 5
	// RefundWindow is how long after creation a payment stays refundable.
	RefundWindow = 30 * 24 * time.Hour
)

// CheckPositiveAmount rejects zero and negative amounts.
func CheckPositiveAmount(amount decimal.Decimal) *apperror.AppError {
	if amount.LessThanOrEqual(decimal.Zero) {
		return apperror.ErrInvalidAmount("amount must be positive")
	}
	return nil
}

// CheckAmount applies the general amount bound: 0 < amount <= 10000.
func CheckAmount(amount decimal.Decimal) *apperror.AppError {
	if err := CheckPositiveAmount(amount); err != nil {
		return err
	}
	if amount.GreaterThan(MaxAmount) {
		return apperror.ErrAmountCapExceeded(MaxAmount, amount)
	}
	return nil
}

// CheckPaymentAmount applies the payment bound: 0 < amount <= 1000.
func CheckPaymentAmount(amount decimal.Decimal) *apperror.AppError {
	if err := CheckPositiveAmount(amount); err != nil {
		return err
	}
	if amount.GreaterThan(MaxPaymentAmount) {
		return apperror.ErrPaymentAmountOutOfRange(MaxPaymentAmount, amount)
	}
	return nil
}

// CheckDailyCap verifies that spentToday + amount stays within the daily cap.
func CheckDailyCap(spentToday, amount decimal.Decimal) *apperror.AppError {
	if spentToday.Add(amount).GreaterThan(DailySpendCap) {
		return apperror.ErrDailyCapExceeded(DailySpendCap, amount, spentToday)
	}
	return nil
}

// CheckSufficientBalance verifies the balance floor before a debit.
func CheckSufficientBalance(balance, amount decimal.Decimal) *apperror.AppError {
	if balance.LessThan(amount) {
		return apperror.ErrInsufficientFunds(balance, amount)
	}
	return nil
}

// CheckWalletCeiling verifies that a credit keeps the balance at or below
// the wallet cap.
func CheckWalletCeiling(balance, amount decimal.Decimal) *apperror.AppError {
	if balance.Add(amount).GreaterThan(WalletBalanceCap) {
		return apperror.ErrWalletCapExceeded(WalletBalanceCap, amount, balance)
	}
	return nil
}

// CheckCardCount verifies the active card cap before adding a new card.
func CheckCardCount(activeCards int) *apperror.AppError {
	if activeCards >= MaxActiveCards {
		return apperror.ErrCardLimitReached(MaxActiveCards)
	}
	return nil
}

// CheckDepositAmount applies the single-deposit bound.
func CheckDepositAmount(amount decimal.Decimal) *apperror.AppError {
	if err := CheckPositiveAmount(amount); err != nil {
		return err
	}
	if amount.GreaterThan(MaxDepositAmount) {
		return apperror.ErrDepositCapExceeded(MaxDepositAmount, amount)
	}
	return nil
}

// CheckWithdrawalAmount applies the withdrawal bounds: 10 <= amount <= 1000.
func CheckWithdrawalAmount(amount decimal.Decimal) *apperror.AppError {
	if amount.LessThan(MinWithdrawalAmount) {
		return apperror.ErrWithdrawalOutOfBounds(MinWithdrawalAmount, amount)
	}
	if amount.GreaterThan(MaxWithdrawalAmount) {
		return apperror.ErrWithdrawalOutOfBounds(MaxWithdrawalAmount, amount)
	}
	return nil
}

// CheckTransferAmount applies the per-transfer bound.
func CheckTransferAmount(amount decimal.Decimal) *apperror.AppError {
	if err := CheckPositiveAmount(amount); err != nil {
		return err
	}
	if amount.GreaterThan(MaxTransferAmount) {
		return apperror.ErrTransferCapExceeded(MaxTransferAmount, amount)
	}
	return nil
}

// CheckRefundWindow verifies the original payment is recent enough to refund.
func CheckRefundWindow(createdAt, now time.Time) *apperror.AppError {
	if now.Sub(createdAt) > RefundWindow {
		return apperror.ErrRefundWindowExpired()
	}
	return nil
}
