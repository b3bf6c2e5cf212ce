package service

import (
	"context"
	"fmt"

	"tappay/internal/core/domain"
	"tappay/internal/core/ports"
	"tappay/pkg/apperror"

	"github.com/shopspring/decimal"
)

// ReportingServiceImpl implements ports.ReportingService.
type ReportingServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
}

// NewReportingService creates a new ReportingServiceImpl.
func NewReportingService(walletRepo ports.WalletRepository, txRepo ports.TransactionRepository) *ReportingServiceImpl {
	return &ReportingServiceImpl{walletRepo: walletRepo, txRepo: txRepo}
}

// GetWalletBalance returns the current balance and currency of a user's wallet.
func (s *ReportingServiceImpl) GetWalletBalance(ctx context.Context, userID int64) (decimal.Decimal, string, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return decimal.Zero, "", apperror.InternalError(fmt.Errorf("find wallet: %w", err))
	}
	if wallet == nil {
		return decimal.Zero, "", apperror.ErrNotFound("wallet")
	}
	return wallet.Balance, wallet.Currency, nil
}

// GetDailySpend returns the sum of today's successful payments.
func (s *ReportingServiceImpl) GetDailySpend(ctx context.Context, userID int64) (decimal.Decimal, error) {
	spent, err := s.txRepo.SumSuccessfulPaymentsToday(ctx, userID)
	if err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("sum daily spend: %w", err))
	}
	return spent, nil
}

// ListTransactions returns a page of the user's transaction history,
// newest first, with the total match count.
func (s *ReportingServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, total, nil
}

// GetTransaction returns a single transaction owned by the user.
func (s *ReportingServiceImpl) GetTransaction(ctx context.Context, transactionID, userID int64) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	if !txn.BelongsTo(userID) {
		return nil, apperror.ErrNotOwner("transaction")
	}
	return txn, nil
}
