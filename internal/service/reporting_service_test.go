package service

import (
	"context"
	"testing"

	"tappay/internal/core/domain"
	"tappay/internal/core/ports"
	"tappay/internal/core/ports/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupReportingService(t *testing.T) (*ReportingServiceImpl, *mocks.MockWalletRepository, *mocks.MockTransactionRepository) {
	ctrl := gomock.NewController(t)
	walletRepo := mocks.NewMockWalletRepository(ctrl)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	return NewReportingService(walletRepo, txRepo), walletRepo, txRepo
}

func TestReporting_GetWalletBalance(t *testing.T) {
	svc, walletRepo, _ := setupReportingService(t)
	ctx := context.Background()

	walletRepo.EXPECT().GetByUserID(ctx, int64(1)).Return(walletWith(1, "123.45"), nil)

	balance, currency, err := svc.GetWalletBalance(ctx, 1)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("123.45")))
	assert.Equal(t, domain.DefaultCurrency, currency)
}

func TestReporting_GetWalletBalance_Missing(t *testing.T) {
	svc, walletRepo, _ := setupReportingService(t)
	ctx := context.Background()

	walletRepo.EXPECT().GetByUserID(ctx, int64(1)).Return(nil, nil)

	_, _, err := svc.GetWalletBalance(ctx, 1)
	assertAppError(t, err, "VAL_004")
}

func TestReporting_GetDailySpend(t *testing.T) {
	svc, _, txRepo := setupReportingService(t)
	ctx := context.Background()

	txRepo.EXPECT().SumSuccessfulPaymentsToday(ctx, int64(1)).Return(dec("77.50"), nil)

	spent, err := svc.GetDailySpend(ctx, 1)
	require.NoError(t, err)
	assert.True(t, spent.Equal(dec("77.50")))
}

func TestReporting_ListTransactions_ClampsPaging(t *testing.T) {
	svc, _, txRepo := setupReportingService(t)
	ctx := context.Background()

	txRepo.EXPECT().List(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
			assert.Equal(t, 1, params.Page)
			assert.Equal(t, 20, params.PageSize)
			return []domain.Transaction{}, 0, nil
		})

	_, total, err := svc.ListTransactions(ctx, ports.TransactionListParams{UserID: 1, Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestReporting_GetTransaction_Ownership(t *testing.T) {
	svc, _, txRepo := setupReportingService(t)
	ctx := context.Background()

	txn := &domain.Transaction{ID: 40, UserID: 2, Amount: decimal.NewFromInt(5)}
	txRepo.EXPECT().GetByID(ctx, int64(40)).Return(txn, nil)

	_, err := svc.GetTransaction(ctx, 40, 1)
	assertAppError(t, err, "AUTHZ_001")
}
