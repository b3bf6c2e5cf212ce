package service

import (
	"context"
	"fmt"
	"time"

	"tappay/internal/core/domain"
	"tappay/internal/core/limits"
	"tappay/internal/core/ports"
	"tappay/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerServiceImpl implements ports.LedgerService.
//
// The persistence gateway guarantees atomicity per call only, so every
// money movement here is a sequence of single mutations with an explicit
// compensation path: when a step fails after funds have already moved,
// the inverse mutation restores the pre-operation balance. A failed
// compensation is logged and surfaced as unrecoverable; it is never
// retried.
type LedgerServiceImpl struct {
	userRepo     ports.UserRepository
	cardRepo     ports.CardRepository
	merchantRepo ports.MerchantRepository
	walletRepo   ports.WalletRepository
	txRepo       ports.TransactionRepository
	log          zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	userRepo ports.UserRepository,
	cardRepo ports.CardRepository,
	merchantRepo ports.MerchantRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		userRepo:     userRepo,
		cardRepo:     cardRepo,
		merchantRepo: merchantRepo,
		walletRepo:   walletRepo,
		txRepo:       txRepo,
		log:          log,
	}
}

// newReferenceCode returns a globally unique transaction reference.
func newReferenceCode() string {
	return "TXN-" + uuid.NewString()
}

// requireActiveUser loads a user and verifies it exists and is active.
func (s *LedgerServiceImpl) requireActiveUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.Persistence("get user", err)
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}
	if !user.Active {
		return nil, apperror.ErrInactive("user")
	}
	return user, nil
}

// requireWallet loads the user's wallet.
func (s *LedgerServiceImpl) requireWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.Persistence("get wallet", err)
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// ProcessPayment moves funds from a user's wallet to a merchant.
//
// Check order: user exists & active -> card exists, owned, active ->
// merchant exists & active -> amount shape -> balance floor -> daily cap.
// Mutations: debit wallet, then insert the SUCCESS record. A failed
// insert after a successful debit is compensated by crediting the amount
// back; a refused debit persists a FAILED record (no funds moved).
func (s *LedgerServiceImpl) ProcessPayment(ctx context.Context, req ports.PaymentRequest) (*domain.Transaction, error) {
	if _, err := s.requireActiveUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	card, err := s.cardRepo.GetByID(ctx, req.CardID)
	if err != nil {
		return nil, apperror.Persistence("get card", err)
	}
	if card == nil {
		return nil, apperror.ErrNotFound("card")
	}
	if !card.BelongsTo(req.UserID) {
		return nil, apperror.ErrNotOwner("card")
	}
	if !card.Active {
		return nil, apperror.ErrInactive("card")
	}

	merchant, err := s.merchantRepo.GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, apperror.Persistence("get merchant", err)
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("merchant")
	}
	if !merchant.Active {
		return nil, apperror.ErrInactive("merchant")
	}

	if lerr := limits.CheckPaymentAmount(req.Amount); lerr != nil {
		return nil, lerr
	}

	wallet, err := s.requireWallet(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if lerr := limits.CheckSufficientBalance(wallet.Balance, req.Amount); lerr != nil {
		return nil, lerr
	}

	spentToday, err := s.txRepo.SumSuccessfulPaymentsToday(ctx, req.UserID)
	if err != nil {
		return nil, apperror.Persistence("sum daily payments", err)
	}
	if lerr := limits.CheckDailyCap(spentToday, req.Amount); lerr != nil {
		return nil, lerr
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ReferenceCode: newReferenceCode(),
		UserID:        req.UserID,
		CardID:        &req.CardID,
		MerchantID:    &req.MerchantID,
		Amount:        req.Amount,
		Type:          domain.TransactionTypePayment,
		Status:        domain.TransactionStatusPending,
		Description:   req.Description,
		CreatedAt:     now,
	}

	applied, err := s.walletRepo.Debit(ctx, req.UserID, req.Amount)
	if err != nil || !applied {
		s.recordFailed(ctx, txn)
		if err != nil {
			return nil, apperror.Persistence("debit wallet", err)
		}
		return nil, apperror.ErrDebitNotApplied()
	}

	txn.Status = domain.TransactionStatusSuccess
	processed := time.Now().UTC()
	txn.ProcessedAt = &processed

	if err := s.txRepo.Insert(ctx, txn); err != nil {
		s.compensateCredit(ctx, req.UserID, req.Amount, "payment")
		return nil, apperror.Persistence("insert payment record", err)
	}

	s.log.Info().
		Int64("user_id", req.UserID).
		Int64("merchant_id", req.MerchantID).
		Str("reference", txn.ReferenceCode).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("payment processed")

	return txn, nil
}

// RefundPayment reverses a successful payment within the refund window.
//
// Mutations: credit the wallet by the original amount, then insert the
// REFUND record. A failed insert is compensated by debiting the amount
// back.
func (s *LedgerServiceImpl) RefundPayment(ctx context.Context, req ports.RefundRequest) (*domain.Transaction, error) {
	orig, err := s.txRepo.GetByID(ctx, req.TransactionID)
	if err != nil {
		return nil, apperror.Persistence("get transaction", err)
	}
	if orig == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	if !orig.BelongsTo(req.UserID) {
		return nil, apperror.ErrNotOwner("transaction")
	}
	if !orig.IsRefundable() {
		return nil, apperror.ErrNotRefundable()
	}

	now := time.Now().UTC()
	if lerr := limits.CheckRefundWindow(orig.CreatedAt, now); lerr != nil {
		return nil, lerr
	}

	refunded, err := s.txRepo.HasRefundFor(ctx, orig.ID)
	if err != nil {
		return nil, apperror.Persistence("check existing refund", err)
	}
	if refunded {
		return nil, apperror.ErrNotRefundable()
	}

	wallet, err := s.requireWallet(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if lerr := limits.CheckWalletCeiling(wallet.Balance, orig.Amount); lerr != nil {
		return nil, lerr
	}

	origID := orig.ID
	txn := &domain.Transaction{
		ReferenceCode:         newReferenceCode(),
		UserID:                req.UserID,
		CardID:                orig.CardID,
		MerchantID:            orig.MerchantID,
		OriginalTransactionID: &origID,
		Amount:                orig.Amount,
		Type:                  domain.TransactionTypeRefund,
		Status:                domain.TransactionStatusPending,
		Description:           fmt.Sprintf("Refund of transaction %d: %s", orig.ID, req.Reason),
		CreatedAt:             now,
	}

	applied, err := s.walletRepo.Credit(ctx, req.UserID, orig.Amount)
	if err != nil || !applied {
		s.recordFailed(ctx, txn)
		if err != nil {
			return nil, apperror.Persistence("credit wallet", err)
		}
		return nil, apperror.ErrCreditNotApplied()
	}

	txn.Status = domain.TransactionStatusSuccess
	processed := time.Now().UTC()
	txn.ProcessedAt = &processed

	if err := s.txRepo.Insert(ctx, txn); err != nil {
		s.compensateDebit(ctx, req.UserID, orig.Amount, "refund")
		return nil, apperror.Persistence("insert refund record", err)
	}

	s.log.Info().
		Int64("user_id", req.UserID).
		Int64("original_transaction_id", orig.ID).
		Str("amount", orig.Amount.StringFixed(2)).
		Msg("refund processed")

	return txn, nil
}

// AddFunds credits the user's wallet (simulated external deposit).
func (s *LedgerServiceImpl) AddFunds(ctx context.Context, req ports.DepositRequest) (*domain.Transaction, error) {
	if _, err := s.requireActiveUser(ctx, req.UserID); err != nil {
		return nil, err
	}
	if lerr := limits.CheckDepositAmount(req.Amount); lerr != nil {
		return nil, lerr
	}

	wallet, err := s.requireWallet(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if lerr := limits.CheckWalletCeiling(wallet.Balance, req.Amount); lerr != nil {
		return nil, lerr
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ReferenceCode: newReferenceCode(),
		UserID:        req.UserID,
		Amount:        req.Amount,
		Type:          domain.TransactionTypeDeposit,
		Status:        domain.TransactionStatusPending,
		Description:   req.Description,
		CreatedAt:     now,
	}

	applied, err := s.walletRepo.Credit(ctx, req.UserID, req.Amount)
	if err != nil || !applied {
		s.recordFailed(ctx, txn)
		if err != nil {
			return nil, apperror.Persistence("credit wallet", err)
		}
		return nil, apperror.ErrCreditNotApplied()
	}

	txn.Status = domain.TransactionStatusSuccess
	processed := time.Now().UTC()
	txn.ProcessedAt = &processed

	if err := s.txRepo.Insert(ctx, txn); err != nil {
		s.compensateDebit(ctx, req.UserID, req.Amount, "deposit")
		return nil, apperror.Persistence("insert deposit record", err)
	}

	s.log.Info().
		Int64("user_id", req.UserID).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("deposit processed")

	return txn, nil
}

// WithdrawFunds debits the user's wallet (simulated external withdrawal).
func (s *LedgerServiceImpl) WithdrawFunds(ctx context.Context, req ports.WithdrawalRequest) (*domain.Transaction, error) {
	if _, err := s.requireActiveUser(ctx, req.UserID); err != nil {
		return nil, err
	}
	if lerr := limits.CheckWithdrawalAmount(req.Amount); lerr != nil {
		return nil, lerr
	}

	wallet, err := s.requireWallet(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if lerr := limits.CheckSufficientBalance(wallet.Balance, req.Amount); lerr != nil {
		return nil, lerr
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ReferenceCode: newReferenceCode(),
		UserID:        req.UserID,
		Amount:        req.Amount,
		Type:          domain.TransactionTypeWithdrawal,
		Status:        domain.TransactionStatusPending,
		Description:   req.Description,
		CreatedAt:     now,
	}

	applied, err := s.walletRepo.Debit(ctx, req.UserID, req.Amount)
	if err != nil || !applied {
		s.recordFailed(ctx, txn)
		if err != nil {
			return nil, apperror.Persistence("debit wallet", err)
		}
		return nil, apperror.ErrDebitNotApplied()
	}

	txn.Status = domain.TransactionStatusSuccess
	processed := time.Now().UTC()
	txn.ProcessedAt = &processed

	if err := s.txRepo.Insert(ctx, txn); err != nil {
		s.compensateCredit(ctx, req.UserID, req.Amount, "withdrawal")
		return nil, apperror.Persistence("insert withdrawal record", err)
	}

	s.log.Info().
		Int64("user_id", req.UserID).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("withdrawal processed")

	return txn, nil
}

// TransferFunds moves funds between two wallets: debit source, credit
// destination, insert both legs in a single record call. If the
// destination credit fails, the source is credited back; if the record
// insert fails, both mutations are reversed.
func (s *LedgerServiceImpl) TransferFunds(ctx context.Context, req ports.TransferRequest) (*domain.Transaction, error) {
	if req.FromUserID == req.ToUserID {
		return nil, apperror.Validation("cannot transfer to the same wallet")
	}
	if _, err := s.requireActiveUser(ctx, req.FromUserID); err != nil {
		return nil, err
	}
	if _, err := s.requireActiveUser(ctx, req.ToUserID); err != nil {
		return nil, err
	}

	if lerr := limits.CheckTransferAmount(req.Amount); lerr != nil {
		return nil, lerr
	}

	fromWallet, err := s.requireWallet(ctx, req.FromUserID)
	if err != nil {
		return nil, err
	}
	if lerr := limits.CheckSufficientBalance(fromWallet.Balance, req.Amount); lerr != nil {
		return nil, lerr
	}

	toWallet, err := s.requireWallet(ctx, req.ToUserID)
	if err != nil {
		return nil, err
	}
	if lerr := limits.CheckWalletCeiling(toWallet.Balance, req.Amount); lerr != nil {
		return nil, lerr
	}

	now := time.Now().UTC()
	out := &domain.Transaction{
		ReferenceCode: newReferenceCode(),
		UserID:        req.FromUserID,
		Amount:        req.Amount,
		Type:          domain.TransactionTypeTransferOut,
		Status:        domain.TransactionStatusPending,
		Description:   fmt.Sprintf("Transfer to user %d: %s", req.ToUserID, req.Description),
		CreatedAt:     now,
	}
	in := &domain.Transaction{
		ReferenceCode: newReferenceCode(),
		UserID:        req.ToUserID,
		Amount:        req.Amount,
		Type:          domain.TransactionTypeTransferIn,
		Status:        domain.TransactionStatusPending,
		Description:   fmt.Sprintf("Transfer from user %d: %s", req.FromUserID, req.Description),
		CreatedAt:     now,
	}

	applied, err := s.walletRepo.Debit(ctx, req.FromUserID, req.Amount)
	if err != nil || !applied {
		s.recordFailed(ctx, out)
		if err != nil {
			return nil, apperror.Persistence("debit source wallet", err)
		}
		return nil, apperror.ErrDebitNotApplied()
	}

	applied, err = s.walletRepo.Credit(ctx, req.ToUserID, req.Amount)
	if err != nil || !applied {
		s.compensateCredit(ctx, req.FromUserID, req.Amount, "transfer")
		if err != nil {
			return nil, apperror.Persistence("credit destination wallet", err)
		}
		return nil, apperror.ErrCreditNotApplied()
	}

	processed := time.Now().UTC()
	out.Status = domain.TransactionStatusSuccess
	out.ProcessedAt = &processed
	in.Status = domain.TransactionStatusSuccess
	in.ProcessedAt = &processed

	if err := s.txRepo.InsertPair(ctx, out, in); err != nil {
		s.compensateDebit(ctx, req.ToUserID, req.Amount, "transfer")
		s.compensateCredit(ctx, req.FromUserID, req.Amount, "transfer")
		return nil, apperror.Persistence("insert transfer records", err)
	}

	s.log.Info().
		Int64("from_user_id", req.FromUserID).
		Int64("to_user_id", req.ToUserID).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("transfer processed")

	return out, nil
}

// CancelTransaction moves a PENDING transaction owned by the user to
// CANCELLED. Terminal transactions are never resurrected.
func (s *LedgerServiceImpl) CancelTransaction(ctx context.Context, transactionID, userID int64) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, apperror.Persistence("get transaction", err)
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	if !txn.BelongsTo(userID) {
		return nil, apperror.ErrNotOwner("transaction")
	}
	if txn.Status != domain.TransactionStatusPending {
		return nil, apperror.ErrNotCancellable()
	}

	now := time.Now().UTC()
	applied, err := s.txRepo.UpdateStatus(ctx, transactionID, domain.TransactionStatusCancelled, now)
	if err != nil {
		return nil, apperror.Persistence("cancel transaction", err)
	}
	if !applied {
		// Lost the race against another status transition.
		return nil, apperror.ErrNotCancellable()
	}

	txn.Status = domain.TransactionStatusCancelled
	txn.ProcessedAt = &now

	s.log.Info().
		Int64("transaction_id", transactionID).
		Int64("user_id", userID).
		Msg("transaction cancelled")

	return txn, nil
}

// recordFailed persists a FAILED copy of the transaction after a refused
// or failed funds movement. No funds moved, so failure to record is only
// logged.
func (s *LedgerServiceImpl) recordFailed(ctx context.Context, txn *domain.Transaction) {
	now := time.Now().UTC()
	txn.Status = domain.TransactionStatusFailed
	txn.ProcessedAt = &now
	if err := s.txRepo.Insert(ctx, txn); err != nil {
		s.log.Error().Err(err).
			Str("reference", txn.ReferenceCode).
			Msg("failed to persist FAILED transaction record")
	}
}

// compensateCredit credits the amount back after a partial failure.
func (s *LedgerServiceImpl) compensateCredit(ctx context.Context, userID int64, amount decimal.Decimal, op string) {
	applied, err := s.walletRepo.Credit(ctx, userID, amount)
	if err != nil || !applied {
		s.log.Error().Err(err).
			Int64("user_id", userID).
			Str("amount", amount.StringFixed(2)).
			Str("operation", op).
			Bool("applied", applied).
			Msg("compensation credit failed, manual reconciliation required")
	}
}

// compensateDebit debits the amount back after a partial failure.
func (s *LedgerServiceImpl) compensateDebit(ctx context.Context, userID int64, amount decimal.Decimal, op string) {
	applied, err := s.walletRepo.Debit(ctx, userID, amount)
	if err != nil || !applied {
		s.log.Error().Err(err).
			Int64("user_id", userID).
			Str("amount", amount.StringFixed(2)).
			Str("operation", op).
			Bool("applied", applied).
			Msg("compensation debit failed, manual reconciliation required")
	}
}
