package postgres

import (
	"context"
	"errors"
	"fmt"

	"tappay/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository. Debit and Credit are
// single conditional statements, so each balance change is atomic on
// its own without an explicit database transaction.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet and assigns the generated ID.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (user_id, balance, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		w.UserID, w.Balance, w.Currency, w.CreatedAt, w.UpdatedAt,
	).Scan(&w.ID)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByUserID fetches a user's wallet. Returns (nil, nil) when absent.
func (r *WalletRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Wallet, error) {
	query := `SELECT id, user_id, balance, currency, created_at, updated_at
		FROM wallets WHERE user_id = $1`

	w := &domain.Wallet{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&w.ID, &w.UserID, &w.Balance, &w.Currency, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by user id: %w", err)
	}
	return w, nil
}

// Debit subtracts amount from the wallet balance. The balance guard is
// part of the statement, so the debit is refused rather than driving
// the balance negative. Returns whether the debit was applied.
func (r *WalletRepo) Debit(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	query := `UPDATE wallets SET balance = balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1`

	tag, err := r.pool.Exec(ctx, query, amount, userID)
	if err != nil {
		return false, fmt.Errorf("debit wallet: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Credit adds amount to the wallet balance. Returns whether the credit
// was applied (false means the wallet does not exist).
func (r *WalletRepo) Credit(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	query := `UPDATE wallets SET balance = balance + $1, updated_at = NOW()
		WHERE user_id = $2`

	tag, err := r.pool.Exec(ctx, query, amount, userID)
	if err != nil {
		return false, fmt.Errorf("credit wallet: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
