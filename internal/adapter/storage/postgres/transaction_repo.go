package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tappay/internal/core/domain"
	"tappay/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const txColumns = `id, reference_code, user_id, card_id, merchant_id, original_transaction_id,
		amount, type, status, description, created_at, processed_at`

// Insert stores a new transaction record and assigns the generated ID.
func (r *TransactionRepo) Insert(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (reference_code, user_id, card_id, merchant_id,
		original_transaction_id, amount, type, status, description, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		t.ReferenceCode, t.UserID, t.CardID, t.MerchantID, t.OriginalTransactionID,
		t.Amount, t.Type, t.Status, t.Description, t.CreatedAt, t.ProcessedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// InsertPair stores both legs of a transfer in one statement, so either
// both records exist or neither does.
func (r *TransactionRepo) InsertPair(ctx context.Context, out, in *domain.Transaction) error {
	query := `INSERT INTO transactions (reference_code, user_id, card_id, merchant_id,
		original_transaction_id, amount, type, status, description, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11),
		       ($12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id`

	rows, err := r.pool.Query(ctx, query,
		out.ReferenceCode, out.UserID, out.CardID, out.MerchantID, out.OriginalTransactionID,
		out.Amount, out.Type, out.Status, out.Description, out.CreatedAt, out.ProcessedAt,
		in.ReferenceCode, in.UserID, in.CardID, in.MerchantID, in.OriginalTransactionID,
		in.Amount, in.Type, in.Status, in.Description, in.CreatedAt, in.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction pair: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, 2)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan transaction pair id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate transaction pair ids: %w", err)
	}
	if len(ids) != 2 {
		return fmt.Errorf("insert transaction pair: expected 2 ids, got %d", len(ids))
	}
	out.ID, in.ID = ids[0], ids[1]
	return nil
}

// GetByID fetches a transaction by ID. Returns (nil, nil) when absent.
func (r *TransactionRepo) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE id = $1`
	return r.scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByReference fetches a transaction by its reference code. Returns (nil, nil) when absent.
func (r *TransactionRepo) GetByReference(ctx context.Context, referenceCode string) (*domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE reference_code = $1`
	return r.scanTransaction(r.pool.QueryRow(ctx, query, referenceCode))
}

// UpdateStatus moves a PENDING transaction to a terminal status. The
// PENDING guard is part of the statement; returns whether a row changed.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, id int64, status domain.TransactionStatus, processedAt time.Time) (bool, error) {
	query := `UPDATE transactions SET status = $1, processed_at = $2
		WHERE id = $3 AND status = 'PENDING'`

	tag, err := r.pool.Exec(ctx, query, status, processedAt, id)
	if err != nil {
		return false, fmt.Errorf("update transaction status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// HasRefundFor reports whether a refund record already references the
// given original transaction.
func (r *TransactionRepo) HasRefundFor(ctx context.Context, originalTransactionID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM transactions
		WHERE original_transaction_id = $1 AND type = 'REFUND')`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, originalTransactionID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check refund exists: %w", err)
	}
	return exists, nil
}

// SumSuccessfulPaymentsToday sums a user's SUCCESS payments since local midnight.
func (r *TransactionRepo) SumSuccessfulPaymentsToday(ctx context.Context, userID int64) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE user_id = $1 AND type = 'PAYMENT' AND status = 'SUCCESS'
		AND created_at >= date_trunc('day', now())`

	var sum decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum daily payments: %w", err)
	}
	return sum, nil
}

// List fetches a page of a user's transactions with optional filters,
// newest first, plus the total match count.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
	args = append(args, params.UserID)
	argIdx++

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, *params.Type)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT `+txColumns+` FROM transactions %s
		ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.ReferenceCode, &t.UserID, &t.CardID, &t.MerchantID, &t.OriginalTransactionID,
			&t.Amount, &t.Type, &t.Status, &t.Description, &t.CreatedAt, &t.ProcessedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

func (r *TransactionRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.ReferenceCode, &t.UserID, &t.CardID, &t.MerchantID, &t.OriginalTransactionID,
		&t.Amount, &t.Type, &t.Status, &t.Description, &t.CreatedAt, &t.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
