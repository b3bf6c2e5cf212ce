package postgres

import (
	"context"
	"errors"
	"fmt"

	"tappay/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// CardRepo implements ports.CardRepository.
type CardRepo struct {
	pool Pool
}

// NewCardRepo creates a new CardRepo.
func NewCardRepo(pool Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

const cardColumns = `id, user_id, card_uid, name, type, active, created_at, updated_at`

// Create inserts a new card and assigns the generated ID.
func (r *CardRepo) Create(ctx context.Context, c *domain.Card) error {
	query := `INSERT INTO cards (user_id, card_uid, name, type, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		c.UserID, c.CardUID, c.Name, c.Type, c.Active, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// GetByID fetches a card by ID. Returns (nil, nil) when absent.
func (r *CardRepo) GetByID(ctx context.Context, id int64) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`
	return r.scanCard(r.pool.QueryRow(ctx, query, id))
}

// GetByUID fetches a card by its hardware UID. Returns (nil, nil) when absent.
func (r *CardRepo) GetByUID(ctx context.Context, cardUID string) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE card_uid = $1`
	return r.scanCard(r.pool.QueryRow(ctx, query, cardUID))
}

// ListByUserID fetches all cards of a user, newest first.
func (r *CardRepo) ListByUserID(ctx context.Context, userID int64) ([]domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c := domain.Card{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.CardUID, &c.Name, &c.Type, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan card row: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card rows: %w", err)
	}
	return cards, nil
}

// CountActiveByUserID counts a user's active cards.
func (r *CardRepo) CountActiveByUserID(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM cards WHERE user_id = $1 AND active`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active cards: %w", err)
	}
	return count, nil
}

// NameExistsForUser reports whether the user already has a card with
// the given normalized name.
func (r *CardRepo) NameExistsForUser(ctx context.Context, userID int64, name string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM cards WHERE user_id = $1 AND name = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check card name: %w", err)
	}
	return exists, nil
}

// SetActive flips the active flag.
func (r *CardRepo) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE cards SET active = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("update card active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card not found: %d", id)
	}
	return nil
}

// Delete removes a card. Transaction rows keep their card_id reference.
func (r *CardRepo) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM cards WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card not found: %d", id)
	}
	return nil
}

func (r *CardRepo) scanCard(row pgx.Row) (*domain.Card, error) {
	c := &domain.Card{}
	err := row.Scan(&c.ID, &c.UserID, &c.CardUID, &c.Name, &c.Type, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan card: %w", err)
	}
	return c, nil
}
