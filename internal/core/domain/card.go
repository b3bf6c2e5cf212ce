package domain

import (
	"strings"
	"time"
)

// CardType distinguishes simulated physical cards from virtual ones.
type CardType string

const (
	CardTypeVirtual  CardType = "VIRTUAL"
	CardTypePhysical CardType = "PHYSICAL"
)

// ValidCardType reports whether t is a known card type.
func ValidCardType(t CardType) bool {
	return t == CardTypeVirtual || t == CardTypePhysical
}

// Card represents a payment card registered by a user. The card UID is
// globally unique; the display name is unique per user, compared
// case-insensitively. Only active cards may be used in a payment.
type Card struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CardUID   string    `json:"card_uid"`
	Name      string    `json:"name"`
	Type      CardType  `json:"type"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BelongsTo reports whether the card is owned by the given user.
func (c *Card) BelongsTo(userID int64) bool {
	return c.UserID == userID
}

// NormalizeCardName canonicalizes a display name for the per-user
// uniqueness comparison.
func NormalizeCardName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
