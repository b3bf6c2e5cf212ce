package service

import (
	"context"
	"fmt"
	"time"

	"tappay/internal/core/domain"
	"tappay/internal/core/limits"
	"tappay/internal/core/ports"
	"tappay/pkg/apperror"

	"github.com/rs/zerolog"
)

// CardServiceImpl implements ports.CardService.
type CardServiceImpl struct {
	cardRepo ports.CardRepository
	userRepo ports.UserRepository
	log      zerolog.Logger
}

// NewCardService creates a new CardServiceImpl.
func NewCardService(cardRepo ports.CardRepository, userRepo ports.UserRepository, log zerolog.Logger) *CardServiceImpl {
	return &CardServiceImpl{cardRepo: cardRepo, userRepo: userRepo, log: log}
}

// AddCard registers a card for a user. Card names are unique per user
// (case-insensitive) and the number of active cards is capped.
func (s *CardServiceImpl) AddCard(ctx context.Context, req ports.AddCardRequest) (*domain.Card, error) {
	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}
	if !user.Active {
		return nil, apperror.ErrInactive("user")
	}

	if req.CardUID == "" {
		return nil, apperror.Validation("card UID is required")
	}
	name := domain.NormalizeCardName(req.Name)
	if name == "" {
		return nil, apperror.Validation("card name is required")
	}
	if !domain.ValidCardType(req.Type) {
		return nil, apperror.Validation(fmt.Sprintf("unknown card type: %s", req.Type))
	}

	count, err := s.cardRepo.CountActiveByUserID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count cards: %w", err))
	}
	if appErr := limits.CheckCardCount(count); appErr != nil {
		return nil, appErr
	}

	existing, err := s.cardRepo.GetByUID(ctx, req.CardUID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check card UID: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrDuplicate("card")
	}

	taken, err := s.cardRepo.NameExistsForUser(ctx, req.UserID, name)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check card name: %w", err))
	}
	if taken {
		return nil, apperror.ErrDuplicate("card name")
	}

	now := time.Now().UTC()
	card := &domain.Card{
		UserID:    req.UserID,
		CardUID:   req.CardUID,
		Name:      name,
		Type:      req.Type,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create card: %w", err))
	}

	s.log.Info().Int64("user_id", req.UserID).Int64("card_id", card.ID).Str("type", string(card.Type)).Msg("card added")

	return card, nil
}

// ListCards returns all cards belonging to the user.
func (s *CardServiceImpl) ListCards(ctx context.Context, userID int64) ([]domain.Card, error) {
	cards, err := s.cardRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list cards: %w", err))
	}
	return cards, nil
}

// DeactivateCard blocks a card from further payments.
func (s *CardServiceImpl) DeactivateCard(ctx context.Context, cardID, userID int64) error {
	card, err := s.requireOwnedCard(ctx, cardID, userID)
	if err != nil {
		return err
	}
	if !card.Active {
		return apperror.ErrInactive("card")
	}

	if err := s.cardRepo.SetActive(ctx, cardID, false); err != nil {
		return apperror.InternalError(fmt.Errorf("deactivate card: %w", err))
	}

	s.log.Info().Int64("card_id", cardID).Msg("card deactivated")
	return nil
}

// RemoveCard deletes a card. History records keep their card reference.
func (s *CardServiceImpl) RemoveCard(ctx context.Context, cardID, userID int64) error {
	if _, err := s.requireOwnedCard(ctx, cardID, userID); err != nil {
		return err
	}

	if err := s.cardRepo.Delete(ctx, cardID); err != nil {
		return apperror.InternalError(fmt.Errorf("delete card: %w", err))
	}

	s.log.Info().Int64("card_id", cardID).Msg("card removed")
	return nil
}

func (s *CardServiceImpl) requireOwnedCard(ctx context.Context, cardID, userID int64) (*domain.Card, error) {
	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find card: %w", err))
	}
	if card == nil {
		return nil, apperror.ErrNotFound("card")
	}
	if !card.BelongsTo(userID) {
		return nil, apperror.ErrNotOwner("card")
	}
	return card, nil
}
