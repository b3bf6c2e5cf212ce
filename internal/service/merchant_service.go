package service

import (
	"context"
	"fmt"
	"time"

	"tappay/internal/core/domain"
	"tappay/internal/core/ports"
	"tappay/pkg/apperror"

	"github.com/rs/zerolog"
)

// MerchantServiceImpl implements ports.MerchantService.
type MerchantServiceImpl struct {
	merchantRepo ports.MerchantRepository
	log          zerolog.Logger
}

// NewMerchantService creates a new MerchantServiceImpl.
func NewMerchantService(merchantRepo ports.MerchantRepository, log zerolog.Logger) *MerchantServiceImpl {
	return &MerchantServiceImpl{merchantRepo: merchantRepo, log: log}
}

// RegisterMerchant onboards a merchant. Codes are unique and stored upper-case.
func (s *MerchantServiceImpl) RegisterMerchant(ctx context.Context, req ports.RegisterMerchantRequest) (*domain.Merchant, error) {
	code := domain.NormalizeMerchantCode(req.Code)
	if code == "" {
		return nil, apperror.Validation("merchant code is required")
	}
	if req.Name == "" {
		return nil, apperror.Validation("merchant name is required")
	}

	existing, err := s.merchantRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check merchant code: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrDuplicate("merchant")
	}

	now := time.Now().UTC()
	merchant := &domain.Merchant{
		Code:      code,
		Name:      req.Name,
		Category:  req.Category,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.merchantRepo.Create(ctx, merchant); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create merchant: %w", err))
	}

	s.log.Info().Int64("merchant_id", merchant.ID).Str("code", merchant.Code).Msg("merchant registered")

	return merchant, nil
}

// ListMerchants returns all merchants.
func (s *MerchantServiceImpl) ListMerchants(ctx context.Context) ([]domain.Merchant, error) {
	merchants, err := s.merchantRepo.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list merchants: %w", err))
	}
	return merchants, nil
}

// SetMerchantActive enables or disables a merchant for new payments.
func (s *MerchantServiceImpl) SetMerchantActive(ctx context.Context, merchantID int64, active bool) error {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find merchant: %w", err))
	}
	if merchant == nil {
		return apperror.ErrNotFound("merchant")
	}

	if err := s.merchantRepo.SetActive(ctx, merchantID, active); err != nil {
		return apperror.InternalError(fmt.Errorf("update merchant: %w", err))
	}

	s.log.Info().Int64("merchant_id", merchantID).Bool("active", active).Msg("merchant status changed")
	return nil
}
