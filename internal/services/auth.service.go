package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/arashpm/points-gateway/internal/identity"
	"github.com/arashpm/points-gateway/internal/model"
	"github.com/arashpm/points-gateway/internal/repository"
)

var ErrMerchantInactive = errors.New("merchant is not active")

// AuthService resolves bearer tokens to explicit sessions. Sessions are
// passed into every downstream call instead of being looked up from ambient
// state.
type AuthService struct {
	identity     IdentityProvider
	profileRepo  ProfileRepository
	merchantRepo MerchantRepository
}

func NewAuthService(idp IdentityProvider, profileRepo ProfileRepository, merchantRepo MerchantRepository) *AuthService {
	return &AuthService{
		identity:     idp,
		profileRepo:  profileRepo,
		merchantRepo: merchantRepo,
	}
}

// MerchantSession authenticates a terminal request. The merchant must exist
// and be active.
func (s *AuthService) MerchantSession(ctx context.Context, token string) (*model.Session, error) {
	user, err := s.verify(ctx, token)
	if err != nil {
		return nil, err
	}

	merchant, err := s.merchantRepo.GetByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrMerchantNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("load merchant: %w", err)
	}
	if merchant.Status != model.MerchantStatusActive {
		return nil, ErrMerchantInactive
	}

	return &model.Session{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       model.RoleMerchant,
		MerchantID: merchant.ID,
		StoreName:  merchant.StoreName,
		Status:     merchant.Status,
	}, nil
}

// AdminSession authenticates a console request against the admin role.
func (s *AuthService) AdminSession(ctx context.Context, token string) (*model.Session, error) {
	user, err := s.verify(ctx, token)
	if err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}

	return &model.Session{
		UserID: user.ID,
		Email:  user.Email,
		Role:   model.RoleAdmin,
	}, nil
}

func (s *AuthService) verify(ctx context.Context, token string) (*identity.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	user, err := s.identity.VerifyToken(ctx, token)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("verify token: %w", err)
	}
	return user, nil
}
