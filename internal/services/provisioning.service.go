package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/arashpm/points-gateway/internal/identity"
	"github.com/arashpm/points-gateway/internal/model"
	"github.com/arashpm/points-gateway/internal/repository"
	"github.com/arashpm/points-gateway/pkg/logger"
)

var (
	ErrUnauthorized = errors.New("missing or invalid token")
	ErrForbidden    = errors.New("insufficient role")
	ErrBadRequest   = errors.New("bad request")
)

type IdentityProvider interface {
	VerifyToken(ctx context.Context, token string) (*identity.User, error)
	CreateUser(ctx context.Context, p identity.CreateUserParams) (*identity.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

type ProfileRepository interface {
	Upsert(ctx context.Context, p *model.Profile) error
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	Delete(ctx context.Context, id string) error
}

type MerchantRepository interface {
	Create(ctx context.Context, m *model.Merchant) (*model.Merchant, error)
	GetByID(ctx context.Context, id string) (*model.Merchant, error)
	List(ctx context.Context) ([]*model.Merchant, error)
	ListActive(ctx context.Context) ([]*model.Merchant, error)
	UpdateStatus(ctx context.Context, id string, status model.MerchantStatus) error
}

type OptionRepository interface {
	Create(ctx context.Context, o *model.LoyaltyOption) (*model.LoyaltyOption, error)
}

// ProvisioningService onboards merchants: identity account, profile row and
// merchant row as a saga whose completed steps are undone in reverse order
// when a later step fails.
type ProvisioningService struct {
	identity     IdentityProvider
	profileRepo  ProfileRepository
	merchantRepo MerchantRepository
	optionRepo   OptionRepository
}

func NewProvisioningService(idp IdentityProvider, profileRepo ProfileRepository, merchantRepo MerchantRepository, optionRepo OptionRepository) *ProvisioningService {
	return &ProvisioningService{
		identity:     idp,
		profileRepo:  profileRepo,
		merchantRepo: merchantRepo,
		optionRepo:   optionRepo,
	}
}

// CreateMerchant provisions a merchant account. The admin gate runs before
// any mutating call; a non-admin requester causes zero identity or store
// writes.
func (s *ProvisioningService) CreateMerchant(ctx context.Context, token string, req model.MerchantCreateRequest) (*model.Merchant, error) {
	requester, err := s.identity.VerifyToken(ctx, token)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("verify requester: %w", err)
	}

	profile, err := s.profileRepo.GetByID(ctx, requester.ID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("load requester profile: %w", err)
	}
	if profile.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	var (
		account  *identity.User
		merchant *model.Merchant
	)

	sg := &saga{}
	sg.add("create identity account",
		func(ctx context.Context) error {
			account, err = s.identity.CreateUser(ctx, identity.CreateUserParams{
				Email:       req.Email,
				Password:    req.Password,
				PreVerified: true,
				Metadata:    map[string]string{"role": string(model.RoleMerchant)},
			})
			return err
		},
		func(ctx context.Context) error {
			return s.identity.DeleteUser(ctx, account.ID)
		})
	sg.add("upsert profile",
		func(ctx context.Context) error {
			return s.profileRepo.Upsert(ctx, &model.Profile{ID: account.ID, Role: model.RoleMerchant})
		},
		func(ctx context.Context) error {
			return s.profileRepo.Delete(ctx, account.ID)
		})
	sg.add("create merchant record",
		func(ctx context.Context) error {
			code, err := GenerateStoreCode()
			if err != nil {
				return err
			}
			merchant, err = s.merchantRepo.Create(ctx, &model.Merchant{
				ID:               account.ID,
				Email:            req.Email,
				StoreName:        req.StoreName,
				StoreCode:        code,
				Status:           model.MerchantStatusActive,
				ContactName:      req.ContactName,
				ContactPhone:     req.ContactPhone,
				RecoveryPassword: req.Password,
			})
			return err
		},
		nil)

	if err := sg.run(ctx); err != nil {
		return nil, err
	}

	// Seeding the terminal presets is best effort; the merchant can manage
	// without them, so a failure here never unwinds the account.
	for _, opt := range defaultLoyaltyOptions(merchant.ID) {
		if _, err := s.optionRepo.Create(ctx, opt); err != nil {
			logger.Warn("seed loyalty option failed", "merchant_id", merchant.ID, "label", opt.Label, "error", err)
			break
		}
	}

	logger.Info("merchant provisioned", "merchant_id", merchant.ID, "store_code", merchant.StoreCode)
	return merchant, nil
}

func (s *ProvisioningService) ListMerchants(ctx context.Context) ([]*model.Merchant, error) {
	return s.merchantRepo.List(ctx)
}

func (s *ProvisioningService) SetMerchantStatus(ctx context.Context, id string, status model.MerchantStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrBadRequest, status)
	}
	return s.merchantRepo.UpdateStatus(ctx, id, status)
}
