package services

import (
	"context"

	"github.com/arashpm/points-gateway/internal/model"
)

type LoyaltyOptionRepository interface {
	ListByMerchant(ctx context.Context, merchantID string) ([]*model.LoyaltyOption, error)
}

// OptionService serves the terminal's quick-action presets.
type OptionService struct {
	optionRepo LoyaltyOptionRepository
}

func NewOptionService(optionRepo LoyaltyOptionRepository) *OptionService {
	return &OptionService{optionRepo: optionRepo}
}

func (s *OptionService) List(ctx context.Context, merchantID string) ([]*model.LoyaltyOption, error) {
	return s.optionRepo.ListByMerchant(ctx, merchantID)
}

// defaultLoyaltyOptions are the presets every fresh merchant terminal starts
// with.
func defaultLoyaltyOptions(merchantID string) []*model.LoyaltyOption {
	return []*model.LoyaltyOption{
		{MerchantID: merchantID, Type: model.TypeAdd, Value: 1, Label: "+1 point", DisplayOrder: 1},
		{MerchantID: merchantID, Type: model.TypeAdd, Value: 5, Label: "+5 points", DisplayOrder: 2},
		{MerchantID: merchantID, Type: model.TypeRedeem, Value: 10, Label: "Redeem 10 points", DisplayOrder: 3},
	}
}
