package repository

import (
	"context"

	"github.com/arashpm/points-gateway/internal/model"
	"github.com/arashpm/points-gateway/pkg/pg"
	"github.com/google/uuid"
)

type LoyaltyOptionEntity struct {
	ID           string `db:"id"            gorm:"primaryKey;type:uuid;column:id"`
	MerchantID   string `db:"merchant_id"   gorm:"column:merchant_id;type:uuid;not null;index"`
	Type         string `db:"type"          gorm:"column:type;not null"`
	Value        int64  `db:"value"         gorm:"column:value;not null"`
	Label        string `db:"label"         gorm:"column:label;not null"`
	DisplayOrder int    `db:"display_order" gorm:"column:display_order;not null;default:0"`
}

func (LoyaltyOptionEntity) TableName() string {
	return "loyalty_options"
}

type LoyaltyOptionRepository struct {
	*pg.DB
}

func NewLoyaltyOptionRepository(db *pg.DB) *LoyaltyOptionRepository {
	return &LoyaltyOptionRepository{
		db,
	}
}

func (r *LoyaltyOptionRepository) Create(ctx context.Context, o *model.LoyaltyOption) (*model.LoyaltyOption, error) {
	entity := &LoyaltyOptionEntity{
		ID:           o.ID,
		MerchantID:   o.MerchantID,
		Type:         string(o.Type),
		Value:        o.Value,
		Label:        o.Label,
		DisplayOrder: o.DisplayOrder,
	}
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	o.ID = entity.ID
	return o, nil
}

// ListByMerchant returns the terminal quick-action presets in display order.
func (r *LoyaltyOptionRepository) ListByMerchant(ctx context.Context, merchantID string) ([]*model.LoyaltyOption, error) {
	var entities []*LoyaltyOptionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("display_order asc").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	options := make([]*model.LoyaltyOption, len(entities))
	for i, e := range entities {
		options[i] = &model.LoyaltyOption{
			ID:           e.ID,
			MerchantID:   e.MerchantID,
			Type:         model.TransactionType(e.Type),
			Value:        e.Value,
			Label:        e.Label,
			DisplayOrder: e.DisplayOrder,
		}
	}
	return options, nil
}
