package repository

import (
	"context"
	"errors"

	"github.com/arashpm/points-gateway/internal/model"
	"github.com/arashpm/points-gateway/pkg/pg"
	"gorm.io/gorm"
)

type MerchantRepository struct {
	*pg.DB
}

func NewMerchantRepository(db *pg.DB) *MerchantRepository {
	return &MerchantRepository{
		db,
	}
}

func (r *MerchantRepository) Create(ctx context.Context, m *model.Merchant) (*model.Merchant, error) {
	entity := toMerchantEntity(m)
	if entity.Status == "" {
		entity.Status = string(model.MerchantStatusActive)
	}

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toMerchantModel(entity), nil
}

func (r *MerchantRepository) GetByID(ctx context.Context, id string) (*model.Merchant, error) {
	var entity MerchantEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}

	return toMerchantModel(&entity), nil
}

func (r *MerchantRepository) List(ctx context.Context) ([]*model.Merchant, error) {
	var entities []*MerchantEntity
	err := r.Read(ctx).WithContext(ctx).
		Order("created_at asc").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toMerchantModels(entities), nil
}

func (r *MerchantRepository) ListActive(ctx context.Context) ([]*model.Merchant, error) {
	var entities []*MerchantEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("status = ?", string(model.MerchantStatusActive)).
		Order("created_at asc").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toMerchantModels(entities), nil
}

func (r *MerchantRepository) UpdateStatus(ctx context.Context, id string, status model.MerchantStatus) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&MerchantEntity{}).
		Where("id = ?", id).
		Update("status", string(status))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMerchantNotFound
	}
	return nil
}
