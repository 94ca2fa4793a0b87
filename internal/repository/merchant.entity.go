package repository

import (
	"time"

	"github.com/arashpm/points-gateway/internal/model"
)

type MerchantEntity struct {
	ID               string    `db:"id"                gorm:"primaryKey;type:uuid;column:id"`
	Email            string    `db:"email"             gorm:"column:email;not null;unique"`
	StoreName        string    `db:"store_name"        gorm:"column:store_name;not null"`
	StoreCode        string    `db:"store_code"        gorm:"column:store_code;size:4;not null;index"`
	Status           string    `db:"status"            gorm:"column:status;not null;default:active;index"`
	ContactName      string    `db:"contact_name"      gorm:"column:contact_name"`
	ContactPhone     string    `db:"contact_phone"     gorm:"column:contact_phone"`
	RecoveryPassword string    `db:"recovery_password" gorm:"column:recovery_password"`
	CreatedAt        time.Time `db:"created_at"        gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `db:"updated_at"        gorm:"column:updated_at;autoUpdateTime"`
}

func (MerchantEntity) TableName() string {
	return "merchants"
}

func toMerchantEntity(m *model.Merchant) *MerchantEntity {
	if m == nil {
		return nil
	}
	return &MerchantEntity{
		ID:               m.ID,
		Email:            m.Email,
		StoreName:        m.StoreName,
		StoreCode:        m.StoreCode,
		Status:           string(m.Status),
		ContactName:      m.ContactName,
		ContactPhone:     m.ContactPhone,
		RecoveryPassword: m.RecoveryPassword,
		CreatedAt:        m.CreatedAt,
	}
}

func toMerchantModel(e *MerchantEntity) *model.Merchant {
	if e == nil {
		return nil
	}
	return &model.Merchant{
		ID:               e.ID,
		Email:            e.Email,
		StoreName:        e.StoreName,
		StoreCode:        e.StoreCode,
		Status:           model.MerchantStatus(e.Status),
		ContactName:      e.ContactName,
		ContactPhone:     e.ContactPhone,
		RecoveryPassword: e.RecoveryPassword,
		CreatedAt:        e.CreatedAt,
	}
}

func toMerchantModels(entities []*MerchantEntity) []*model.Merchant {
	if entities == nil {
		return nil
	}
	models := make([]*model.Merchant, len(entities))
	for i, e := range entities {
		models[i] = toMerchantModel(e)
	}
	return models
}
