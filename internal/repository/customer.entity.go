package repository

import (
	"time"

	"github.com/arashpm/points-gateway/internal/model"
)

type CustomerEntity struct {
	ID         string    `db:"id"          gorm:"primaryKey;type:uuid;column:id"`
	MerchantID string    `db:"merchant_id" gorm:"column:merchant_id;type:uuid;not null;uniqueIndex:idx_customer_merchant_phone"`
	Phone      string    `db:"phone"       gorm:"column:phone;size:10;not null;uniqueIndex:idx_customer_merchant_phone"`
	Points     int64     `db:"points"      gorm:"column:points;not null;default:0"`
	CreatedAt  time.Time `db:"created_at"  gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `db:"updated_at"  gorm:"column:updated_at;autoUpdateTime"`
}

func (CustomerEntity) TableName() string {
	return "customers"
}

func toCustomerEntity(m *model.Customer) *CustomerEntity {
	if m == nil {
		return nil
	}
	return &CustomerEntity{
		ID:         m.ID,
		MerchantID: m.MerchantID,
		Phone:      m.Phone,
		Points:     m.Points,
		CreatedAt:  m.CreatedAt,
	}
}

func toCustomerModel(e *CustomerEntity) *model.Customer {
	if e == nil {
		return nil
	}
	return &model.Customer{
		ID:         e.ID,
		MerchantID: e.MerchantID,
		Phone:      e.Phone,
		Points:     e.Points,
		CreatedAt:  e.CreatedAt,
	}
}
