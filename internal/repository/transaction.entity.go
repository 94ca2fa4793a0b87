package repository

import (
	"time"

	"github.com/arashpm/points-gateway/internal/model"
)

type TransactionEntity struct {
	ID         string    `db:"id"          gorm:"primaryKey;type:uuid;column:id"`
	MerchantID string    `db:"merchant_id" gorm:"column:merchant_id;type:uuid;not null;index"`
	CustomerID string    `db:"customer_id" gorm:"column:customer_id;type:uuid;not null;index"`
	Type       string    `db:"type"        gorm:"column:type;not null;index"`
	Amount     int64     `db:"amount"      gorm:"column:amount;not null"`
	CreatedAt  time.Time `db:"created_at"  gorm:"column:created_at;autoCreateTime;index"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:         m.ID,
		MerchantID: m.MerchantID,
		CustomerID: m.CustomerID,
		Type:       string(m.Type),
		Amount:     m.Amount,
		CreatedAt:  m.CreatedAt,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:         e.ID,
		MerchantID: e.MerchantID,
		CustomerID: e.CustomerID,
		Type:       model.TransactionType(e.Type),
		Amount:     e.Amount,
		CreatedAt:  e.CreatedAt,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}
