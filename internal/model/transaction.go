package model

import (
	"errors"
	"time"
)

// TransactionType is a closed set; anything else is rejected before it
// reaches the store.
type TransactionType string

const (
	TypeAdd          TransactionType = "add"
	TypeRedeem       TransactionType = "redeem"
	TypeManualRedeem TransactionType = "manual_redeem"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeAdd, TypeRedeem, TypeManualRedeem:
		return true
	}
	return false
}

// Transaction is an immutable ledger entry. Rows are only ever appended.
type Transaction struct {
	ID         string          `json:"id"`
	MerchantID string          `json:"merchant_id"`
	CustomerID string          `json:"customer_id"`
	Type       TransactionType `json:"type"`
	Amount     int64           `json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (Transaction) TableName() string { return "transactions" }

func (t *Transaction) Validate() error {
	if t.MerchantID == "" {
		return errors.New("merchant_id is required")
	}
	if t.CustomerID == "" {
		return errors.New("customer_id is required")
	}
	if !t.Type.Valid() {
		return errors.New("unknown transaction type: " + string(t.Type))
	}
	if t.Amount <= 0 {
		return errors.New("amount must be a positive integer")
	}
	return nil
}

// TransactionFilter controls history queries.
type TransactionFilter struct {
	Phone  *string          // equals, resolved through the customers table
	Type   *TransactionType // equals
	From   *time.Time
	To     *time.Time
	Limit  int              // default 50
	Offset int
	Desc   bool             // order by created_at
}
