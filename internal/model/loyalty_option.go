package model

// LoyaltyOption is a reusable quick-action preset rendered as a terminal
// button. The ledger never mutates these.
type LoyaltyOption struct {
	ID           string          `json:"id"`
	MerchantID   string          `json:"merchant_id"`
	Type         TransactionType `json:"type"` // add or redeem
	Value        int64           `json:"value"`
	Label        string          `json:"label"`
	DisplayOrder int             `json:"display_order"`
}

func (LoyaltyOption) TableName() string { return "loyalty_options" }
