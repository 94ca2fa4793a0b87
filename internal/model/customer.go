package model

import (
	"errors"
	"time"
)

type Customer struct {
	ID         string    `json:"id"`
	MerchantID string    `json:"merchant_id"`
	Phone      string    `json:"phone"`
	Points     int64     `json:"points"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Customer) TableName() string { return "customers" }

// ValidPhone reports whether s is a 10-digit phone number, the only format
// terminals collect.
func ValidPhone(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

var ErrInvalidPhone = errors.New("phone must be a 10-digit number")
