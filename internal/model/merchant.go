package model

import (
	"errors"
	"time"
)

type MerchantStatus string

const (
	MerchantStatusActive    MerchantStatus = "active"
	MerchantStatusInactive  MerchantStatus = "inactive"
	MerchantStatusSuspended MerchantStatus = "suspended"
)

func (s MerchantStatus) Valid() bool {
	switch s {
	case MerchantStatusActive, MerchantStatusInactive, MerchantStatusSuspended:
		return true
	}
	return false
}

// Merchant is the tenant root. ID equals the identity-provider user id.
type Merchant struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	StoreName    string         `json:"store_name"`
	StoreCode    string         `json:"store_code"`
	Status       MerchantStatus `json:"status"`
	ContactName  string         `json:"contact_name,omitempty"`
	ContactPhone string         `json:"contact_phone,omitempty"`
	// RecoveryPassword is kept in plaintext for admin-assisted recovery.
	// Inherited from the admin console workflow, never returned over HTTP.
	RecoveryPassword string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

func (Merchant) TableName() string { return "merchants" }

// MerchantCreateRequest is the input for provisioning a merchant.
type MerchantCreateRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	StoreName    string `json:"store_name"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
}

func (p MerchantCreateRequest) Validate() error {
	if p.Email == "" {
		return errors.New("email is required")
	}
	if p.Password == "" {
		return errors.New("password is required")
	}
	if p.StoreName == "" {
		return errors.New("store_name is required")
	}
	return nil
}
