package model

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleMerchant Role = "merchant"
)

// Profile maps an identity-provider user id to its role.
type Profile struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (Profile) TableName() string { return "profiles" }

// Session is the resolved identity of a request. It is built once by the
// auth layer and passed explicitly into services; nothing reads ambient
// global state.
type Session struct {
	UserID     string
	Email      string
	Role       Role
	MerchantID string         // set for merchant sessions
	StoreName  string         // set for merchant sessions
	Status     MerchantStatus // set for merchant sessions
}
