package identity

import "errors"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUserExists   = errors.New("user already exists")
)

// User is an identity-provider account.
type User struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CreateUserParams creates a pre-verified account tagged with role metadata.
type CreateUserParams struct {
	Email       string            `json:"email"`
	Password    string            `json:"password"`
	PreVerified bool              `json:"pre_verified"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}
