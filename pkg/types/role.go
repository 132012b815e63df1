package types

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
)

type UserRole struct {
	UserID    string    `db:"user_id"`
	Role      Role      `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

// Identity is the authenticated caller as resolved by the identity provider.
// The zero value is an unauthenticated caller.
type Identity struct {
	UserID string
	Email  string
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}
