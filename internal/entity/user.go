package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRole string

const (
	RoleBuyer UserRole = "buyer"
	RoleOwner UserRole = "owner"
	RoleStaff UserRole = "staff"
	RoleAgent UserRole = "agent"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleBuyer, RoleOwner, RoleStaff, RoleAgent:
		return true
	}
	return false
}

type AuthProvider string

const (
	ProviderEmail  AuthProvider = "email"
	ProviderGoogle AuthProvider = "google"
)

type User struct {
	ID           primitive.ObjectID
	FirstName    string
	LastName     string
	Email        string
	Username     string
	Password     string // bcrypt hash
	IsVerified   bool
	IsActive     bool
	IsSuperuser  bool
	Role         UserRole
	AuthProvider AuthProvider
	Avatar       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Session is the single live refresh-token row for a user. A new login
// replaces any previous session.
type Session struct {
	ID        primitive.ObjectID
	UserID    primitive.ObjectID
	Token     string
	ExpiredAt time.Time
}

// Ticket is a one-time random token mailed to a user to authorize an
// out-of-band action (email verification or password reset).
type Ticket struct {
	ID        primitive.ObjectID
	Email     string
	Token     string
	CreatedAt time.Time
}
