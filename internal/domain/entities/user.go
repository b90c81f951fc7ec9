package entities

import (
	"time"
)

// UserRole represents a user's role
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleStaff    UserRole = "staff"
	UserRoleAdmin    UserRole = "admin"
)

// User represents an account. Authentication is handled by an external
// provider; this service only reads identity attributes.
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Role      UserRole  `json:"role" db:"role"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
