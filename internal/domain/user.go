package domain

import "context"

// Built-in role names. Roles gate field projection on list endpoints and are
// carried as a JWT claim.
const (
	RoleAdmin      = "admin"
	RolePharmacist = "pharmacist"
	RoleClerk      = "clerk"
)

// User represents an operator account in the system.
type User struct {
	BaseModel
	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
	Role         string `gorm:"size:50;not null;default:clerk" json:"role"`
}

// UserRepository defines the data access surface the auth module needs on
// top of the generic engine repository.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
