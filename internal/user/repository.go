package user

import (
	"context"
	"errors"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository persists user records. Email lookups are exact matches.
type Repository interface {
	// Create stores u and fills in its ID and CreatedAt.
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfilePicture(ctx context.Context, id, picture string) error
}
