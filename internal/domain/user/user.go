package user

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("user not found")

// User holds the account fields the order workflow reads. Account management
// itself lives behind the users surface and is not handled here.
type User struct {
	ID      string
	Name    string
	Email   string
	IsAdmin bool
}

// Repository provides read access to user accounts.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}
