package identityRepo

import (
	"context"

	"staycal/models"
)

// UserRepository defines methods for participant data access.
type UserRepository interface {
	// GetByName retrieves a user by display name. Returns (nil, nil)
	// when no such user exists.
	GetByName(ctx context.Context, name string) (*models.User, error)
	// Create inserts a new user record. Duplicate names fail.
	Create(ctx context.Context, user *models.User) error
	// GetAll retrieves all registered users.
	GetAll(ctx context.Context) ([]models.User, error)
}
