package identity

import (
	"context"
	"errors"

	identityRepo "staycal/database/repository/identity"
	"staycal/models"
)

// ErrAlreadyExists rejects registration under a taken name.
var ErrAlreadyExists = errors.New("a user with this name already exists")

// ErrInvalidCredential rejects authentication with a wrong name or
// secret. The two cases are deliberately indistinguishable.
var ErrInvalidCredential = errors.New("invalid name or secret")

// IdentityService registers and authenticates calendar participants.
// The reservation core consumes only the validated user ID; secrets
// never leave this boundary.
type IdentityService interface {
	Register(ctx context.Context, name, secret string) (*AuthResponse, error)
	Authenticate(ctx context.Context, name, secret string) (*AuthResponse, error)
	RevokeToken(ctx context.Context, userID string) error
	Users(ctx context.Context) ([]models.User, error)
}

// SessionStore holds the hash of each user's current token so sessions
// can be revoked server-side.
type SessionStore interface {
	Save(ctx context.Context, userID, tokenHash string) error
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}

// AuthResponse carries the validated user ID and session token.
type AuthResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// DefaultIdentityService is the production implementation.
type DefaultIdentityService struct {
	Repo     identityRepo.UserRepository
	Sessions SessionStore
}
