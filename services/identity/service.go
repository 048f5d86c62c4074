package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	identityRepo "staycal/database/repository/identity"
	"staycal/models"
	"staycal/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minSecretLen = 4
	maxSecretLen = 32
	maxNameLen   = 32
)

// Register validates the name and secret, stores the user with a
// hashed secret, and issues a session token.
func (s *DefaultIdentityService) Register(ctx context.Context, name, secret string) (*AuthResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return nil, fmt.Errorf("name must be between 1 and %d characters", maxNameLen)
	}
	if len(secret) < minSecretLen || len(secret) > maxSecretLen {
		return nil, fmt.Errorf("secret must be between %d and %d characters", minSecretLen, maxSecretLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		utils.GetLogger().Error("Register: failed to hash secret", zap.Error(err))
		return nil, fmt.Errorf("registration failed, please try again")
	}

	user := &models.User{ID: name, SecretHash: string(hash)}
	if err := s.Repo.Create(ctx, user); err != nil {
		if errors.Is(err, identityRepo.ErrDuplicateName) {
			return nil, ErrAlreadyExists
		}
		utils.GetLogger().Error("Register: failed to create user", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("registration failed, please try again")
	}

	return s.issueToken(ctx, user.ID)
}

// Authenticate verifies the name/secret pair and issues a fresh
// session token, replacing any previous one for the user.
func (s *DefaultIdentityService) Authenticate(ctx context.Context, name, secret string) (*AuthResponse, error) {
	user, err := s.Repo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		utils.GetLogger().Error("Authenticate: failed to fetch user", zap.Error(err))
		return nil, fmt.Errorf("authentication failed, please try again")
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.SecretHash), []byte(secret)); err != nil {
		return nil, ErrInvalidCredential
	}
	return s.issueToken(ctx, user.ID)
}

func (s *DefaultIdentityService) issueToken(ctx context.Context, userID string) (*AuthResponse, error) {
	token, err := utils.GenerateToken(userID)
	if err != nil {
		utils.GetLogger().Error("Failed to generate auth token", zap.Error(err))
		return nil, fmt.Errorf("authentication failed, please try again")
	}
	if s.Sessions != nil {
		if err := s.Sessions.Save(ctx, userID, utils.HashToken(token)); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}
	return &AuthResponse{ID: userID, Token: token}, nil
}

// RevokeToken invalidates the user's current session.
func (s *DefaultIdentityService) RevokeToken(ctx context.Context, userID string) error {
	if s.Sessions == nil {
		return nil
	}
	return s.Sessions.Delete(ctx, userID)
}

// Users lists all registered participants for the client's roster.
func (s *DefaultIdentityService) Users(ctx context.Context) ([]models.User, error) {
	return s.Repo.GetAll(ctx)
}
