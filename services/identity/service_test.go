package identity_test

import (
	"context"
	"testing"

	identityRepo "staycal/database/repository/identity"
	"staycal/services/identity"
	"staycal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memorySessions is a SessionStore fake for tests.
type memorySessions struct {
	hashes map[string]string
}

func newMemorySessions() *memorySessions {
	return &memorySessions{hashes: make(map[string]string)}
}

func (m *memorySessions) Save(ctx context.Context, userID, tokenHash string) error {
	m.hashes[userID] = tokenHash
	return nil
}

func (m *memorySessions) Get(ctx context.Context, userID string) (string, error) {
	return m.hashes[userID], nil
}

func (m *memorySessions) Delete(ctx context.Context, userID string) error {
	delete(m.hashes, userID)
	return nil
}

func newService(t *testing.T) (*identity.DefaultIdentityService, *memorySessions) {
	t.Helper()
	repo, err := identityRepo.NewMemoryUserRepo("")
	require.NoError(t, err)
	sessions := newMemorySessions()
	return &identity.DefaultIdentityService{Repo: repo, Sessions: sessions}, sessions
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, sessions := newService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, "Kim", "1234")
	require.NoError(t, err)
	assert.Equal(t, "Kim", resp.ID)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, utils.HashToken(resp.Token), sessions.hashes["Kim"])

	// The issued token names the user.
	userID, err := utils.ExtractIDFromToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "Kim", userID)

	auth, err := svc.Authenticate(ctx, "Kim", "1234")
	require.NoError(t, err)
	assert.Equal(t, "Kim", auth.ID)
	assert.NotEmpty(t, auth.Token)
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Kim", "1234")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Kim", "5678")
	assert.ErrorIs(t, err, identity.ErrAlreadyExists)
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "1234")
	require.Error(t, err)

	_, err = svc.Register(ctx, "Kim", "123")
	require.Error(t, err)

	_, err = svc.Register(ctx, "   ", "1234")
	require.Error(t, err)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Kim", "1234")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "Kim", "wrong")
	assert.ErrorIs(t, err, identity.ErrInvalidCredential)

	// Unknown user reads the same as a wrong secret.
	_, err = svc.Authenticate(ctx, "Nobody", "1234")
	assert.ErrorIs(t, err, identity.ErrInvalidCredential)
}

func TestNewLoginSupersedesOldSession(t *testing.T) {
	svc, sessions := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Kim", "1234")
	require.NoError(t, err)

	second, err := svc.Authenticate(ctx, "Kim", "1234")
	require.NoError(t, err)

	// Only the most recent token passes the session check.
	assert.Equal(t, utils.HashToken(second.Token), sessions.hashes["Kim"])
}

func TestRevokeTokenClearsSession(t *testing.T) {
	svc, sessions := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Kim", "1234")
	require.NoError(t, err)
	require.NoError(t, svc.RevokeToken(ctx, "Kim"))
	assert.Empty(t, sessions.hashes["Kim"])
}

func TestUsersListsRoster(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, name := range []string{"Kim", "Lee", "Park"} {
		_, err := svc.Register(ctx, name, "1234")
		require.NoError(t, err)
	}

	users, err := svc.Users(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.ID)
		assert.NotEqual(t, "1234", u.SecretHash, "secret must never be stored raw")
	}
	assert.ElementsMatch(t, []string{"Kim", "Lee", "Park"}, names)
}
