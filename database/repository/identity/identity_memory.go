package identityRepo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"staycal/models"
)

// MemoryUserRepo implements UserRepository in-process, persisting the
// registered users to a single JSON record next to the slot data.
type MemoryUserRepo struct {
	mu       sync.Mutex
	users    map[string]models.User
	dataFile string
}

// NewMemoryUserRepo creates an in-memory UserRepository. dataFile may
// be empty for a purely volatile store (tests).
func NewMemoryUserRepo(dataFile string) (*MemoryUserRepo, error) {
	repo := &MemoryUserRepo{
		users:    make(map[string]models.User),
		dataFile: dataFile,
	}
	if dataFile != "" {
		if err := repo.load(); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

func (r *MemoryUserRepo) load() error {
	data, err := os.ReadFile(r.dataFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read user data file %s: %w", r.dataFile, err)
	}
	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return fmt.Errorf("failed to decode user data file %s: %w", r.dataFile, err)
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return nil
}

func (r *MemoryUserRepo) persist() error {
	if r.dataFile == "" {
		return nil
	}
	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user data: %w", err)
	}
	if err := os.WriteFile(r.dataFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write user data file %s: %w", r.dataFile, err)
	}
	return nil
}

// GetByName retrieves a user by display name.
func (r *MemoryUserRepo) GetByName(ctx context.Context, name string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[name]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// Create inserts a new user record.
func (r *MemoryUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.ID]; exists {
		return ErrDuplicateName
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return r.persist()
}

// GetAll retrieves all registered users.
func (r *MemoryUserRepo) GetAll(ctx context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}
