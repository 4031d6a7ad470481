package pkg

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/config"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/security"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
)

type seedUsers struct {
	repositories.UserRepository
	byID    map[string]*models.User
	lookErr error
}

func (s *seedUsers) GetByEmployeeID(ctx context.Context, employeeID string) (*models.User, error) {
	if s.lookErr != nil {
		return nil, s.lookErr
	}
	if u, ok := s.byID[employeeID]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (s *seedUsers) Create(ctx context.Context, user *models.User) error {
	s.byID[user.EmployeeID] = user
	return nil
}

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	hasher := security.NewPasswordHasherWithCost(4)
	cfg := config.SeedAdminConfig{EmployeeID: "ADMIN", Password: "changeme", FullName: "Fleet Admin"}

	users := &seedUsers{byID: map[string]*models.User{}}
	require.NoError(t, SeedAdmin(ctx, users, hasher, cfg, logger))

	admin := users.byID["ADMIN"]
	require.NotNil(t, admin)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	require.NotNil(t, admin.PasswordHash)
	assert.True(t, hasher.Verify(*admin.PasswordHash, "changeme"))

	// Rerunning keeps the existing account
	existing := admin.PasswordHash
	require.NoError(t, SeedAdmin(ctx, users, hasher, config.SeedAdminConfig{EmployeeID: "ADMIN", Password: "other"}, logger))
	assert.Same(t, existing, users.byID["ADMIN"].PasswordHash)

	empty := &seedUsers{byID: map[string]*models.User{}}
	require.NoError(t, SeedAdmin(ctx, empty, hasher, config.SeedAdminConfig{}, logger))
	assert.Empty(t, empty.byID, "nothing is seeded without credentials")

	broken := &seedUsers{byID: map[string]*models.User{}, lookErr: errors.New("connection reset")}
	assert.Error(t, SeedAdmin(ctx, broken, hasher, cfg, logger))
}
