package pkg

import (
	"context"
	"errors"
	"fmt"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/config"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/security"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
)

// SeedAdmin creates the bootstrap admin account once. An existing account with
// the same employee id is left untouched, whatever its role or password.
func SeedAdmin(ctx context.Context, users repositories.UserRepository, hasher security.PasswordHasher, cfg config.SeedAdminConfig, logger utils.Logger) error {
	if cfg.EmployeeID == "" || cfg.Password == "" {
		return nil
	}

	_, err := users.GetByEmployeeID(ctx, cfg.EmployeeID)
	switch {
	case err == nil:
		logger.Debug("Seed admin already present", "employee_id", cfg.EmployeeID)
		return nil
	case !errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("failed to look up seed admin: %w", err)
	}

	hash, err := hasher.Hash(cfg.Password)
	if err != nil {
		return fmt.Errorf("failed to hash seed admin password: %w", err)
	}
	admin := &models.User{
		EmployeeID:   cfg.EmployeeID,
		FullName:     cfg.FullName,
		Role:         models.RoleAdmin,
		PasswordHash: &hash,
	}
	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("failed to create seed admin: %w", err)
	}
	logger.Info("Seed admin created", "employee_id", cfg.EmployeeID)
	return nil
}
