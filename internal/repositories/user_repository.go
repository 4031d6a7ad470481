package repositories

import (
	"context"
	"time"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
)

// UserRepository owns the users table
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.User, error)
	ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error)

	// UpdateFields writes only the given columns; last writer wins.
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	TouchLogin(ctx context.Context, id uint, at time.Time) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters models.UserFilters) ([]*models.User, int64, error)
	ListShadows(ctx context.Context, parentID uint) ([]*models.User, error)
}

// MasterDataRepository covers teams, designations and locations
type MasterDataRepository interface {
	List(ctx context.Context, kind models.MasterDataKind) ([]models.MasterDataItem, error)
	Create(ctx context.Context, kind models.MasterDataKind, name string) (*models.MasterDataItem, error)
	Rename(ctx context.Context, kind models.MasterDataKind, id uint, name string) error
	// Delete detaches referencing users before removing the row.
	Delete(ctx context.Context, kind models.MasterDataKind, id uint) error
	Exists(ctx context.Context, kind models.MasterDataKind, id uint) (bool, error)
}
