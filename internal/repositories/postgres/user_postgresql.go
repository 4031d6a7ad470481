package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) repositories.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Team").Preload("Designation").Preload("Location")
}

// ===== BASIC CRUD OPERATIONS =====

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return handleDBError(err, "create user")
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.withRelations(r.db.WithContext(ctx)).First(&user, id).Error; err != nil {
		return nil, handleDBError(err, "get user by id")
	}
	return &user, nil
}

func (r *userRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*models.User, error) {
	var user models.User
	if err := r.withRelations(r.db.WithContext(ctx)).
		Where("employee_id = ?", employeeID).
		First(&user).Error; err != nil {
		return nil, handleDBError(err, "get user by employee id")
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	var users []*models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, handleDBError(err, "get users by ids")
	}
	return users, nil
}

// ExistsByEmployeeID also sees soft-deleted rows since the unique index does
func (r *userRepository) ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Unscoped().
		Model(&models.User{}).
		Where("employee_id = ?", employeeID).
		Count(&count).Error; err != nil {
		return false, handleDBError(err, "check employee id")
	}
	return count > 0, nil
}

func (r *userRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	return requireAffected(res, "update user")
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash)
	return requireAffected(res, "update password")
}

func (r *userRepository) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_login_at", at)
	return handleDBError(res.Error, "touch login")
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	return requireAffected(res, "delete user")
}

// ===== QUERY OPERATIONS =====

func (r *userRepository) List(ctx context.Context, filters models.UserFilters) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := r.db.WithContext(ctx).Model(&models.User{})
	if filters.Query != "" {
		p := likePattern(filters.Query)
		query = query.Where("full_name ILIKE ? OR employee_id ILIKE ?", p, p)
	}
	if filters.TeamID != nil {
		query = query.Where("team_id = ?", *filters.TeamID)
	}
	if filters.Role != "" {
		query = query.Where("role = ?", filters.Role)
	}
	switch filters.Status {
	case "pending":
		query = query.Where("password_hash IS NULL OR password_hash = ''")
	case "active":
		query = query.Where("password_hash IS NOT NULL AND password_hash <> ''")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count users")
	}

	query = applyPagination(r.withRelations(query), filters.Page, filters.Size).Order("employee_id ASC")
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, handleDBError(err, "list users")
	}
	return users, total, nil
}

func (r *userRepository) ListShadows(ctx context.Context, parentID uint) ([]*models.User, error) {
	var users []*models.User
	if err := r.db.WithContext(ctx).
		Where("linked_parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, handleDBError(err, "list shadow accounts")
	}
	return users, nil
}
