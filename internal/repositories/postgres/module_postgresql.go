package postgres

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
)

type moduleRepository struct {
	db *gorm.DB
}

func NewModuleRepository(db *gorm.DB) repositories.ModuleRepository {
	return &moduleRepository{db: db}
}

func (r *moduleRepository) Create(ctx context.Context, module *models.Module) error {
	if err := r.db.WithContext(ctx).Create(module).Error; err != nil {
		return handleDBError(err, "create module")
	}
	return nil
}

func (r *moduleRepository) GetByID(ctx context.Context, id uint) (*models.Module, error) {
	var module models.Module
	if err := r.db.WithContext(ctx).First(&module, id).Error; err != nil {
		return nil, handleDBError(err, "get module by id")
	}
	return &module, nil
}

func (r *moduleRepository) GetBySlug(ctx context.Context, slug string) (*models.Module, error) {
	var module models.Module
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&module).Error; err != nil {
		return nil, handleDBError(err, "get module by slug")
	}
	return &module, nil
}

func (r *moduleRepository) Update(ctx context.Context, module *models.Module) error {
	res := r.db.WithContext(ctx).Model(module).
		Select("slug", "title", "description", "passing_marks", "is_active", "content").
		Updates(module)
	return requireAffected(res, "update module")
}

func (r *moduleRepository) UpdateContent(ctx context.Context, id uint, content models.ModuleContent) error {
	res := r.db.WithContext(ctx).Model(&models.Module{}).
		Where("id = ?", id).
		Update("content", datatypes.NewJSONType(content))
	return requireAffected(res, "update module content")
}

func (r *moduleRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Module{}, id)
	return requireAffected(res, "delete module")
}

func (r *moduleRepository) List(ctx context.Context, activeOnly bool) ([]*models.Module, error) {
	var modules []*models.Module
	query := r.db.WithContext(ctx).Order("title ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&modules).Error; err != nil {
		return nil, handleDBError(err, "list modules")
	}
	return modules, nil
}
