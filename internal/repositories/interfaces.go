package repositories

import (
	"context"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
)

type ModuleRepository interface {
	Create(ctx context.Context, module *models.Module) error
	GetByID(ctx context.Context, id uint) (*models.Module, error)
	GetBySlug(ctx context.Context, slug string) (*models.Module, error)
	Update(ctx context.Context, module *models.Module) error
	// UpdateContent replaces only the content document.
	UpdateContent(ctx context.Context, id uint, content models.ModuleContent) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, activeOnly bool) ([]*models.Module, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.TrainingAssignment) error
	GetByID(ctx context.Context, id uint) (*models.TrainingAssignment, error)
	GetByUserAndModule(ctx context.Context, userID, moduleID uint) (*models.TrainingAssignment, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.TrainingAssignment, error)
	List(ctx context.Context, filters models.AssignmentFilters) ([]*models.TrainingAssignment, int64, error)
	Update(ctx context.Context, assignment *models.TrainingAssignment) error
	Delete(ctx context.Context, id uint) error
	ReportRows(ctx context.Context, filters models.AssignmentFilters) ([]models.ReportRow, error)
}

type AuditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filters models.AuditFilters) ([]*models.AuditLog, int64, error)
	Recent(ctx context.Context, limit int) ([]models.AuditLog, error)
}
