package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
)

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) repositories.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return handleDBError(err, "create audit log")
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, filters models.AuditFilters) ([]*models.AuditLog, int64, error) {
	var logs []*models.AuditLog
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}
	if filters.Actor != "" {
		query = query.Where("actor = ?", filters.Actor)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count audit logs")
	}

	query = applyPagination(query, filters.Page, filters.Size).Order("timestamp DESC, id DESC")
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, handleDBError(err, "list audit logs")
	}
	return logs, total, nil
}

func (r *auditRepository) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 10
	}
	var logs []models.AuditLog
	if err := r.db.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, handleDBError(err, "recent audit logs")
	}
	return logs, nil
}
