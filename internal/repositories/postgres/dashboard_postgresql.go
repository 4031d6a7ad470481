package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

// ===== DASHBOARD STATS =====

// UserCounts counts drivers only; shadow accounts are excluded.
func (r *dashboardRepository) UserCounts(ctx context.Context) (repositories.UserCounts, error) {
	var out struct {
		Total   int64
		Pending int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select(`COUNT(*) AS total,
			COUNT(*) FILTER (WHERE password_hash IS NULL OR password_hash = '') AS pending`).
		Where("role = ? AND linked_parent_id IS NULL", models.RoleBasic).
		Scan(&out).Error; err != nil {
		return repositories.UserCounts{}, fmt.Errorf("failed to get user counts: %w", err)
	}
	return repositories.UserCounts{Total: out.Total, Pending: out.Pending}, nil
}

func (r *dashboardRepository) ModuleCounts(ctx context.Context) (repositories.ModuleCounts, error) {
	var out struct {
		Total  int64
		Active int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Module{}).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE is_active) AS active").
		Scan(&out).Error; err != nil {
		return repositories.ModuleCounts{}, fmt.Errorf("failed to get module counts: %w", err)
	}
	return repositories.ModuleCounts{Total: out.Total, Active: out.Active}, nil
}

// ===== METRICS =====

func (r *dashboardRepository) AssignmentCounts(ctx context.Context) (repositories.AssignmentCounts, error) {
	var out struct {
		Total             int64
		TrainingCompleted int64
		Passed            int64
		Failed            int64
		AverageMarks      float64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.TrainingAssignment{}).
		Select(`COUNT(*) AS total,
			COUNT(*) FILTER (WHERE training_status = ?) AS training_completed,
			COUNT(*) FILTER (WHERE test_status = ?) AS passed,
			COUNT(*) FILTER (WHERE test_status = ?) AS failed,
			COALESCE(AVG(marks_obtained), 0) AS average_marks`,
			models.TrainingCompleted, models.TestPassed, models.TestFailed).
		Scan(&out).Error; err != nil {
		return repositories.AssignmentCounts{}, fmt.Errorf("failed to get assignment counts: %w", err)
	}

	var groups []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.TrainingAssignment{}).
		Select("training_status AS status, COUNT(*) AS count").
		Group("training_status").
		Scan(&groups).Error; err != nil {
		return repositories.AssignmentCounts{}, fmt.Errorf("failed to get status distribution: %w", err)
	}

	byStatus := make(map[string]int64, len(groups))
	for _, g := range groups {
		byStatus[g.Status] = g.Count
	}

	return repositories.AssignmentCounts{
		Total:             out.Total,
		TrainingCompleted: out.TrainingCompleted,
		Passed:            out.Passed,
		Failed:            out.Failed,
		AverageMarks:      out.AverageMarks,
		ByTrainingStatus:  byStatus,
	}, nil
}

// ===== BREAKDOWNS =====

func (r *dashboardRepository) ModuleBreakdown(ctx context.Context) ([]models.ModuleCompletion, error) {
	var rows []models.ModuleCompletion
	if err := r.db.WithContext(ctx).
		Table("modules m").
		Select(`m.id AS module_id, m.title,
			COUNT(a.id) AS assigned,
			COUNT(a.id) FILTER (WHERE a.training_status = ?) AS completed,
			COUNT(a.id) FILTER (WHERE a.test_status = ?) AS passed`,
			models.TrainingCompleted, models.TestPassed).
		Joins("LEFT JOIN training_assignments a ON a.module_id = m.id").
		Where("m.deleted_at IS NULL").
		Group("m.id, m.title").
		Order("m.title ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get module breakdown: %w", err)
	}
	return rows, nil
}

func (r *dashboardRepository) TeamBreakdown(ctx context.Context) ([]models.TeamCompletion, error) {
	var rows []models.TeamCompletion
	if err := r.db.WithContext(ctx).
		Table("training_assignments a").
		Select(`u.team_id, COALESCE(t.name, 'Unassigned') AS team_name,
			COUNT(a.id) AS assigned,
			COUNT(a.id) FILTER (WHERE a.training_status = ?) AS completed`,
			models.TrainingCompleted).
		Joins("JOIN users u ON u.id = a.user_id AND u.deleted_at IS NULL").
		Joins("LEFT JOIN teams t ON t.id = u.team_id").
		Group("u.team_id, t.name").
		Order("team_name ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get team breakdown: %w", err)
	}
	return rows, nil
}
