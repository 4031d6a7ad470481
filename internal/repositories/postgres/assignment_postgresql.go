package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
)

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) repositories.AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.TrainingAssignment) error {
	if err := r.db.WithContext(ctx).Omit("User", "Module").Create(assignment).Error; err != nil {
		return handleDBError(err, "create assignment")
	}
	return nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (*models.TrainingAssignment, error) {
	var a models.TrainingAssignment
	if err := r.db.WithContext(ctx).Preload("Module").Preload("User").First(&a, id).Error; err != nil {
		return nil, handleDBError(err, "get assignment by id")
	}
	return &a, nil
}

func (r *assignmentRepository) GetByUserAndModule(ctx context.Context, userID, moduleID uint) (*models.TrainingAssignment, error) {
	var a models.TrainingAssignment
	if err := r.db.WithContext(ctx).
		Preload("Module").
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&a).Error; err != nil {
		return nil, handleDBError(err, "get assignment by user and module")
	}
	return &a, nil
}

func (r *assignmentRepository) ListByUser(ctx context.Context, userID uint) ([]*models.TrainingAssignment, error) {
	var list []*models.TrainingAssignment
	if err := r.db.WithContext(ctx).
		Joins("Module").
		Where("training_assignments.user_id = ?", userID).
		Order("training_assignments.created_at ASC").
		Find(&list).Error; err != nil {
		return nil, handleDBError(err, "list assignments by user")
	}
	return list, nil
}

func (r *assignmentRepository) applyFilters(query *gorm.DB, filters models.AssignmentFilters) *gorm.DB {
	if filters.ModuleID != nil {
		query = query.Where("training_assignments.module_id = ?", *filters.ModuleID)
	}
	if filters.UserID != nil {
		query = query.Where("training_assignments.user_id = ?", *filters.UserID)
	}
	if filters.TeamID != nil {
		query = query.Where("training_assignments.user_id IN (?)",
			r.db.Model(&models.User{}).Select("id").Where("team_id = ?", *filters.TeamID))
	}
	if filters.TrainingStatus != "" {
		query = query.Where("training_assignments.training_status = ?", filters.TrainingStatus)
	}
	if filters.TestStatus != "" {
		query = query.Where("training_assignments.test_status = ?", filters.TestStatus)
	}
	return query
}

func (r *assignmentRepository) List(ctx context.Context, filters models.AssignmentFilters) ([]*models.TrainingAssignment, int64, error) {
	var list []*models.TrainingAssignment
	var total int64

	query := r.applyFilters(r.db.WithContext(ctx).Model(&models.TrainingAssignment{}), filters)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count assignments")
	}

	query = applyPagination(query.Preload("User").Preload("Module"), filters.Page, filters.Size).
		Order("training_assignments.created_at DESC")
	if err := query.Find(&list).Error; err != nil {
		return nil, 0, handleDBError(err, "list assignments")
	}
	return list, total, nil
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.TrainingAssignment) error {
	res := r.db.WithContext(ctx).Model(assignment).
		Select("training_status", "test_status", "marks_obtained", "attempts", "last_answers", "due_date", "completion_date").
		Updates(assignment)
	return requireAffected(res, "update assignment")
}

func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.TrainingAssignment{}, id)
	return requireAffected(res, "delete assignment")
}

func (r *assignmentRepository) ReportRows(ctx context.Context, filters models.AssignmentFilters) ([]models.ReportRow, error) {
	var rows []models.ReportRow
	query := r.db.WithContext(ctx).
		Table("training_assignments").
		Select(`users.employee_id, users.full_name,
			COALESCE(teams.name, '') AS team,
			COALESCE(designations.name, '') AS designation,
			COALESCE(locations.name, '') AS location,
			modules.title AS module_title,
			training_assignments.training_status, training_assignments.test_status,
			training_assignments.marks_obtained, training_assignments.completion_date,
			training_assignments.created_at AS assigned_at`).
		Joins("JOIN users ON users.id = training_assignments.user_id AND users.deleted_at IS NULL").
		Joins("JOIN modules ON modules.id = training_assignments.module_id AND modules.deleted_at IS NULL").
		Joins("LEFT JOIN teams ON teams.id = users.team_id").
		Joins("LEFT JOIN designations ON designations.id = users.designation_id").
		Joins("LEFT JOIN locations ON locations.id = users.location_id")

	query = r.applyFilters(query, filters).Order("users.employee_id ASC, modules.title ASC")
	if err := query.Scan(&rows).Error; err != nil {
		return nil, handleDBError(err, "load report rows")
	}
	return rows, nil
}
