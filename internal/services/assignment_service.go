package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/cache"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

// AssignResult reports a bulk assignment; re-assigning is a no-op
type AssignResult struct {
	Created     int                          `json:"created"`
	Existing    int                          `json:"existing"`
	Assignments []*models.TrainingAssignment `json:"assignments"`
}

type assignmentService struct {
	*Dependencies
	now func() time.Time
}

func NewAssignmentService(deps *Dependencies) AssignmentService {
	return &assignmentService{Dependencies: deps, now: time.Now}
}

// ===== ADMIN OPERATIONS =====

func (s *assignmentService) Assign(ctx context.Context, actor *session.Claims, req *validator.AssignRequest) (*AssignResult, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	module, err := s.Repo.Module().GetByID(ctx, req.ModuleID)
	if err != nil {
		return nil, mapRepoErr(err, ErrModuleNotFound, "load module")
	}
	if !module.IsActive {
		return nil, validationf("module %q is inactive", module.Slug)
	}

	users, err := s.Repo.User().GetByIDs(ctx, req.UserIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	found := make(map[uint]*models.User, len(users))
	for _, u := range users {
		found[u.ID] = u
	}
	for _, id := range req.UserIDs {
		if _, ok := found[id]; !ok {
			return nil, validationf("user %d does not exist", id)
		}
	}

	var assignedBy *uint
	if actor.RecordID != 0 {
		id := actor.RecordID
		assignedBy = &id
	}

	result := &AssignResult{}
	seen := make(map[uint]struct{}, len(req.UserIDs))
	err = s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		for _, userID := range req.UserIDs {
			if _, dup := seen[userID]; dup {
				continue
			}
			seen[userID] = struct{}{}

			existing, err := tx.Assignment().GetByUserAndModule(ctx, userID, module.ID)
			if err == nil {
				result.Existing++
				result.Assignments = append(result.Assignments, existing)
				continue
			}
			if !errors.Is(err, repositories.ErrNotFound) {
				return err
			}

			a := &models.TrainingAssignment{
				UserID:         userID,
				ModuleID:       module.ID,
				TrainingStatus: models.TrainingNotStarted,
				TestStatus:     models.TestNotStarted,
				AssignedBy:     assignedBy,
				DueDate:        req.DueDate,
			}
			if err := tx.Assignment().Create(ctx, a); err != nil {
				return err
			}
			result.Created++
			result.Assignments = append(result.Assignments, a)
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err, ErrAssignmentNotFound, "assign module")
	}

	for id := range seen {
		cache.InvalidateAssignments(ctx, s.Cache, found[id].EmployeeID)
	}
	s.Recorder.Record(ctx, models.AuditAssignmentCreated, actor.UserID, fmt.Sprint(module.ID), map[string]interface{}{
		"created":  result.Created,
		"existing": result.Existing,
	})
	s.Logger.Info("Module assigned", "module_id", module.ID, "created", result.Created, "existing", result.Existing)
	return result, nil
}

func (s *assignmentService) List(ctx context.Context, actor *session.Claims, filters models.AssignmentFilters) (*models.PaginatedResponse, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if filters.TrainingStatus != "" && !validTrainingStatus(filters.TrainingStatus) {
		return nil, validationf("unknown training status %q", filters.TrainingStatus)
	}
	if filters.TestStatus != "" && !validTestStatus(filters.TestStatus) {
		return nil, validationf("unknown test status %q", filters.TestStatus)
	}
	filters.Page = pageNumber(filters.Page)
	filters.Size = pageSize(filters.Size)

	list, total, err := s.Repo.Assignment().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	for _, a := range list {
		if a.User != nil {
			a.User.PasswordHash = nil
		}
		if a.Module != nil {
			a.Module.Content = datatypes.JSONType[models.ModuleContent]{}
		}
	}
	return models.NewPage(list, len(list), total, filters.Page, filters.Size), nil
}

func (s *assignmentService) Delete(ctx context.Context, actor *session.Claims, id uint) error {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return err
	}

	a, err := s.Repo.Assignment().GetByID(ctx, id)
	if err != nil {
		return mapRepoErr(err, ErrAssignmentNotFound, "load assignment")
	}
	if err := s.Repo.Assignment().Delete(ctx, id); err != nil {
		return mapRepoErr(err, ErrAssignmentNotFound, "delete assignment")
	}

	if a.User != nil {
		cache.InvalidateAssignments(ctx, s.Cache, a.User.EmployeeID)
	}
	s.Recorder.Record(ctx, models.AuditAssignmentDeleted, actor.UserID, fmt.Sprint(id), map[string]interface{}{
		"module_id": a.ModuleID,
		"user_id":   a.UserID,
	})
	return nil
}

// ===== DRIVER OPERATIONS =====

func (s *assignmentService) MyAssignments(ctx context.Context, actor *session.Claims) ([]models.AssignmentView, error) {
	if err := authorize(actor, models.RoleBasic); err != nil {
		return nil, err
	}

	var views []models.AssignmentView
	err := s.Cache.View.CacheOrExecute(ctx, cache.ViewKey(actor.UserID, "assignments"), &views, cache.ViewCacheConfig.TTL, func() (interface{}, error) {
		return s.loadViews(ctx, actor.RecordID)
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *assignmentService) loadViews(ctx context.Context, userID uint) ([]models.AssignmentView, error) {
	list, err := s.Repo.Assignment().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	views := make([]models.AssignmentView, 0, len(list))
	for _, a := range list {
		if a.Module != nil && !a.Module.IsActive {
			continue
		}
		views = append(views, toAssignmentView(a))
	}
	return views, nil
}

func (s *assignmentService) MyDashboard(ctx context.Context, actor *session.Claims) (*models.DriverDashboard, error) {
	if err := authorize(actor, models.RoleBasic); err != nil {
		return nil, err
	}

	var dash models.DriverDashboard
	err := s.Cache.View.CacheOrExecute(ctx, cache.ViewKey(actor.UserID, "dashboard"), &dash, cache.ViewCacheConfig.TTL, func() (interface{}, error) {
		user, err := s.Repo.User().GetByID(ctx, actor.RecordID)
		if err != nil {
			return nil, mapRepoErr(err, ErrUserNotFound, "load user")
		}
		views, err := s.loadViews(ctx, actor.RecordID)
		if err != nil {
			return nil, err
		}

		d := &models.DriverDashboard{
			EmployeeID:  user.EmployeeID,
			FullName:    user.FullName,
			Assigned:    len(views),
			Assignments: views,
		}
		for _, v := range views {
			if v.TrainingStatus == models.TrainingCompleted {
				d.Completed++
			}
			if v.TestStatus == models.TestPassed {
				d.Passed++
			} else {
				d.Pending++
			}
		}
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return &dash, nil
}

// StartTraining is idempotent while the training is ongoing
func (s *assignmentService) StartTraining(ctx context.Context, actor *session.Claims, id uint) (*models.AssignmentView, error) {
	return s.transition(ctx, actor, id, func(a *models.TrainingAssignment) (bool, error) {
		if a.TrainingStatus == models.TrainingOngoing {
			return false, nil
		}
		if !models.CanTransitionTraining(a.TrainingStatus, models.TrainingOngoing) {
			return false, fmt.Errorf("%w: training is %s", ErrInvalidTransition, a.TrainingStatus)
		}
		a.TrainingStatus = models.TrainingOngoing
		return true, nil
	})
}

func (s *assignmentService) CompleteTraining(ctx context.Context, actor *session.Claims, id uint) (*models.AssignmentView, error) {
	view, err := s.transition(ctx, actor, id, func(a *models.TrainingAssignment) (bool, error) {
		if !models.CanTransitionTraining(a.TrainingStatus, models.TrainingCompleted) {
			return false, fmt.Errorf("%w: training is %s", ErrInvalidTransition, a.TrainingStatus)
		}
		a.TrainingStatus = models.TrainingCompleted
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.Recorder.Record(ctx, models.AuditTrainingCompleted, actor.UserID, fmt.Sprint(id), map[string]interface{}{
		"module_id": view.ModuleID,
	})
	return view, nil
}

// StartTest is only allowed after the training is completed; a failed test may be retaken
func (s *assignmentService) StartTest(ctx context.Context, actor *session.Claims, id uint) (*models.AssignmentView, error) {
	return s.transition(ctx, actor, id, func(a *models.TrainingAssignment) (bool, error) {
		if a.TrainingStatus != models.TrainingCompleted {
			return false, ErrTestLocked
		}
		if a.TestStatus == models.TestOngoing {
			return false, nil
		}
		if !models.CanTransitionTest(a.TestStatus, models.TestOngoing) {
			return false, fmt.Errorf("%w: test is %s", ErrInvalidTransition, a.TestStatus)
		}
		a.TestStatus = models.TestOngoing
		return true, nil
	})
}

// SubmitTest grades the answers against the assessment quiz slides. Marks are
// the percentage of correctly answered quiz slides.
func (s *assignmentService) SubmitTest(ctx context.Context, actor *session.Claims, id uint, req *validator.SubmitTestRequest) (*models.TestResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	var result *models.TestResult
	_, err := s.transition(ctx, actor, id, func(a *models.TrainingAssignment) (bool, error) {
		if a.TestStatus != models.TestOngoing {
			return false, fmt.Errorf("%w: test is %s", ErrInvalidTransition, a.TestStatus)
		}
		if a.Module == nil {
			return false, ErrModuleNotFound
		}

		correct, total := GradeAnswers(a.Module.Content.Data().Assessment.Slides, req.Answers)
		if total == 0 {
			return false, validationf("module has no quiz questions")
		}
		marks := percentage(int64(correct), int64(total))
		status := models.TestFailed
		if marks >= float64(a.Module.PassingMarks) {
			status = models.TestPassed
		}

		answers, err := json.Marshal(req.Answers)
		if err != nil {
			return false, fmt.Errorf("failed to encode answers: %w", err)
		}

		a.TestStatus = status
		a.MarksObtained = &marks
		a.Attempts++
		a.LastAnswers = datatypes.JSON(answers)
		if status == models.TestPassed {
			done := s.now().UTC()
			a.CompletionDate = &done
		}

		result = &models.TestResult{
			AssignmentID:  a.ID,
			Correct:       correct,
			Total:         total,
			MarksObtained: marks,
			PassingMarks:  a.Module.PassingMarks,
			Status:        status,
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.Recorder.Record(ctx, models.AuditTestSubmitted, actor.UserID, fmt.Sprint(id), map[string]interface{}{
		"marks":  result.MarksObtained,
		"status": result.Status,
	})
	return result, nil
}

// transition loads the caller's own assignment inside a transaction, applies
// fn and saves when fn reports a change
func (s *assignmentService) transition(ctx context.Context, actor *session.Claims, id uint, fn func(*models.TrainingAssignment) (bool, error)) (*models.AssignmentView, error) {
	if err := authorize(actor, models.RoleBasic); err != nil {
		return nil, err
	}

	var saved *models.TrainingAssignment
	err := s.Repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		a, err := tx.Assignment().GetByID(ctx, id)
		if err != nil {
			return err
		}
		// Another driver's assignment is reported as missing
		if a.UserID != actor.RecordID {
			return ErrAssignmentNotFound
		}
		if a.Module != nil && !a.Module.IsActive {
			return ErrAssignmentNotFound
		}
		changed, err := fn(a)
		if err != nil {
			return err
		}
		if changed {
			if err := tx.Assignment().Update(ctx, a); err != nil {
				return err
			}
		}
		saved = a
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err, ErrAssignmentNotFound, "update assignment")
	}

	cache.InvalidateAssignments(ctx, s.Cache, actor.UserID)
	view := toAssignmentView(saved)
	return &view, nil
}

// GradeAnswers counts quiz slides answered with their correct option
func GradeAnswers(slides []models.Slide, answers map[string]string) (correct, total int) {
	for _, slide := range slides {
		if !slide.IsQuiz() {
			continue
		}
		want, ok := slide.CorrectOption()
		if !ok {
			continue
		}
		total++
		if got, ok := answers[slide.ID]; ok && got == want {
			correct++
		}
	}
	return correct, total
}

func toAssignmentView(a *models.TrainingAssignment) models.AssignmentView {
	v := models.AssignmentView{
		ID:             a.ID,
		ModuleID:       a.ModuleID,
		TrainingStatus: a.TrainingStatus,
		TestStatus:     a.TestStatus,
		MarksObtained:  a.MarksObtained,
		DueDate:        a.DueDate,
		CompletionDate: a.CompletionDate,
		CanStartTest: a.TrainingStatus == models.TrainingCompleted &&
			(a.TestStatus == models.TestNotStarted || a.TestStatus == models.TestFailed),
	}
	if a.Module != nil {
		v.ModuleSlug = a.Module.Slug
		v.ModuleTitle = a.Module.Title
		v.PassingMarks = a.Module.PassingMarks
	}
	return v
}

func validTrainingStatus(s models.TrainingStatus) bool {
	switch s {
	case models.TrainingNotStarted, models.TrainingOngoing, models.TrainingCompleted:
		return true
	}
	return false
}

func validTestStatus(s models.TestStatus) bool {
	switch s {
	case models.TestNotStarted, models.TestOngoing, models.TestPassed, models.TestFailed:
		return true
	}
	return false
}
