package models

import (
	"time"

	"gorm.io/datatypes"
)

type TrainingStatus string

const (
	TrainingNotStarted TrainingStatus = "NOT_STARTED"
	TrainingOngoing    TrainingStatus = "ONGOING"
	TrainingCompleted  TrainingStatus = "COMPLETED"
)

type TestStatus string

const (
	TestNotStarted TestStatus = "NOT_STARTED"
	TestOngoing    TestStatus = "ONGOING"
	TestPassed     TestStatus = "PASSED"
	TestFailed     TestStatus = "FAILED"
)

// CanTransitionTraining enforces NOT_STARTED -> ONGOING -> COMPLETED.
func CanTransitionTraining(from, to TrainingStatus) bool {
	switch from {
	case TrainingNotStarted:
		return to == TrainingOngoing
	case TrainingOngoing:
		return to == TrainingCompleted
	default:
		return false
	}
}

// CanTransitionTest enforces NOT_STARTED -> ONGOING -> PASSED|FAILED, with FAILED restartable.
func CanTransitionTest(from, to TestStatus) bool {
	switch from {
	case TestNotStarted, TestFailed:
		return to == TestOngoing
	case TestOngoing:
		return to == TestPassed || to == TestFailed
	default:
		return false
	}
}

type TrainingAssignment struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	UserID         uint           `json:"user_id" gorm:"not null;uniqueIndex:idx_assignment_user_module"`
	ModuleID       uint           `json:"module_id" gorm:"not null;uniqueIndex:idx_assignment_user_module;index"`
	TrainingStatus TrainingStatus `json:"training_status" gorm:"not null;size:20;default:NOT_STARTED;index"`
	TestStatus     TestStatus     `json:"test_status" gorm:"not null;size:20;default:NOT_STARTED;index"`
	MarksObtained  *float64       `json:"marks_obtained"`
	Attempts       int            `json:"attempts" gorm:"not null;default:0"`
	LastAnswers    datatypes.JSON `json:"last_answers,omitempty" gorm:"type:jsonb"`
	AssignedBy     *uint          `json:"assigned_by,omitempty"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
	CompletionDate *time.Time     `json:"completion_date,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Module *Module `json:"module,omitempty" gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE"`
}

func (TrainingAssignment) TableName() string {
	return "training_assignments"
}

// AssignmentView is what a driver sees in their assignment list.
type AssignmentView struct {
	ID             uint           `json:"id"`
	ModuleID       uint           `json:"module_id"`
	ModuleSlug     string         `json:"module_slug"`
	ModuleTitle    string         `json:"module_title"`
	TrainingStatus TrainingStatus `json:"training_status"`
	TestStatus     TestStatus     `json:"test_status"`
	MarksObtained  *float64       `json:"marks_obtained"`
	PassingMarks   int            `json:"passing_marks"`
	CanStartTest   bool           `json:"can_start_test"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
	CompletionDate *time.Time     `json:"completion_date,omitempty"`
}
