package validator

import (
	"time"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
)

// ===== AUTH =====

type LoginRequest struct {
	EmployeeID string `json:"employeeId" form:"employeeId" validate:"required,max=50"`
	Password   string `json:"password" form:"password" validate:"required,max=128"`
}

// RegisterRequest is the self-service registration payload
type RegisterRequest struct {
	EmployeeID        string  `json:"employeeId" validate:"required,employee_id"`
	FullName          string  `json:"fullName" validate:"required,name"`
	Password          string  `json:"password" validate:"required,min=6,max=128"`
	Email             *string `json:"email" validate:"omitnil,contact_email"`
	Mobile            *string `json:"mobile" validate:"omitnil,contact_mobile"`
	TeamID            *uint   `json:"teamId"`
	DesignationID     *uint   `json:"designationId"`
	LocationID        *uint   `json:"locationId"`
	PreferredLanguage *string `json:"preferredLanguage" validate:"omitempty,lang_code"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required,max=128"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=128,nefield=CurrentPassword"`
}

type LanguageRequest struct {
	Language string `json:"language" validate:"required,lang_code"`
}

// ===== USERS =====

// CreateUserRequest provisions a pending account; the driver sets a password later
type CreateUserRequest struct {
	EmployeeID        string          `json:"employeeId" validate:"required,employee_id"`
	FullName          string          `json:"fullName" validate:"required,name"`
	Role              models.UserRole `json:"role" validate:"omitempty,user_role"`
	Email             *string         `json:"email" validate:"omitnil,contact_email"`
	Mobile            *string         `json:"mobile" validate:"omitnil,contact_mobile"`
	TeamID            *uint           `json:"teamId"`
	DesignationID     *uint           `json:"designationId"`
	LocationID        *uint           `json:"locationId"`
	PreferredLanguage *string         `json:"preferredLanguage" validate:"omitempty,lang_code"`
}

// UpdateUserRequest changes only the fields that are present.
// A master data id of 0 detaches the user from that kind.
type UpdateUserRequest struct {
	FullName          *string          `json:"fullName" validate:"omitempty,name"`
	Role              *models.UserRole `json:"role" validate:"omitempty,user_role"`
	Email             *string          `json:"email" validate:"omitnil,contact_email"`
	Mobile            *string          `json:"mobile" validate:"omitnil,contact_mobile"`
	TeamID            *uint            `json:"teamId"`
	DesignationID     *uint            `json:"designationId"`
	LocationID        *uint            `json:"locationId"`
	PreferredLanguage *string          `json:"preferredLanguage" validate:"omitempty,lang_code"`
}

type UpdateProfileRequest struct {
	FullName          *string `json:"fullName" validate:"omitempty,name"`
	Email             *string `json:"email" validate:"omitnil,contact_email"`
	Mobile            *string `json:"mobile" validate:"omitnil,contact_mobile"`
	PreferredLanguage *string `json:"preferredLanguage" validate:"omitempty,lang_code"`
}

type ShadowAccountRequest struct {
	FullName string `json:"fullName" validate:"required,name"`
}

type ImpersonateRequest struct {
	UserID uint `json:"userId" validate:"required"`
}

type MasterDataRequest struct {
	Name string `json:"name" validate:"required,name"`
}

// ===== MODULES =====

type ModuleCreateRequest struct {
	Slug         string                `json:"slug" validate:"required,slug"`
	Title        string                `json:"title" validate:"required,min=1,max=200"`
	Description  *string               `json:"description" validate:"omitempty,max=2000"`
	PassingMarks *int                  `json:"passingMarks" validate:"omitempty,min=0,max=100"`
	IsActive     *bool                 `json:"isActive"`
	Content      *models.ModuleContent `json:"content"`
}

type ModuleUpdateRequest struct {
	Slug         *string `json:"slug" validate:"omitempty,slug"`
	Title        *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string `json:"description" validate:"omitempty,max=2000"`
	PassingMarks *int    `json:"passingMarks" validate:"omitempty,min=0,max=100"`
	IsActive     *bool   `json:"isActive"`
}

// ModuleContentRequest replaces the slide sets; translations are kept server side
type ModuleContentRequest struct {
	Training   models.SlideSet `json:"training"`
	Assessment models.SlideSet `json:"assessment"`
}

type TranslateRequest struct {
	ModuleID  uint     `json:"moduleId" validate:"required"`
	Mode      string   `json:"mode" validate:"required,content_mode"`
	Languages []string `json:"languages" validate:"omitempty,max=20,dive,lang_code"`
}

type AudioJobRequest struct {
	ModuleID  uint     `json:"moduleId" validate:"required"`
	Mode      string   `json:"mode" validate:"required,content_mode"`
	Languages []string `json:"languages" validate:"omitempty,max=20,dive,lang_code"`
}

type SignUploadRequest struct {
	Filename string `json:"filename" validate:"required,max=200"`
	FileType string `json:"fileType" validate:"required,max=100"`
	Folder   string `json:"folder" validate:"required,max=300"`
}

// ===== ASSIGNMENTS =====

type AssignRequest struct {
	ModuleID uint       `json:"moduleId" validate:"required"`
	UserIDs  []uint     `json:"userIds" validate:"required,min=1,max=500,dive,required"`
	DueDate  *time.Time `json:"dueDate"`
}

// SubmitTestRequest maps quiz slide ids to the chosen option id
type SubmitTestRequest struct {
	Answers map[string]string `json:"answers" validate:"required"`
}
