package services

import (
	"context"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

// ===== IDENTITY =====

// AuthService returns claims; the caller owns writing them to the cookie.
type AuthService interface {
	Login(ctx context.Context, req *validator.LoginRequest) (*session.Claims, error)
	Register(ctx context.Context, req *validator.RegisterRequest) (*session.Claims, error)
	ChangePassword(ctx context.Context, actor *session.Claims, req *validator.ChangePasswordRequest) error
	ResetPassword(ctx context.Context, actor *session.Claims, userID uint) (*models.ResetPasswordResult, error)
	Logout(ctx context.Context, actor *session.Claims)
	SessionView(actor *session.Claims, language string) *models.SessionView
}

type ImpersonationService interface {
	CreateShadowAccount(ctx context.Context, actor *session.Claims, req *validator.ShadowAccountRequest) (*models.UserProfile, error)
	ListShadowAccounts(ctx context.Context, actor *session.Claims) ([]*models.UserProfile, error)
	Impersonate(ctx context.Context, actor *session.Claims, targetID uint) (*session.Claims, error)
	Exit(ctx context.Context, actor *session.Claims) (*session.Claims, error)
}

type UserService interface {
	// Admin operations
	List(ctx context.Context, actor *session.Claims, filters models.UserFilters) (*models.PaginatedResponse, error)
	Get(ctx context.Context, actor *session.Claims, id uint) (*models.UserProfile, error)
	Create(ctx context.Context, actor *session.Claims, req *validator.CreateUserRequest) (*models.UserProfile, error)
	Update(ctx context.Context, actor *session.Claims, id uint, req *validator.UpdateUserRequest) (*models.UserProfile, error)
	Delete(ctx context.Context, actor *session.Claims, id uint) error

	// Self service
	GetProfile(ctx context.Context, actor *session.Claims) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, actor *session.Claims, req *validator.UpdateProfileRequest) (*models.UserProfile, error)
}

type MasterDataService interface {
	// List is public so the registration form can offer the choices
	List(ctx context.Context, kind models.MasterDataKind) ([]models.MasterDataItem, error)
	Create(ctx context.Context, actor *session.Claims, kind models.MasterDataKind, name string) (*models.MasterDataItem, error)
	Rename(ctx context.Context, actor *session.Claims, kind models.MasterDataKind, id uint, name string) error
	Delete(ctx context.Context, actor *session.Claims, kind models.MasterDataKind, id uint) error
}

// ===== CONTENT =====

type ModuleService interface {
	Create(ctx context.Context, actor *session.Claims, req *validator.ModuleCreateRequest) (*models.Module, error)
	Get(ctx context.Context, actor *session.Claims, id uint) (*models.Module, error)
	List(ctx context.Context, actor *session.Claims) ([]models.ModuleSummary, error)
	Update(ctx context.Context, actor *session.Claims, id uint, req *validator.ModuleUpdateRequest) (*models.Module, error)
	UpdateContent(ctx context.Context, actor *session.Claims, id uint, req *validator.ModuleContentRequest) (*models.Module, error)
	Delete(ctx context.Context, actor *session.Claims, id uint) error
	Export(ctx context.Context, actor *session.Claims, id uint) (*FileDownload, error)

	// Localized returns the module as a driver sees it in lang
	Localized(ctx context.Context, actor *session.Claims, id uint, mode models.ContentMode, lang string) (*models.LocalizedModule, error)
}

type TranslationService interface {
	TranslateModule(ctx context.Context, actor *session.Claims, req *validator.TranslateRequest) (*models.TranslationResult, error)
}

type AudioService interface {
	// GenerateBatch runs synchronously until done, stopped or cancelled
	GenerateBatch(ctx context.Context, req AudioBatchRequest, stop *StopSignal) (*BatchReport, error)

	StartJob(ctx context.Context, actor *session.Claims, req *validator.AudioJobRequest) (*AudioJob, error)
	JobStatus(ctx context.Context, actor *session.Claims, jobID string) (*AudioJob, error)
	StopJob(ctx context.Context, actor *session.Claims, jobID string) (*AudioJob, error)
	Shutdown(ctx context.Context) error
}

type StorageService interface {
	SignUpload(ctx context.Context, actor *session.Claims, req *validator.SignUploadRequest) (*models.SignedUpload, error)
}

// ===== PROGRESS =====

type AssignmentService interface {
	// Admin operations
	Assign(ctx context.Context, actor *session.Claims, req *validator.AssignRequest) (*AssignResult, error)
	List(ctx context.Context, actor *session.Claims, filters models.AssignmentFilters) (*models.PaginatedResponse, error)
	Delete(ctx context.Context, actor *session.Claims, id uint) error

	// Driver operations
	MyAssignments(ctx context.Context, actor *session.Claims) ([]models.AssignmentView, error)
	MyDashboard(ctx context.Context, actor *session.Claims) (*models.DriverDashboard, error)
	StartTraining(ctx context.Context, actor *session.Claims, id uint) (*models.AssignmentView, error)
	CompleteTraining(ctx context.Context, actor *session.Claims, id uint) (*models.AssignmentView, error)
	StartTest(ctx context.Context, actor *session.Claims, id uint) (*models.AssignmentView, error)
	SubmitTest(ctx context.Context, actor *session.Claims, id uint, req *validator.SubmitTestRequest) (*models.TestResult, error)
}

// ===== REPORTING =====

type DashboardService interface {
	GetStats(ctx context.Context, actor *session.Claims) (*models.DashboardStats, error)
}

type ReportService interface {
	AssignmentReport(ctx context.Context, actor *session.Claims, filters models.AssignmentFilters) (*FileDownload, error)
}

type AuditService interface {
	List(ctx context.Context, actor *session.Claims, filters models.AuditFilters) (*models.PaginatedResponse, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Auth() AuthService
	Impersonation() ImpersonationService
	User() UserService
	MasterData() MasterDataService
	Module() ModuleService
	Translation() TranslationService
	Audio() AudioService
	Storage() StorageService
	Assignment() AssignmentService
	Dashboard() DashboardService
	Report() ReportService
	Audit() AuditService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// FileDownload is a generated attachment
type FileDownload struct {
	Filename    string
	ContentType string
	Data        []byte
}
