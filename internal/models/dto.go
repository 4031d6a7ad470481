package models

import "time"

// ===== RESPONSE ENVELOPES =====

// ActionResponse is the uniform body returned by every server-side action.
type ActionResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(data interface{}) ActionResponse {
	return ActionResponse{Success: true, Data: data}
}

func Fail(msg string) ActionResponse {
	return ActionResponse{Success: false, Error: msg}
}

// ErrorBody is used by download endpoints that cannot wrap a stream in ActionResponse.
type ErrorBody struct {
	Error string `json:"error"`
}

type PaginatedResponse struct {
	Content          interface{} `json:"content"`
	TotalElements    int64       `json:"total_elements"`
	TotalPages       int         `json:"total_pages"`
	Size             int         `json:"size"`
	Page             int         `json:"page"`
	First            bool        `json:"first"`
	Last             bool        `json:"last"`
	NumberOfElements int         `json:"number_of_elements"`
	Empty            bool        `json:"empty"`
}

// NewPage fills the derived pagination fields.
func NewPage(content interface{}, count int, total int64, page, size int) *PaginatedResponse {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return &PaginatedResponse{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Size:             size,
		Page:             page,
		First:            page == 0,
		Last:             page >= totalPages-1,
		NumberOfElements: count,
		Empty:            count == 0,
	}
}

// ===== LIST FILTERS =====

type UserFilters struct {
	Query  string
	TeamID *uint
	Role   UserRole
	Status string // pending | active
	Page   int
	Size   int
}

type AssignmentFilters struct {
	ModuleID       *uint
	UserID         *uint
	TeamID         *uint
	TrainingStatus TrainingStatus
	TestStatus     TestStatus
	Page           int
	Size           int
}

type AuditFilters struct {
	Action AuditAction
	Actor  string
	Page   int
	Size   int
}

// ===== AUTH =====

type LoginResult struct {
	Role       UserRole `json:"role"`
	EmployeeID string   `json:"employee_id"`
	Redirect   string   `json:"redirect"`
}

type ResetPasswordResult struct {
	EmployeeID        string `json:"employee_id"`
	TemporaryPassword string `json:"temporary_password"`
}

// SessionView is the client-visible part of the current session.
type SessionView struct {
	UserID            string   `json:"userId"`
	Role              UserRole `json:"role"`
	Impersonating     bool     `json:"impersonating"`
	OriginalAdminID   string   `json:"originalAdminId,omitempty"`
	OriginalAdminRole UserRole `json:"originalAdminRole,omitempty"`
	Language          string   `json:"language,omitempty"`
}

// ===== CONTENT PIPELINES =====

type TranslationResult struct {
	ModuleID  uint     `json:"module_id"`
	Mode      string   `json:"mode"`
	Languages []string `json:"languages"`
	Slides    int      `json:"slides"`
	Entries   int      `json:"entries"`
}

type SignedUpload struct {
	UploadURL string    `json:"uploadUrl"`
	PublicURL string    `json:"publicUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LocalizedSlide is a slide with the requested language applied.
type LocalizedSlide struct {
	Index    int            `json:"index"`
	ID       string         `json:"id"`
	Type     SlideType      `json:"type"`
	Title    string         `json:"title,omitempty"`
	Content  string         `json:"content"`
	Question string         `json:"question,omitempty"`
	Options  []QuizOption   `json:"options,omitempty"`
	Elements []SlideElement `json:"elements,omitempty"`
	MediaURL string         `json:"mediaUrl,omitempty"`
	AudioURL string         `json:"audioUrl,omitempty"`
}

type LocalizedModule struct {
	ModuleID     uint             `json:"module_id"`
	Slug         string           `json:"slug"`
	Title        string           `json:"title"`
	Mode         ContentMode      `json:"mode"`
	Language     string           `json:"language"`
	PassingMarks int              `json:"passing_marks"`
	Slides       []LocalizedSlide `json:"slides"`
}

type TestResult struct {
	AssignmentID  uint       `json:"assignment_id"`
	Correct       int        `json:"correct"`
	Total         int        `json:"total"`
	MarksObtained float64    `json:"marks_obtained"`
	PassingMarks  int        `json:"passing_marks"`
	Status        TestStatus `json:"status"`
}

// ===== STATISTICS =====

type DashboardStats struct {
	TotalUsers         int64              `json:"total_users"`
	ActiveUsers        int64              `json:"active_users"`
	PendingUsers       int64              `json:"pending_users"`
	TotalModules       int64              `json:"total_modules"`
	ActiveModules      int64              `json:"active_modules"`
	TotalAssignments   int64              `json:"total_assignments"`
	TrainingCompleted  int64              `json:"training_completed"`
	TestsPassed        int64              `json:"tests_passed"`
	TestsFailed        int64              `json:"tests_failed"`
	CompletionRate     float64            `json:"completion_rate"`
	PassRate           float64            `json:"pass_rate"`
	AverageMarks       float64            `json:"average_marks"`
	ModuleBreakdown    []ModuleCompletion `json:"module_breakdown"`
	TeamBreakdown      []TeamCompletion   `json:"team_breakdown"`
	RecentActivity     []AuditLog         `json:"recent_activity"`
	StatusDistribution map[string]int64   `json:"status_distribution"`
	GeneratedAt        time.Time          `json:"generated_at"`
}

type ModuleCompletion struct {
	ModuleID       uint    `json:"module_id"`
	Title          string  `json:"title"`
	Assigned       int64   `json:"assigned"`
	Completed      int64   `json:"completed"`
	Passed         int64   `json:"passed"`
	CompletionRate float64 `json:"completion_rate"`
	PassRate       float64 `json:"pass_rate"`
}

type TeamCompletion struct {
	TeamID         *uint   `json:"team_id"`
	TeamName       string  `json:"team_name"`
	Assigned       int64   `json:"assigned"`
	Completed      int64   `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
}

type DriverDashboard struct {
	EmployeeID  string           `json:"employee_id"`
	FullName    string           `json:"full_name"`
	Assigned    int              `json:"assigned"`
	Completed   int              `json:"completed"`
	Passed      int              `json:"passed"`
	Pending     int              `json:"pending"`
	Assignments []AssignmentView `json:"assignments"`
}

// ReportRow is one line of the assignment report workbook.
type ReportRow struct {
	EmployeeID     string
	FullName       string
	Team           string
	Designation    string
	Location       string
	ModuleTitle    string
	TrainingStatus TrainingStatus
	TestStatus     TestStatus
	MarksObtained  *float64
	CompletionDate *time.Time
	AssignedAt     time.Time
}
