package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/security"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

// resetPasswordSuffix is appended to the lowercased first name on admin reset.
// The result is guessable; the weakness is kept on purpose and recorded in DESIGN.md.
const resetPasswordSuffix = "@123"

type authService struct {
	*Dependencies
	now func() time.Time
}

func NewAuthService(deps *Dependencies) AuthService {
	return &authService{Dependencies: deps, now: time.Now}
}

func claimsFor(u *models.User) *session.Claims {
	return &session.Claims{
		UserID:   u.EmployeeID,
		Role:     u.Role,
		RecordID: u.ID,
	}
}

// Login collapses unknown ids, pending accounts and wrong passwords into ErrInvalidCredentials
func (s *authService) Login(ctx context.Context, req *validator.LoginRequest) (*session.Claims, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	employeeID := strings.TrimSpace(req.EmployeeID)

	user, err := s.Repo.User().GetByEmployeeID(ctx, employeeID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user == nil || user.IsPending() || !s.Hasher.Verify(*user.PasswordHash, req.Password) {
		s.Metrics.LoginAttempt(false)
		s.Recorder.Record(ctx, models.AuditLoginFailed, employeeID, "", nil)
		s.Logger.Info("Login rejected", "employee_id", employeeID)
		return nil, ErrInvalidCredentials
	}

	if err := s.Repo.User().TouchLogin(ctx, user.ID, s.now().UTC()); err != nil {
		s.Logger.Warn("Failed to record last login", "employee_id", user.EmployeeID, "error", err)
	}

	s.Metrics.LoginAttempt(true)
	s.Recorder.Record(ctx, models.AuditLogin, user.EmployeeID, "", nil)
	return claimsFor(user), nil
}

// Register creates a BASIC account and returns the session that logs it in
func (s *authService) Register(ctx context.Context, req *validator.RegisterRequest) (*session.Claims, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	employeeID := strings.TrimSpace(req.EmployeeID)

	exists, err := s.Repo.User().ExistsByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check employee id: %w", err)
	}
	if exists {
		return nil, ErrDuplicateIdentity
	}

	if err := checkMasterRefs(ctx, s.Repo, req.TeamID, req.DesignationID, req.LocationID); err != nil {
		return nil, err
	}

	hash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, validationf("%s", err)
		}
		return nil, err
	}

	email, err := security.SealPtr(s.Cipher, trimPtr(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt email: %w", err)
	}
	mobile, err := security.SealPtr(s.Cipher, trimPtr(req.Mobile))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt mobile: %w", err)
	}

	user := &models.User{
		EmployeeID:        employeeID,
		FullName:          strings.TrimSpace(req.FullName),
		Role:              models.RoleBasic,
		EmailEnc:          email,
		MobileEnc:         mobile,
		PasswordHash:      &hash,
		TeamID:            req.TeamID,
		DesignationID:     req.DesignationID,
		LocationID:        req.LocationID,
		PreferredLanguage: trimPtr(req.PreferredLanguage),
	}
	if err := s.Repo.User().Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.Logger.Info("User registered", "employee_id", user.EmployeeID)
	s.Recorder.Record(ctx, models.AuditRegister, user.EmployeeID, user.EmployeeID, nil)
	return claimsFor(user), nil
}

func (s *authService) ChangePassword(ctx context.Context, actor *session.Claims, req *validator.ChangePasswordRequest) error {
	if err := authorize(actor, models.RoleBasic); err != nil {
		return err
	}
	if err := s.validate(req); err != nil {
		return err
	}

	user, err := s.Repo.User().GetByID(ctx, actor.RecordID)
	if err != nil {
		return mapRepoErr(err, ErrUserNotFound, "load user")
	}
	if user.IsPending() || !s.Hasher.Verify(*user.PasswordHash, req.CurrentPassword) {
		return ErrInvalidCredentials
	}

	hash, err := s.Hasher.Hash(req.NewPassword)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return validationf("%s", err)
		}
		return err
	}
	if err := s.Repo.User().UpdatePassword(ctx, user.ID, hash); err != nil {
		return mapRepoErr(err, ErrUserNotFound, "update password")
	}

	s.Recorder.Record(ctx, models.AuditPasswordChanged, actor.UserID, user.EmployeeID, nil)
	return nil
}

// ResetPassword sets the fallback password and returns it once in plaintext
func (s *authService) ResetPassword(ctx context.Context, actor *session.Claims, userID uint) (*models.ResetPasswordResult, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	user, err := s.Repo.User().GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, ErrUserNotFound, "load user")
	}

	raw := FallbackPassword(user.FullName, user.EmployeeID)
	hash, err := s.Hasher.Hash(raw)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.User().UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, mapRepoErr(err, ErrUserNotFound, "reset password")
	}

	s.Logger.Warn("Password reset to fallback value", "employee_id", user.EmployeeID, "by", actor.UserID)
	s.Recorder.Record(ctx, models.AuditPasswordReset, actor.UserID, user.EmployeeID, nil)
	return &models.ResetPasswordResult{EmployeeID: user.EmployeeID, TemporaryPassword: raw}, nil
}

func (s *authService) Logout(ctx context.Context, actor *session.Claims) {
	if actor == nil {
		return
	}
	meta := map[string]interface{}(nil)
	if actor.IsImpersonating() {
		meta = map[string]interface{}{"original_admin_id": actor.OriginalAdminID}
	}
	s.Recorder.Record(ctx, models.AuditLogout, actor.UserID, "", meta)
}

func (s *authService) SessionView(actor *session.Claims, language string) *models.SessionView {
	if actor == nil {
		return nil
	}
	return &models.SessionView{
		UserID:            actor.UserID,
		Role:              actor.Role,
		Impersonating:     actor.IsImpersonating(),
		OriginalAdminID:   actor.OriginalAdminID,
		OriginalAdminRole: actor.OriginalAdminRole,
		Language:          language,
	}
}

// FallbackPassword is <first name, lowercased>@123. Names too short to reach the
// minimum length fall back to the lowercased employee id.
func FallbackPassword(fullName, employeeID string) string {
	first := ""
	if fields := strings.Fields(fullName); len(fields) > 0 {
		first = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, fields[0])
	}
	if len(first)+len(resetPasswordSuffix) < security.MinPasswordLength {
		first = strings.ToLower(employeeID)
	}
	return first + resetPasswordSuffix
}
