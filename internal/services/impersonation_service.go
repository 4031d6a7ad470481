package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

const (
	shadowPrefix      = "SHADOW"
	shadowOwnerMaxLen = 30
	shadowIDAttempts  = 3
)

type impersonationService struct {
	*Dependencies
	newSuffix func() string
}

func NewImpersonationService(deps *Dependencies) ImpersonationService {
	return &impersonationService{
		Dependencies: deps,
		newSuffix: func() string {
			return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
		},
	}
}

// CreateShadowAccount provisions a password-less BASIC account owned by the calling admin
func (s *impersonationService) CreateShadowAccount(ctx context.Context, actor *session.Claims, req *validator.ShadowAccountRequest) (*models.UserProfile, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	owner := strings.ToUpper(actor.UserID)
	if len(owner) > shadowOwnerMaxLen {
		owner = owner[:shadowOwnerMaxLen]
	}
	parentID := actor.RecordID

	var user *models.User
	for attempt := 0; attempt < shadowIDAttempts; attempt++ {
		candidate := &models.User{
			EmployeeID:     fmt.Sprintf("%s-%s-%s", shadowPrefix, owner, s.newSuffix()),
			FullName:       strings.TrimSpace(req.FullName),
			Role:           models.RoleBasic,
			LinkedParentID: &parentID,
		}
		err := s.Repo.User().Create(ctx, candidate)
		if err == nil {
			user = candidate
			break
		}
		if !errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create shadow account: %w", err)
		}
	}
	if user == nil {
		return nil, fmt.Errorf("%w: could not allocate a shadow account id", ErrConflict)
	}

	s.Logger.Info("Shadow account created", "employee_id", user.EmployeeID, "owner", actor.UserID)
	s.Recorder.Record(ctx, models.AuditShadowCreated, actor.UserID, user.EmployeeID, nil)
	return toProfile(user, s.Cipher)
}

func (s *impersonationService) ListShadowAccounts(ctx context.Context, actor *session.Claims) ([]*models.UserProfile, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.Repo.User().ListShadows(ctx, actor.RecordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shadow accounts: %w", err)
	}
	return toProfiles(users, s.Cipher)
}

// Impersonate only reaches BASIC accounts the calling admin owns. Every other
// target, including one that does not exist, is reported as ErrForbidden.
func (s *impersonationService) Impersonate(ctx context.Context, actor *session.Claims, targetID uint) (*session.Claims, error) {
	if actor.IsImpersonating() {
		return nil, ErrAlreadyImpersonating
	}
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}

	target, err := s.Repo.User().GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("failed to load impersonation target: %w", err)
	}
	if target.Role != models.RoleBasic || target.LinkedParentID == nil || *target.LinkedParentID != actor.RecordID {
		s.Logger.Warn("Impersonation refused", "admin", actor.UserID, "target", target.EmployeeID)
		return nil, ErrForbidden
	}

	next := claimsFor(target)
	next.OriginalAdminID = actor.UserID
	next.OriginalAdminRole = actor.Role

	s.dropIdentityViews(ctx, "impersonation_start", actor.UserID, target.EmployeeID)
	s.Recorder.Record(ctx, models.AuditImpersonationStart, actor.UserID, target.EmployeeID, nil)
	return next, nil
}

// Exit restores a fresh normal session for the admin recorded in the token
func (s *impersonationService) Exit(ctx context.Context, actor *session.Claims) (*session.Claims, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if !actor.IsImpersonating() {
		return nil, ErrNotImpersonating
	}

	admin, err := s.Repo.User().GetByEmployeeID(ctx, actor.OriginalAdminID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.Logger.Error("Impersonation origin no longer exists", "original_admin_id", actor.OriginalAdminID)
			return nil, ErrRestoreFailed
		}
		return nil, fmt.Errorf("%w: %v", ErrRestoreFailed, err)
	}

	s.dropIdentityViews(ctx, "impersonation_end", actor.UserID, admin.EmployeeID)
	s.Recorder.Record(ctx, models.AuditImpersonationEnd, admin.EmployeeID, actor.UserID, nil)
	return claimsFor(admin), nil
}

// dropIdentityViews clears this instance's cache synchronously and tells the others.
func (s *impersonationService) dropIdentityViews(ctx context.Context, reason string, employeeIDs ...string) {
	if err := s.Cache.InvalidateIdentity(ctx, employeeIDs...); err != nil {
		s.Logger.Warn("Failed to invalidate identity views", "reason", reason, "error", err)
	}
	s.Recorder.IdentityChanged(ctx, reason, employeeIDs...)
}
