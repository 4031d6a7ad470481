package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/security"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

type userService struct {
	*Dependencies
}

func NewUserService(deps *Dependencies) UserService {
	return &userService{Dependencies: deps}
}

func (s *userService) List(ctx context.Context, actor *session.Claims, filters models.UserFilters) (*models.PaginatedResponse, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if filters.Role != "" && !filters.Role.Valid() {
		return nil, validationf("unknown role %q", filters.Role)
	}
	if filters.Status != "" && filters.Status != "pending" && filters.Status != "active" {
		return nil, validationf("status must be pending or active")
	}

	users, total, err := s.Repo.User().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	profiles, err := toProfiles(users, s.Cipher)
	if err != nil {
		return nil, err
	}
	return models.NewPage(profiles, len(profiles), total, pageNumber(filters.Page), pageSize(filters.Size)), nil
}

func (s *userService) Get(ctx context.Context, actor *session.Claims, id uint) (*models.UserProfile, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.Repo.User().GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, ErrUserNotFound, "load user")
	}
	return toProfile(user, s.Cipher)
}

// Create provisions a pending account. It cannot log in until a password is set by reset.
func (s *userService) Create(ctx context.Context, actor *session.Claims, req *validator.CreateUserRequest) (*models.UserProfile, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
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

	email, err := security.SealPtr(s.Cipher, trimPtr(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt email: %w", err)
	}
	mobile, err := security.SealPtr(s.Cipher, trimPtr(req.Mobile))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt mobile: %w", err)
	}

	role := req.Role
	if role == "" {
		role = models.RoleBasic
	}
	user := &models.User{
		EmployeeID:        employeeID,
		FullName:          strings.TrimSpace(req.FullName),
		Role:              role,
		EmailEnc:          email,
		MobileEnc:         mobile,
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

	s.Recorder.Record(ctx, models.AuditUserCreated, actor.UserID, user.EmployeeID, map[string]interface{}{"role": role})
	return s.reload(ctx, user.ID)
}

func (s *userService) Update(ctx context.Context, actor *session.Claims, id uint, req *validator.UpdateUserRequest) (*models.UserProfile, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	user, err := s.Repo.User().GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, ErrUserNotFound, "load user")
	}
	if req.Role != nil && *req.Role != user.Role && user.ID == actor.RecordID {
		return nil, validationf("admins cannot change their own role")
	}
	if req.Role != nil && *req.Role != models.RoleBasic && user.IsShadow() {
		return nil, validationf("shadow accounts must stay BASIC")
	}

	fields, err := s.contactFields(req.FullName, req.Email, req.Mobile, req.PreferredLanguage)
	if err != nil {
		return nil, err
	}
	if req.Role != nil {
		fields["role"] = *req.Role
	}
	if err := masterRefFields(ctx, s.Repo, fields, req.TeamID, req.DesignationID, req.LocationID); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return toProfile(user, s.Cipher)
	}

	if err := s.Repo.User().UpdateFields(ctx, user.ID, fields); err != nil {
		return nil, mapRepoErr(err, ErrUserNotFound, "update user")
	}

	s.Recorder.Record(ctx, models.AuditUserUpdated, actor.UserID, user.EmployeeID, map[string]interface{}{"fields": fieldNames(fields)})
	s.Recorder.IdentityChanged(ctx, "user_updated", user.EmployeeID)
	return s.reload(ctx, user.ID)
}

func (s *userService) Delete(ctx context.Context, actor *session.Claims, id uint) error {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return err
	}
	if id == actor.RecordID {
		return validationf("admins cannot delete their own account")
	}

	user, err := s.Repo.User().GetByID(ctx, id)
	if err != nil {
		return mapRepoErr(err, ErrUserNotFound, "load user")
	}
	if err := s.Repo.User().Delete(ctx, user.ID); err != nil {
		return mapRepoErr(err, ErrUserNotFound, "delete user")
	}

	s.Logger.Info("User deleted", "employee_id", user.EmployeeID, "by", actor.UserID)
	s.Recorder.Record(ctx, models.AuditUserDeleted, actor.UserID, user.EmployeeID, nil)
	s.Recorder.IdentityChanged(ctx, "user_deleted", user.EmployeeID)
	return nil
}

func (s *userService) GetProfile(ctx context.Context, actor *session.Claims) (*models.UserProfile, error) {
	if err := authorize(actor, models.RoleBasic); err != nil {
		return nil, err
	}
	return s.reload(ctx, actor.RecordID)
}

func (s *userService) UpdateProfile(ctx context.Context, actor *session.Claims, req *validator.UpdateProfileRequest) (*models.UserProfile, error) {
	if err := authorize(actor, models.RoleBasic); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	fields, err := s.contactFields(req.FullName, req.Email, req.Mobile, req.PreferredLanguage)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := s.Repo.User().UpdateFields(ctx, actor.RecordID, fields); err != nil {
			return nil, mapRepoErr(err, ErrUserNotFound, "update profile")
		}
		s.Recorder.Record(ctx, models.AuditUserUpdated, actor.UserID, actor.UserID, map[string]interface{}{"fields": fieldNames(fields), "self": true})
		s.Recorder.IdentityChanged(ctx, "profile_updated", actor.UserID)
	}
	return s.reload(ctx, actor.RecordID)
}

func (s *userService) reload(ctx context.Context, id uint) (*models.UserProfile, error) {
	user, err := s.Repo.User().GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, ErrUserNotFound, "load user")
	}
	return toProfile(user, s.Cipher)
}

// contactFields builds the column map for the optional profile fields. An empty
// email or mobile clears the stored value.
func (s *userService) contactFields(fullName, email, mobile, lang *string) (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	if fullName != nil {
		fields["full_name"] = strings.TrimSpace(*fullName)
	}
	if email != nil {
		sealed, err := security.SealPtr(s.Cipher, trimPtr(email))
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt email: %w", err)
		}
		fields["email"] = sealed
	}
	if mobile != nil {
		sealed, err := security.SealPtr(s.Cipher, trimPtr(mobile))
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt mobile: %w", err)
		}
		fields["mobile"] = sealed
	}
	if lang != nil {
		fields["preferred_language"] = trimPtr(lang)
	}
	return fields, nil
}

// checkMasterRefs verifies that every referenced master data row exists
func checkMasterRefs(ctx context.Context, repo repositories.Repository, team, designation, location *uint) error {
	refs := []struct {
		kind models.MasterDataKind
		id   *uint
	}{
		{models.KindTeam, team},
		{models.KindDesignation, designation},
		{models.KindLocation, location},
	}
	for _, ref := range refs {
		if ref.id == nil || *ref.id == 0 {
			continue
		}
		ok, err := repo.MasterData().Exists(ctx, ref.kind, *ref.id)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", ref.kind, err)
		}
		if !ok {
			return validationf("unknown %s id %d", strings.TrimSuffix(string(ref.kind), "s"), *ref.id)
		}
	}
	return nil
}

// masterRefFields adds the master data columns; an id of 0 detaches
func masterRefFields(ctx context.Context, repo repositories.Repository, fields map[string]interface{}, team, designation, location *uint) error {
	if err := checkMasterRefs(ctx, repo, team, designation, location); err != nil {
		return err
	}
	set := func(col string, id *uint) {
		if id == nil {
			return
		}
		if *id == 0 {
			fields[col] = nil
			return
		}
		fields[col] = *id
	}
	set("team_id", team)
	set("designation_id", designation)
	set("location_id", location)
	return nil
}

func fieldNames(fields map[string]interface{}) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
