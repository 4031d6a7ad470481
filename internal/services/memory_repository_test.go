package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
)

// memoryRepository is an in-process Repository for service tests. Reads return
// copies so services cannot mutate stored rows behind the repository's back.
type memoryRepository struct {
	mu sync.Mutex

	nextID      uint
	users       map[uint]*models.User
	master      map[models.MasterDataKind]map[uint]models.MasterDataItem
	modules     map[uint]*models.Module
	assignments map[uint]*models.TrainingAssignment
	audit       []*models.AuditLog

	contentWrites int
	dashboard     repositories.DashboardRepository
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		users: make(map[uint]*models.User),
		master: map[models.MasterDataKind]map[uint]models.MasterDataItem{
			models.KindTeam:        {},
			models.KindDesignation: {},
			models.KindLocation:    {},
		},
		modules:     make(map[uint]*models.Module),
		assignments: make(map[uint]*models.TrainingAssignment),
	}
}

func (r *memoryRepository) id() uint {
	r.nextID++
	return r.nextID
}

func (r *memoryRepository) User() repositories.UserRepository             { return memUsers{r} }
func (r *memoryRepository) MasterData() repositories.MasterDataRepository { return memMaster{r} }
func (r *memoryRepository) Module() repositories.ModuleRepository         { return memModules{r} }
func (r *memoryRepository) Assignment() repositories.AssignmentRepository { return memAssignments{r} }
func (r *memoryRepository) Audit() repositories.AuditRepository           { return memAudit{r} }
func (r *memoryRepository) Dashboard() repositories.DashboardRepository   { return r.dashboard }

func (r *memoryRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}
func (r *memoryRepository) Ping(ctx context.Context) error { return nil }
func (r *memoryRepository) Close() error                   { return nil }

// ===== USERS =====

type memUsers struct{ r *memoryRepository }

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (m memUsers) Create(ctx context.Context, user *models.User) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, u := range m.r.users {
		if u.EmployeeID == user.EmployeeID {
			return repositories.ErrDuplicate
		}
	}
	user.ID = m.r.id()
	user.CreatedAt = time.Now()
	m.r.users[user.ID] = copyUser(user)
	return nil
}

func (m memUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	u, ok := m.r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyUser(u), nil
}

func (m memUsers) GetByEmployeeID(ctx context.Context, employeeID string) (*models.User, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, u := range m.r.users {
		if u.EmployeeID == employeeID {
			return copyUser(u), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m memUsers) GetByIDs(ctx context.Context, ids []uint) ([]*models.User, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if u, ok := m.r.users[id]; ok {
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

func (m memUsers) ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error) {
	_, err := m.GetByEmployeeID(ctx, employeeID)
	return err == nil, nil
}

func (m memUsers) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	u, ok := m.r.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	str := func(v interface{}) *string {
		switch s := v.(type) {
		case *string:
			return s
		case string:
			return &s
		}
		return nil
	}
	ref := func(v interface{}) *uint {
		if n, ok := v.(uint); ok {
			return &n
		}
		return nil
	}
	for col, v := range fields {
		switch col {
		case "full_name":
			u.FullName = *str(v)
		case "email":
			u.EmailEnc = str(v)
		case "mobile":
			u.MobileEnc = str(v)
		case "preferred_language":
			u.PreferredLanguage = str(v)
		case "role":
			u.Role = v.(models.UserRole)
		case "team_id":
			u.TeamID = ref(v)
		case "designation_id":
			u.DesignationID = ref(v)
		case "location_id":
			u.LocationID = ref(v)
		}
	}
	return nil
}

func (m memUsers) UpdatePassword(ctx context.Context, id uint, hash string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	u, ok := m.r.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.PasswordHash = &hash
	return nil
}

func (m memUsers) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if u, ok := m.r.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (m memUsers) Delete(ctx context.Context, id uint) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if _, ok := m.r.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.r.users, id)
	return nil
}

func (m memUsers) List(ctx context.Context, filters models.UserFilters) ([]*models.User, int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.User
	for _, u := range m.r.users {
		if filters.Role != "" && u.Role != filters.Role {
			continue
		}
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m memUsers) ListShadows(ctx context.Context, parentID uint) ([]*models.User, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.User
	for _, u := range m.r.users {
		if u.LinkedParentID != nil && *u.LinkedParentID == parentID {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== MASTER DATA =====

type memMaster struct{ r *memoryRepository }

func (m memMaster) List(ctx context.Context, kind models.MasterDataKind) ([]models.MasterDataItem, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []models.MasterDataItem
	for _, item := range m.r.master[kind] {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m memMaster) Create(ctx context.Context, kind models.MasterDataKind, name string) (*models.MasterDataItem, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, item := range m.r.master[kind] {
		if item.Name == name {
			return nil, repositories.ErrDuplicate
		}
	}
	item := models.MasterDataItem{ID: m.r.id(), Name: name, CreatedAt: time.Now()}
	m.r.master[kind][item.ID] = item
	return &item, nil
}

func (m memMaster) Rename(ctx context.Context, kind models.MasterDataKind, id uint, name string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	item, ok := m.r.master[kind][id]
	if !ok {
		return repositories.ErrNotFound
	}
	item.Name = name
	m.r.master[kind][id] = item
	return nil
}

func (m memMaster) Delete(ctx context.Context, kind models.MasterDataKind, id uint) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if _, ok := m.r.master[kind][id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.r.master[kind], id)
	for _, u := range m.r.users {
		switch {
		case kind == models.KindTeam && u.TeamID != nil && *u.TeamID == id:
			u.TeamID = nil
		case kind == models.KindDesignation && u.DesignationID != nil && *u.DesignationID == id:
			u.DesignationID = nil
		case kind == models.KindLocation && u.LocationID != nil && *u.LocationID == id:
			u.LocationID = nil
		}
	}
	return nil
}

func (m memMaster) Exists(ctx context.Context, kind models.MasterDataKind, id uint) (bool, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	_, ok := m.r.master[kind][id]
	return ok, nil
}

// ===== MODULES =====

type memModules struct{ r *memoryRepository }

func copyModule(mod *models.Module) *models.Module {
	c := *mod
	content := mod.Content.Data()
	content.Translations = content.Translations.Clone()
	content.Training.Slides = append([]models.Slide(nil), content.Training.Slides...)
	content.Assessment.Slides = append([]models.Slide(nil), content.Assessment.Slides...)
	c.Content = datatypes.NewJSONType(content)
	return &c
}

func (m memModules) Create(ctx context.Context, module *models.Module) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, mod := range m.r.modules {
		if mod.Slug == module.Slug {
			return repositories.ErrDuplicate
		}
	}
	module.ID = m.r.id()
	module.CreatedAt = time.Now()
	module.UpdatedAt = module.CreatedAt
	m.r.modules[module.ID] = copyModule(module)
	return nil
}

func (m memModules) GetByID(ctx context.Context, id uint) (*models.Module, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	mod, ok := m.r.modules[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyModule(mod), nil
}

func (m memModules) GetBySlug(ctx context.Context, slug string) (*models.Module, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, mod := range m.r.modules {
		if mod.Slug == slug {
			return copyModule(mod), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m memModules) Update(ctx context.Context, module *models.Module) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if _, ok := m.r.modules[module.ID]; !ok {
		return repositories.ErrNotFound
	}
	for _, mod := range m.r.modules {
		if mod.ID != module.ID && mod.Slug == module.Slug {
			return repositories.ErrDuplicate
		}
	}
	m.r.modules[module.ID] = copyModule(module)
	return nil
}

func (m memModules) UpdateContent(ctx context.Context, id uint, content models.ModuleContent) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	mod, ok := m.r.modules[id]
	if !ok {
		return repositories.ErrNotFound
	}
	content.Translations = content.Translations.Clone()
	mod.Content = datatypes.NewJSONType(content)
	m.r.contentWrites++
	return nil
}

func (m memModules) Delete(ctx context.Context, id uint) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if _, ok := m.r.modules[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.r.modules, id)
	for aid, a := range m.r.assignments {
		if a.ModuleID == id {
			delete(m.r.assignments, aid)
		}
	}
	return nil
}

func (m memModules) List(ctx context.Context, activeOnly bool) ([]*models.Module, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.Module
	for _, mod := range m.r.modules {
		if activeOnly && !mod.IsActive {
			continue
		}
		out = append(out, copyModule(mod))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== ASSIGNMENTS =====

type memAssignments struct{ r *memoryRepository }

// withRelations copies an assignment and attaches user and module like the Preload calls do
func (m memAssignments) withRelations(a *models.TrainingAssignment) *models.TrainingAssignment {
	c := *a
	if u, ok := m.r.users[a.UserID]; ok {
		c.User = copyUser(u)
	}
	if mod, ok := m.r.modules[a.ModuleID]; ok {
		c.Module = copyModule(mod)
	}
	return &c
}

func (m memAssignments) Create(ctx context.Context, assignment *models.TrainingAssignment) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, a := range m.r.assignments {
		if a.UserID == assignment.UserID && a.ModuleID == assignment.ModuleID {
			return repositories.ErrDuplicate
		}
	}
	assignment.ID = m.r.id()
	assignment.CreatedAt = time.Now()
	c := *assignment
	c.User, c.Module = nil, nil
	m.r.assignments[c.ID] = &c
	return nil
}

func (m memAssignments) GetByID(ctx context.Context, id uint) (*models.TrainingAssignment, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	a, ok := m.r.assignments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return m.withRelations(a), nil
}

func (m memAssignments) GetByUserAndModule(ctx context.Context, userID, moduleID uint) (*models.TrainingAssignment, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, a := range m.r.assignments {
		if a.UserID == userID && a.ModuleID == moduleID {
			return m.withRelations(a), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m memAssignments) ListByUser(ctx context.Context, userID uint) ([]*models.TrainingAssignment, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.TrainingAssignment
	for _, a := range m.r.assignments {
		if a.UserID == userID {
			out = append(out, m.withRelations(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memAssignments) List(ctx context.Context, filters models.AssignmentFilters) ([]*models.TrainingAssignment, int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.TrainingAssignment
	for _, a := range m.r.assignments {
		if filters.ModuleID != nil && a.ModuleID != *filters.ModuleID {
			continue
		}
		out = append(out, m.withRelations(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m memAssignments) Update(ctx context.Context, assignment *models.TrainingAssignment) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if _, ok := m.r.assignments[assignment.ID]; !ok {
		return repositories.ErrNotFound
	}
	c := *assignment
	c.User, c.Module = nil, nil
	m.r.assignments[c.ID] = &c
	return nil
}

func (m memAssignments) Delete(ctx context.Context, id uint) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if _, ok := m.r.assignments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.r.assignments, id)
	return nil
}

func (m memAssignments) ReportRows(ctx context.Context, filters models.AssignmentFilters) ([]models.ReportRow, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var rows []models.ReportRow
	for _, a := range m.r.assignments {
		full := m.withRelations(a)
		row := models.ReportRow{
			TrainingStatus: a.TrainingStatus,
			TestStatus:     a.TestStatus,
			MarksObtained:  a.MarksObtained,
			CompletionDate: a.CompletionDate,
			AssignedAt:     a.CreatedAt,
		}
		if full.User != nil {
			row.EmployeeID = full.User.EmployeeID
			row.FullName = full.User.FullName
		}
		if full.Module != nil {
			row.ModuleTitle = full.Module.Title
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ===== AUDIT =====

type memAudit struct{ r *memoryRepository }

func (m memAudit) Create(ctx context.Context, log *models.AuditLog) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	log.ID = m.r.id()
	m.r.audit = append(m.r.audit, log)
	return nil
}

func (m memAudit) List(ctx context.Context, filters models.AuditFilters) ([]*models.AuditLog, int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.AuditLog
	for _, l := range m.r.audit {
		if filters.Action != "" && l.Action != filters.Action {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

func (m memAudit) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []models.AuditLog
	for i := len(m.r.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *m.r.audit[i])
	}
	return out, nil
}
