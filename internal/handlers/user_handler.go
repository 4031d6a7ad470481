package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/services"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

type UserHandler struct {
	BaseHandler
	users      services.UserService
	masterData services.MasterDataService
}

func NewUserHandler(users services.UserService, masterData services.MasterDataService, cookies *session.CookieManager, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger, cookies),
		users:       users,
		masterData:  masterData,
	}
}

// ===== ADMIN USER ENDPOINTS =====

// ListUsers lists users with optional filtering
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number, zero based"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param q query string false "Search employee id or name"
// @Param team_id query int false "Filter by team"
// @Param role query string false "BASIC or ADMIN"
// @Param status query string false "pending or active"
// @Success 200 {object} models.ActionResponse
// @Router /api/admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")

	filters := models.UserFilters{
		Query:  c.Query("q"),
		TeamID: queryUint(c, "team_id"),
		Role:   models.UserRole(c.Query("role")),
		Status: c.Query("status"),
		Page:   queryInt(c, "page", 0),
		Size:   queryInt(c, "size", 20),
	}
	page, err := h.users.List(c.Request.Context(), h.actor(c), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, page)
}

// @Router /api/admin/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	user, err := h.users.Get(c.Request.Context(), h.actor(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, user)
}

// CreateUser provisions a pending account
// @Summary Create user
// @Tags users
// @Router /api/admin/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	h.LogRequest(c, "Creating user")

	var req validator.CreateUserRequest
	if !h.bind(c, &req) {
		return
	}
	user, err := h.users.Create(c.Request.Context(), h.actor(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	created(c, user)
}

// @Router /api/admin/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	h.LogRequest(c, "Updating user", "user_id", id)

	var req validator.UpdateUserRequest
	if !h.bind(c, &req) {
		return
	}
	user, err := h.users.Update(c.Request.Context(), h.actor(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, user)
}

// @Router /api/admin/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	h.LogRequest(c, "Deleting user", "user_id", id)

	if err := h.users.Delete(c.Request.Context(), h.actor(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, nil)
}

// ===== SELF SERVICE =====

// @Router /api/me/profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.users.GetProfile(c.Request.Context(), h.actor(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, profile)
}

// UpdateProfile changes the caller's own profile; a new language also updates the cookie
// @Router /api/me/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req validator.UpdateProfileRequest
	if !h.bind(c, &req) {
		return
	}
	profile, err := h.users.UpdateProfile(c.Request.Context(), h.actor(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if req.PreferredLanguage != nil {
		h.cookies.SetLanguage(c, *req.PreferredLanguage)
	}
	ok(c, profile)
}

// ===== MASTER DATA =====

func masterDataKind(c *gin.Context) (models.MasterDataKind, bool) {
	kind := models.MasterDataKind(c.Param("kind"))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, models.Fail("Unknown master data kind"))
		return "", false
	}
	return kind, true
}

// ListMasterData is public so the registration form can offer the choices
// @Router /api/master-data/{kind} [get]
func (h *UserHandler) ListMasterData(c *gin.Context) {
	kind, valid := masterDataKind(c)
	if !valid {
		return
	}
	items, err := h.masterData.List(c.Request.Context(), kind)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, items)
}

// @Router /api/admin/master-data/{kind} [post]
func (h *UserHandler) CreateMasterData(c *gin.Context) {
	kind, valid := masterDataKind(c)
	if !valid {
		return
	}
	var req validator.MasterDataRequest
	if !h.bind(c, &req) {
		return
	}
	item, err := h.masterData.Create(c.Request.Context(), h.actor(c), kind, req.Name)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	created(c, item)
}

// @Router /api/admin/master-data/{kind}/{id} [put]
func (h *UserHandler) RenameMasterData(c *gin.Context) {
	kind, valid := masterDataKind(c)
	if !valid {
		return
	}
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req validator.MasterDataRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.masterData.Rename(c.Request.Context(), h.actor(c), kind, id, req.Name); err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, nil)
}

// @Router /api/admin/master-data/{kind}/{id} [delete]
func (h *UserHandler) DeleteMasterData(c *gin.Context) {
	kind, valid := masterDataKind(c)
	if !valid {
		return
	}
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	if err := h.masterData.Delete(c.Request.Context(), h.actor(c), kind, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, nil)
}
