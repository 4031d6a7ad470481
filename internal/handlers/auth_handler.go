package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/services"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

type AuthHandler struct {
	BaseHandler
	service   services.AuthService
	languages []string
}

// NewAuthHandler takes the supported languages; the first is the default locale
func NewAuthHandler(service services.AuthService, cookies *session.CookieManager, languages []string, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger, cookies),
		service:     service,
		languages:   languages,
	}
}

func (h *AuthHandler) defaultLocale() string {
	if len(h.languages) == 0 {
		return "en"
	}
	return h.languages[0]
}

// Login verifies credentials and establishes a normal session
// @Summary Log in
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Success 200 {object} models.ActionResponse
// @Failure 401 {object} models.ActionResponse "Invalid employee id or password"
// @Failure 429 {object} models.ActionResponse "Too many attempts"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	h.LogRequest(c, "Login attempt")

	form := c.ContentType() == binding.MIMEPOSTForm
	var req validator.LoginRequest
	var err error
	if form {
		err = c.ShouldBindWith(&req, binding.Form)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil {
		if form {
			c.Redirect(http.StatusSeeOther, loginPath+"?error=invalid")
			return
		}
		c.JSON(http.StatusBadRequest, models.Fail("Invalid request body"))
		return
	}

	claims, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		if form {
			c.Redirect(http.StatusSeeOther, loginPath+"?error=credentials")
			return
		}
		h.handleServiceError(c, err)
		return
	}
	if err := h.cookies.Establish(c, *claims, session.NormalTTL); err != nil {
		h.LogError(c, err, "Failed to establish session")
		c.JSON(http.StatusInternalServerError, models.Fail("Internal server error"))
		return
	}

	redirect := DefaultRoute(claims.Role)
	if form {
		c.Redirect(http.StatusSeeOther, redirect)
		return
	}
	ok(c, models.LoginResult{Role: claims.Role, EmployeeID: claims.UserID, Redirect: redirect})
}

// Register creates a driver account and logs it in
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} models.ActionResponse
// @Failure 409 {object} models.ActionResponse "Employee id already registered"
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	h.LogRequest(c, "Registering user")

	var req validator.RegisterRequest
	if !h.bind(c, &req) {
		return
	}
	claims, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if err := h.cookies.Establish(c, *claims, session.NormalTTL); err != nil {
		h.LogError(c, err, "Failed to establish session")
		c.JSON(http.StatusInternalServerError, models.Fail("Internal server error"))
		return
	}
	if req.PreferredLanguage != nil {
		h.cookies.SetLanguage(c, *req.PreferredLanguage)
	}
	created(c, models.LoginResult{Role: claims.Role, EmployeeID: claims.UserID, Redirect: DefaultRoute(claims.Role)})
}

// Logout clears the session cookie
// @Summary Log out
// @Tags auth
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.service.Logout(c.Request.Context(), h.actor(c))
	h.cookies.Clear(c)
	ok(c, nil)
}

// Session returns the current session or null
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} models.ActionResponse
// @Router /api/auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	view := h.service.SessionView(h.actor(c), h.cookies.Language(c, h.defaultLocale()))
	if view == nil {
		ok(c, nil)
		return
	}
	ok(c, view)
}

// SetLanguage stores the language preference cookie
// @Summary Set language
// @Tags auth
// @Router /api/auth/language [post]
func (h *AuthHandler) SetLanguage(c *gin.Context) {
	var req validator.LanguageRequest
	if !h.bind(c, &req) {
		return
	}
	if !supported(h.languages, req.Language) {
		c.JSON(http.StatusBadRequest, models.Fail("Unsupported language"))
		return
	}
	h.cookies.SetLanguage(c, req.Language)
	ok(c, gin.H{"language": req.Language})
}

// ChangePassword replaces the caller's password
// @Summary Change password
// @Tags me
// @Router /api/me/password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	h.LogRequest(c, "Changing password")

	var req validator.ChangePasswordRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), h.actor(c), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, nil)
}

// ResetPassword issues a temporary password for a user
// @Summary Reset password
// @Tags users
// @Param id path int true "User ID"
// @Router /api/admin/users/{id}/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	h.LogRequest(c, "Resetting password", "user_id", id)

	res, err := h.service.ResetPassword(c.Request.Context(), h.actor(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, res)
}

func supported(languages []string, lang string) bool {
	for _, l := range languages {
		if strings.EqualFold(l, lang) {
			return true
		}
	}
	return false
}
