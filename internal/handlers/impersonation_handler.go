package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/services"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

type ImpersonationHandler struct {
	BaseHandler
	service services.ImpersonationService
}

func NewImpersonationHandler(service services.ImpersonationService, cookies *session.CookieManager, logger utils.Logger) *ImpersonationHandler {
	return &ImpersonationHandler{
		BaseHandler: NewBaseHandler(logger, cookies),
		service:     service,
	}
}

// CreateShadowAccount creates a test driver linked to the calling admin
// @Summary Create shadow account
// @Tags impersonation
// @Router /api/admin/shadow-accounts [post]
func (h *ImpersonationHandler) CreateShadowAccount(c *gin.Context) {
	h.LogRequest(c, "Creating shadow account")

	var req validator.ShadowAccountRequest
	if !h.bind(c, &req) {
		return
	}
	profile, err := h.service.CreateShadowAccount(c.Request.Context(), h.actor(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	created(c, profile)
}

// @Router /api/admin/shadow-accounts [get]
func (h *ImpersonationHandler) ListShadowAccounts(c *gin.Context) {
	list, err := h.service.ListShadowAccounts(c.Request.Context(), h.actor(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, list)
}

// Impersonate swaps the session cookie for a one hour session of the shadow account
// @Summary Impersonate a shadow account
// @Tags impersonation
// @Router /api/admin/impersonate [post]
func (h *ImpersonationHandler) Impersonate(c *gin.Context) {
	var req validator.ImpersonateRequest
	if !h.bind(c, &req) {
		return
	}
	if req.UserID == 0 {
		c.JSON(http.StatusBadRequest, models.Fail("userId is required"))
		return
	}
	h.LogRequest(c, "Starting impersonation", "target_id", req.UserID)

	claims, err := h.service.Impersonate(c.Request.Context(), h.actor(c), req.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if err := h.cookies.Establish(c, *claims, session.ImpersonationTTL); err != nil {
		h.LogError(c, err, "Failed to establish impersonation session")
		c.JSON(http.StatusInternalServerError, models.Fail("Internal server error"))
		return
	}
	ok(c, models.LoginResult{Role: claims.Role, EmployeeID: claims.UserID, Redirect: DefaultRoute(claims.Role)})
}

// Exit restores the original admin session
// @Summary Exit impersonation
// @Tags impersonation
// @Router /api/me/impersonation/exit [post]
func (h *ImpersonationHandler) Exit(c *gin.Context) {
	h.LogRequest(c, "Exiting impersonation")

	claims, err := h.service.Exit(c.Request.Context(), h.actor(c))
	if err != nil {
		// The assumed session cannot be turned back, so it is dropped
		if errors.Is(err, services.ErrRestoreFailed) {
			h.cookies.Clear(c)
		}
		h.handleServiceError(c, err)
		return
	}
	if err := h.cookies.Establish(c, *claims, session.NormalTTL); err != nil {
		h.LogError(c, err, "Failed to restore admin session")
		c.JSON(http.StatusInternalServerError, models.Fail("Internal server error"))
		return
	}
	ok(c, models.LoginResult{Role: claims.Role, EmployeeID: claims.UserID, Redirect: DefaultRoute(claims.Role)})
}
