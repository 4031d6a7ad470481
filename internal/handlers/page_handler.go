package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/services"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
)

var loginErrors = map[string]string{
	"credentials": services.ErrInvalidCredentials.Error(),
	"invalid":     "Enter your employee id and password",
}

type pageData struct {
	Title        string
	Language     string
	Session      *models.SessionView
	Error        string
	Stats        *models.DashboardStats
	Driver       *models.DriverDashboard
	AssignmentID uint
}

// PageHandler renders the server side surfaces. Access control for
// /admin, /dashboard and /training is done by the gate before these run.
type PageHandler struct {
	BaseHandler
	auth          services.AuthService
	dashboard     services.DashboardService
	assignments   services.AssignmentService
	defaultLocale string
}

func NewPageHandler(sm services.ServiceManager, cookies *session.CookieManager, defaultLocale string, logger utils.Logger) *PageHandler {
	return &PageHandler{
		BaseHandler:   NewBaseHandler(logger, cookies),
		auth:          sm.Auth(),
		dashboard:     sm.Dashboard(),
		assignments:   sm.Assignment(),
		defaultLocale: defaultLocale,
	}
}

func (h *PageHandler) page(c *gin.Context, title string) pageData {
	lang := h.cookies.Language(c, h.defaultLocale)
	return pageData{
		Title:    title,
		Language: lang,
		Session:  h.auth.SessionView(h.actor(c), lang),
	}
}

// Root sends the visitor to the surface of their role
func (h *PageHandler) Root(c *gin.Context) {
	claims := h.actor(c)
	if claims == nil {
		c.Redirect(http.StatusSeeOther, loginPath)
		return
	}
	c.Redirect(http.StatusSeeOther, DefaultRoute(claims.Role))
}

func (h *PageHandler) Login(c *gin.Context) {
	if claims := h.actor(c); claims != nil {
		c.Redirect(http.StatusSeeOther, DefaultRoute(claims.Role))
		return
	}
	data := h.page(c, "Sign in")
	data.Error = loginErrors[c.Query("error")]
	c.HTML(http.StatusOK, "login.html", data)
}

func (h *PageHandler) Admin(c *gin.Context) {
	data := h.page(c, "Administration")
	stats, err := h.dashboard.GetStats(c.Request.Context(), h.actor(c))
	if err != nil {
		h.LogError(c, err, "Failed to load dashboard for admin page")
	} else {
		data.Stats = stats
	}
	c.HTML(http.StatusOK, "admin.html", data)
}

func (h *PageHandler) Dashboard(c *gin.Context) {
	data := h.page(c, "My trainings")
	dash, err := h.assignments.MyDashboard(c.Request.Context(), h.actor(c))
	if err != nil {
		h.LogError(c, err, "Failed to load driver dashboard")
	} else {
		data.Driver = dash
	}
	c.HTML(http.StatusOK, "dashboard.html", data)
}

func (h *PageHandler) Training(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	data := h.page(c, "Training")
	data.AssignmentID = id
	c.HTML(http.StatusOK, "training.html", data)
}
