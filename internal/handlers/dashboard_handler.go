package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/services"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	dashboard services.DashboardService
	report    services.ReportService
	audit     services.AuditService
}

func NewDashboardHandler(
	dashboard services.DashboardService,
	report services.ReportService,
	audit services.AuditService,
	cookies *session.CookieManager,
	logger utils.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger, cookies),
		dashboard:   dashboard,
		report:      report,
		audit:       audit,
	}
}

// ===== DASHBOARD ENDPOINTS =====

// GetDashboardStats returns overall completion statistics
// @Summary Get dashboard statistics
// @Description Counts, completion and pass rates, per module and per team breakdowns
// @Tags dashboard
// @Produce json
// @Success 200 {object} models.ActionResponse
// @Failure 403 {object} models.ActionResponse "Forbidden"
// @Router /api/admin/dashboard [get]
func (h *DashboardHandler) GetDashboardStats(c *gin.Context) {
	h.LogRequest(c, "Getting dashboard stats")

	stats, err := h.dashboard.GetStats(c.Request.Context(), h.actor(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, stats)
}

// DownloadAssignmentReport streams the assignments workbook
// @Summary Assignment report
// @Tags dashboard
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /api/admin/reports/assignments [get]
func (h *DashboardHandler) DownloadAssignmentReport(c *gin.Context) {
	h.LogRequest(c, "Building assignment report")

	file, err := h.report.AssignmentReport(c.Request.Context(), h.actor(c), parseAssignmentFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	sendFile(c, file)
}

// ListAuditLogs returns the audit trail, newest first
// @Summary List audit logs
// @Tags audit
// @Param action query string false "Filter by action"
// @Param actor query string false "Filter by actor employee id"
// @Router /api/admin/audit [get]
func (h *DashboardHandler) ListAuditLogs(c *gin.Context) {
	filters := models.AuditFilters{
		Action: models.AuditAction(c.Query("action")),
		Actor:  c.Query("actor"),
		Page:   queryInt(c, "page", 0),
		Size:   queryInt(c, "size", 50),
	}
	page, err := h.audit.List(c.Request.Context(), h.actor(c), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, page)
}
