package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/services"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

type AssignmentHandler struct {
	BaseHandler
	service services.AssignmentService
}

func NewAssignmentHandler(service services.AssignmentService, cookies *session.CookieManager, logger utils.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		BaseHandler: NewBaseHandler(logger, cookies),
		service:     service,
	}
}

func parseAssignmentFilters(c *gin.Context) models.AssignmentFilters {
	return models.AssignmentFilters{
		ModuleID:       queryUint(c, "module_id"),
		UserID:         queryUint(c, "user_id"),
		TeamID:         queryUint(c, "team_id"),
		TrainingStatus: models.TrainingStatus(c.Query("training_status")),
		TestStatus:     models.TestStatus(c.Query("test_status")),
		Page:           queryInt(c, "page", 0),
		Size:           queryInt(c, "size", 20),
	}
}

// ===== ADMIN ENDPOINTS =====

// Assign gives a module to a set of users; existing pairs are left alone
// @Summary Assign module
// @Tags assignments
// @Router /api/admin/assignments [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req validator.AssignRequest
	if !h.bind(c, &req) {
		return
	}
	h.LogRequest(c, "Assigning module", "module_id", req.ModuleID, "users", len(req.UserIDs))

	res, err := h.service.Assign(c.Request.Context(), h.actor(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	created(c, res)
}

// @Summary List assignments
// @Tags assignments
// @Param module_id query int false "Filter by module"
// @Param user_id query int false "Filter by user"
// @Param team_id query int false "Filter by team"
// @Param training_status query string false "NOT_STARTED, ONGOING or COMPLETED"
// @Param test_status query string false "NOT_STARTED, ONGOING, PASSED or FAILED"
// @Router /api/admin/assignments [get]
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), h.actor(c), parseAssignmentFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, page)
}

// @Router /api/admin/assignments/{id} [delete]
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	h.LogRequest(c, "Deleting assignment", "assignment_id", id)

	if err := h.service.Delete(c.Request.Context(), h.actor(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, nil)
}

// ===== DRIVER ENDPOINTS =====

// @Router /api/me/assignments [get]
func (h *AssignmentHandler) MyAssignments(c *gin.Context) {
	views, err := h.service.MyAssignments(c.Request.Context(), h.actor(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, views)
}

// @Router /api/me/dashboard [get]
func (h *AssignmentHandler) MyDashboard(c *gin.Context) {
	dash, err := h.service.MyDashboard(c.Request.Context(), h.actor(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, dash)
}

// transition runs one driver state change on the assignment in the path
func (h *AssignmentHandler) transition(c *gin.Context, fn func(*gin.Context, uint) (interface{}, error)) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	h.LogRequest(c, "Assignment transition", "assignment_id", id)

	res, err := fn(c, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, res)
}

// @Router /api/me/assignments/{id}/training/start [post]
func (h *AssignmentHandler) StartTraining(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uint) (interface{}, error) {
		return h.service.StartTraining(c.Request.Context(), h.actor(c), id)
	})
}

// @Router /api/me/assignments/{id}/training/complete [post]
func (h *AssignmentHandler) CompleteTraining(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uint) (interface{}, error) {
		return h.service.CompleteTraining(c.Request.Context(), h.actor(c), id)
	})
}

// @Router /api/me/assignments/{id}/test/start [post]
func (h *AssignmentHandler) StartTest(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uint) (interface{}, error) {
		return h.service.StartTest(c.Request.Context(), h.actor(c), id)
	})
}

// SubmitTest grades the answers against the module's passing marks
// @Router /api/me/assignments/{id}/test/submit [post]
func (h *AssignmentHandler) SubmitTest(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req validator.SubmitTestRequest
	if !h.bind(c, &req) {
		return
	}
	h.LogRequest(c, "Submitting test", "assignment_id", id, "answers", len(req.Answers))

	res, err := h.service.SubmitTest(c.Request.Context(), h.actor(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, res)
}
