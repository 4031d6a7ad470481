package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/services"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

type ModuleHandler struct {
	BaseHandler
	service       services.ModuleService
	defaultLocale string
}

func NewModuleHandler(service services.ModuleService, cookies *session.CookieManager, defaultLocale string, logger utils.Logger) *ModuleHandler {
	return &ModuleHandler{
		BaseHandler:   NewBaseHandler(logger, cookies),
		service:       service,
		defaultLocale: defaultLocale,
	}
}

// parseMode accepts the storage segment "test" as an alias for the assessment
func parseMode(raw string) (models.ContentMode, bool) {
	if raw == "test" {
		return models.ModeAssessment, true
	}
	mode := models.ContentMode(raw)
	return mode, mode.Valid()
}

// ===== ADMIN MODULE ENDPOINTS =====

// @Summary List modules
// @Tags modules
// @Router /api/admin/modules [get]
func (h *ModuleHandler) ListModules(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), h.actor(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, list)
}

// @Router /api/admin/modules/{id} [get]
func (h *ModuleHandler) GetModule(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	module, err := h.service.Get(c.Request.Context(), h.actor(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, module)
}

// CreateModule creates a module with optional initial content
// @Summary Create module
// @Tags modules
// @Router /api/admin/modules [post]
func (h *ModuleHandler) CreateModule(c *gin.Context) {
	h.LogRequest(c, "Creating module")

	var req validator.ModuleCreateRequest
	if !h.bind(c, &req) {
		return
	}
	module, err := h.service.Create(c.Request.Context(), h.actor(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	created(c, module)
}

// @Router /api/admin/modules/{id} [put]
func (h *ModuleHandler) UpdateModule(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	h.LogRequest(c, "Updating module", "module_id", id)

	var req validator.ModuleUpdateRequest
	if !h.bind(c, &req) {
		return
	}
	module, err := h.service.Update(c.Request.Context(), h.actor(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, module)
}

// UpdateContent replaces the training and assessment slides
// @Router /api/admin/modules/{id}/content [put]
func (h *ModuleHandler) UpdateContent(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	h.LogRequest(c, "Updating module content", "module_id", id)

	var req validator.ModuleContentRequest
	if !h.bind(c, &req) {
		return
	}
	module, err := h.service.UpdateContent(c.Request.Context(), h.actor(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, module)
}

// @Router /api/admin/modules/{id} [delete]
func (h *ModuleHandler) DeleteModule(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	h.LogRequest(c, "Deleting module", "module_id", id)

	if err := h.service.Delete(c.Request.Context(), h.actor(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, nil)
}

// ExportModule streams a ZIP holding the module record as JSON
// @Summary Export module
// @Tags modules
// @Produce application/zip
// @Param id query int true "Module ID"
// @Failure 400 {object} models.ErrorBody "Missing id"
// @Failure 404 {object} models.ErrorBody "Module not found"
// @Failure 500 {object} models.ErrorBody "Export failed"
// @Router /api/admin/modules/export [get]
func (h *ModuleHandler) ExportModule(c *gin.Context) {
	raw := c.Query("id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, models.ErrorBody{Error: "Module id is required"})
		return
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorBody{Error: "Module id must be a positive integer"})
		return
	}
	h.LogRequest(c, "Exporting module", "module_id", id)

	file, err := h.service.Export(c.Request.Context(), h.actor(c), uint(id))
	switch {
	case err == nil:
	case errors.Is(err, services.ErrModuleNotFound):
		c.JSON(http.StatusNotFound, models.ErrorBody{Error: "Module not found"})
		return
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrUnauthorized):
		c.JSON(statusFor(err), models.ErrorBody{Error: err.Error()})
		return
	default:
		h.LogError(c, err, "Module export failed", "module_id", id)
		c.JSON(http.StatusInternalServerError, models.ErrorBody{Error: "Failed to export module"})
		return
	}
	sendFile(c, file)
}

// sendFile writes a generated attachment
func sendFile(c *gin.Context, file *services.FileDownload) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// ===== DRIVER ENDPOINTS =====

// LocalizedModule returns an assigned module in the caller's language
// @Summary Localized module
// @Tags training
// @Param id path int true "Module ID"
// @Param mode query string false "training or assessment (default: training)"
// @Param lang query string false "Overrides the NEXT_LOCALE cookie"
// @Router /api/me/modules/{id} [get]
func (h *ModuleHandler) LocalizedModule(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	mode, valid := parseMode(c.DefaultQuery("mode", string(models.ModeTraining)))
	if !valid {
		c.JSON(http.StatusBadRequest, models.Fail("Unknown content mode"))
		return
	}
	lang := c.Query("lang")
	if lang == "" {
		lang = h.cookies.Language(c, h.defaultLocale)
	}

	view, err := h.service.Localized(c.Request.Context(), h.actor(c), id, mode, lang)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, view)
}
