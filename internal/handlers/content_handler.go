package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/services"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

// ContentHandler drives the translation, audio and upload pipelines
type ContentHandler struct {
	BaseHandler
	translation services.TranslationService
	audio       services.AudioService
	storage     services.StorageService
}

func NewContentHandler(
	translation services.TranslationService,
	audio services.AudioService,
	storage services.StorageService,
	cookies *session.CookieManager,
	logger utils.Logger,
) *ContentHandler {
	return &ContentHandler{
		BaseHandler: NewBaseHandler(logger, cookies),
		translation: translation,
		audio:       audio,
		storage:     storage,
	}
}

// Translate runs the LLM translation of one module mode
// @Summary Translate module
// @Tags content
// @Accept json
// @Produce json
// @Failure 502 {object} models.ActionResponse "Provider error or malformed response"
// @Router /api/admin/translations [post]
func (h *ContentHandler) Translate(c *gin.Context) {
	var req validator.TranslateRequest
	if !h.bind(c, &req) {
		return
	}
	h.LogRequest(c, "Translating module", "module_id", req.ModuleID, "mode", req.Mode)

	res, err := h.translation.TranslateModule(c.Request.Context(), h.actor(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, res)
}

// StartAudioJob starts audio generation in the background
// @Summary Start audio job
// @Tags content
// @Success 202 {object} models.ActionResponse
// @Router /api/admin/audio-jobs [post]
func (h *ContentHandler) StartAudioJob(c *gin.Context) {
	var req validator.AudioJobRequest
	if !h.bind(c, &req) {
		return
	}
	h.LogRequest(c, "Starting audio job", "module_id", req.ModuleID, "mode", req.Mode)

	job, err := h.audio.StartJob(c.Request.Context(), h.actor(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	accepted(c, job)
}

// @Router /api/admin/audio-jobs/{id} [get]
func (h *ContentHandler) AudioJobStatus(c *gin.Context) {
	job, err := h.audio.JobStatus(c.Request.Context(), h.actor(c), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, job)
}

// StopAudioJob asks a job to stop after the unit in flight
// @Router /api/admin/audio-jobs/{id}/stop [post]
func (h *ContentHandler) StopAudioJob(c *gin.Context) {
	h.LogRequest(c, "Stopping audio job", "job_id", c.Param("id"))

	job, err := h.audio.StopJob(c.Request.Context(), h.actor(c), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, job)
}

// SignUpload returns a short lived presigned PUT url
// @Summary Sign upload
// @Tags content
// @Router /api/admin/storage/sign [post]
func (h *ContentHandler) SignUpload(c *gin.Context) {
	var req validator.SignUploadRequest
	if !h.bind(c, &req) {
		return
	}
	signed, err := h.storage.SignUpload(c.Request.Context(), h.actor(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	ok(c, signed)
}
