package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/services"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

// BaseHandler carries what every handler needs: logging and the session cookie
type BaseHandler struct {
	logger  utils.Logger
	cookies *session.CookieManager
}

func NewBaseHandler(logger utils.Logger, cookies *session.CookieManager) BaseHandler {
	return BaseHandler{logger: logger, cookies: cookies}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	l := utils.GetLogger(c, h.logger)
	l.Debug(msg, append(args, "method", c.Request.Method, "path", c.Request.URL.Path)...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	l := utils.GetLogger(c, h.logger)
	l.Error(msg, append(args, "error", err)...)
}

// actor returns the session verified by the gate, or verifies the cookie
// itself on routes the gate does not cover.
func (h *BaseHandler) actor(c *gin.Context) *session.Claims {
	if claims := session.FromContext(c); claims != nil {
		return claims
	}
	if h.cookies == nil {
		return nil
	}
	return h.cookies.Current(c)
}

// bind decodes the JSON body; a malformed body is answered with 400.
func (h *BaseHandler) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("Invalid request body"))
		return false
	}
	return true
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, models.OK(data))
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, models.OK(data))
}

func accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, models.OK(data))
}

// parseIDParam returns 0 after writing a 400 when the path id is not a positive integer
func parseIDParam(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, models.Fail("Invalid "+name))
		return 0
	}
	return uint(id)
}

func queryUint(c *gin.Context, name string) *uint {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	id := uint(v)
	return &id
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

// statusFor maps service sentinels to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrNothingToTranslate):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrRestoreFailed):
		return http.StatusForbidden
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrModuleNotFound),
		errors.Is(err, services.ErrAssignmentNotFound),
		errors.Is(err, services.ErrMasterDataNotFound),
		errors.Is(err, services.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrDuplicateIdentity),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrTestLocked),
		errors.Is(err, services.ErrNotImpersonating),
		errors.Is(err, services.ErrAlreadyImpersonating):
		return http.StatusConflict
	case errors.Is(err, services.ErrTranslationFailed),
		errors.Is(err, services.ErrInvalidTranslationResponse):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrProviderUnavailable),
		errors.Is(err, services.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, models.ActionResponse{Success: false, Error: "Validation failed", Data: verrs})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.LogError(c, err, "Request failed")
		c.JSON(status, models.Fail("Internal server error"))
		return
	}
	if status >= http.StatusBadGateway {
		h.LogError(c, err, "Dependency failed")
	}
	// The login message is fixed so that unknown ids and wrong passwords look alike
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(status, models.Fail(services.ErrInvalidCredentials.Error()))
		return
	}
	c.JSON(status, models.Fail(err.Error()))
}
