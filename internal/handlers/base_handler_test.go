package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/services"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: bad slug", services.ErrValidationFailed), http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrUnauthorized, http.StatusUnauthorized},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrRestoreFailed, http.StatusForbidden},
		{services.ErrModuleNotFound, http.StatusNotFound},
		{services.ErrJobNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: teams", services.ErrConflict), http.StatusConflict},
		{services.ErrDuplicateIdentity, http.StatusConflict},
		{services.ErrTestLocked, http.StatusConflict},
		{services.ErrInvalidTranslationResponse, http.StatusBadGateway},
		{services.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(tt.err))
		})
	}
}

func TestHandleServiceError_Bodies(t *testing.T) {
	h := NewBaseHandler(testLogger(), nil)
	run := func(err error) (*httptest.ResponseRecorder, models.ActionResponse) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		h.handleServiceError(c, err)
		var body models.ActionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return rec, body
	}

	rec, body := run(validator.ValidationErrors{{Field: "slug", Message: "must be lowercase", Rule: "slug"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", body.Error)
	assert.NotNil(t, body.Data)

	rec, body = run(errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body.Error, "internal details are not leaked")

	_, body = run(services.ErrInvalidCredentials)
	assert.False(t, body.Success)
	assert.Equal(t, services.ErrInvalidCredentials.Error(), body.Error)
}
