package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/services"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
)

type fakeModuleService struct {
	services.ModuleService
	export    func(id uint) (*services.FileDownload, error)
	localized func(id uint, mode models.ContentMode, lang string) (*models.LocalizedModule, error)
}

func (f *fakeModuleService) Export(ctx context.Context, actor *session.Claims, id uint) (*services.FileDownload, error) {
	return f.export(id)
}

func (f *fakeModuleService) Localized(ctx context.Context, actor *session.Claims, id uint, mode models.ContentMode, lang string) (*models.LocalizedModule, error) {
	return f.localized(id, mode, lang)
}

func moduleRouter(t *testing.T, svc services.ModuleService) (*gin.Engine, *session.CookieManager) {
	t.Helper()
	cm := testCookies(t)
	h := NewModuleHandler(svc, cm, "en", testLogger())
	r := gin.New()
	r.GET("/api/admin/modules/export", h.ExportModule)
	r.GET("/api/me/modules/:id", h.LocalizedModule)
	return r, cm
}

func TestExportModule(t *testing.T) {
	svc := &fakeModuleService{export: func(id uint) (*services.FileDownload, error) {
		switch id {
		case 7:
			return &services.FileDownload{Filename: "mirrors.zip", ContentType: "application/zip", Data: []byte("PK")}, nil
		case 8:
			return nil, errors.New("disk on fire")
		default:
			return nil, services.ErrModuleNotFound
		}
	}}
	r, _ := moduleRouter(t, svc)

	tests := []struct {
		name   string
		query  string
		status int
		errMsg string
	}{
		{name: "missing id", query: "", status: http.StatusBadRequest, errMsg: "Module id is required"},
		{name: "non numeric id", query: "?id=abc", status: http.StatusBadRequest},
		{name: "unknown module", query: "?id=99", status: http.StatusNotFound, errMsg: "Module not found"},
		{name: "unexpected failure", query: "?id=8", status: http.StatusInternalServerError, errMsg: "Failed to export module"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/modules/export"+tt.query, nil))

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Len(t, body, 1, "error bodies carry only the error field")
			if tt.errMsg != "" {
				assert.Equal(t, tt.errMsg, body["error"])
			}
		})
	}

	t.Run("zip download", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/modules/export?id=7", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="mirrors.zip"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "PK", rec.Body.String())
	})
}

func TestLocalizedModule_LanguageFromCookie(t *testing.T) {
	var gotLang string
	var gotMode models.ContentMode
	svc := &fakeModuleService{localized: func(id uint, mode models.ContentMode, lang string) (*models.LocalizedModule, error) {
		gotLang, gotMode = lang, mode
		return &models.LocalizedModule{ModuleID: id, Mode: mode, Language: lang}, nil
	}}
	r, _ := moduleRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/me/modules/3?mode=test", nil)
	req.AddCookie(&http.Cookie{Name: session.LanguageCookieName, Value: "hi"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hi", gotLang)
	assert.Equal(t, models.ModeAssessment, gotMode)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me/modules/3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "en", gotLang, "default locale without a cookie")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me/modules/3?mode=quiz", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
