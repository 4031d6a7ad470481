package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testCookies(t *testing.T) *session.CookieManager {
	t.Helper()
	tokens, err := session.NewTokenService(testSecret, "prodriver-test")
	require.NoError(t, err)
	return session.NewCookieManager(tokens, false)
}

func sessionCookie(t *testing.T, cm *session.CookieManager, claims session.Claims) *http.Cookie {
	t.Helper()
	token, err := cm.Tokens().Issue(claims, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: session.CookieName, Value: token}
}

func adminClaims() session.Claims {
	return session.Claims{UserID: "ADM1", Role: models.RoleAdmin, RecordID: 1}
}

func driverClaims() session.Claims {
	return session.Claims{UserID: "DRV1", Role: models.RoleBasic, RecordID: 2}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
