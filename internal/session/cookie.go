package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	CookieName         = "session_token"
	LanguageCookieName = "NEXT_LOCALE"

	languageCookieTTL = 365 * 24 * time.Hour
	contextKey        = "session"
)

// CookieManager moves session tokens between gin requests and the token service.
type CookieManager struct {
	tokens *TokenService
	secure bool
}

func NewCookieManager(tokens *TokenService, secure bool) *CookieManager {
	return &CookieManager{tokens: tokens, secure: secure}
}

func (m *CookieManager) Tokens() *TokenService {
	return m.tokens
}

// Establish signs claims and writes them as the HTTP-only session cookie.
func (m *CookieManager) Establish(c *gin.Context, claims Claims, ttl time.Duration) error {
	token, err := m.tokens.Issue(claims, ttl)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(ttl.Seconds()), "/", "", m.secure, true)
	verified, _ := m.tokens.Verify(token)
	c.Set(contextKey, verified)
	return nil
}

func (m *CookieManager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", m.secure, true)
	c.Set(contextKey, (*Claims)(nil))
}

// HasCookie reports whether the request carried a session cookie at all.
func (m *CookieManager) HasCookie(c *gin.Context) bool {
	v, err := c.Cookie(CookieName)
	return err == nil && v != ""
}

// Current returns the verified session for this request or nil.
func (m *CookieManager) Current(c *gin.Context) *Claims {
	if v, ok := c.Get(contextKey); ok {
		claims, _ := v.(*Claims)
		return claims
	}
	raw, err := c.Cookie(CookieName)
	if err != nil {
		return nil
	}
	claims, ok := m.tokens.Verify(raw)
	if !ok {
		return nil
	}
	c.Set(contextKey, claims)
	return claims
}

func (m *CookieManager) SetLanguage(c *gin.Context, lang string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(LanguageCookieName, strings.ToLower(lang), int(languageCookieTTL.Seconds()), "/", "", m.secure, false)
}

// Language returns the stored language preference or fallback.
func (m *CookieManager) Language(c *gin.Context, fallback string) string {
	v, err := c.Cookie(LanguageCookieName)
	if err != nil || len(v) != 2 {
		return fallback
	}
	return strings.ToLower(v)
}

// FromContext returns the session placed on the context by Current or Establish.
func FromContext(c *gin.Context) *Claims {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
