package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
)

const loginPath = "/login"

// GateRule protects every path under Prefix.
// Page rules redirect; API rules answer with a status code.
type GateRule struct {
	Prefix  string
	MinRole models.UserRole
	Page    bool
}

// DefaultGateRules returns the protected prefixes, most specific first
func DefaultGateRules() []GateRule {
	return []GateRule{
		{Prefix: "/api/admin", MinRole: models.RoleAdmin},
		{Prefix: "/api/me", MinRole: models.RoleBasic},
		{Prefix: "/admin", MinRole: models.RoleAdmin, Page: true},
		{Prefix: "/dashboard", MinRole: models.RoleBasic, Page: true},
		{Prefix: "/training", MinRole: models.RoleBasic, Page: true},
	}
}

// DefaultRoute is where a role lands after login or a refused page
func DefaultRoute(role models.UserRole) string {
	if role.Satisfies(models.RoleAdmin) {
		return "/admin"
	}
	return "/dashboard"
}

func matchRule(rules []GateRule, path string) (GateRule, bool) {
	for _, r := range rules {
		if path == r.Prefix || strings.HasPrefix(path, r.Prefix+"/") {
			return r, true
		}
	}
	return GateRule{}, false
}

// AuthGate checks the session cookie on every request under a protected prefix.
// Requests outside the rule table pass through untouched.
func AuthGate(cookies *session.CookieManager, rules []GateRule, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rule, protected := matchRule(rules, c.Request.URL.Path)
		if !protected {
			c.Next()
			return
		}

		if !cookies.HasCookie(c) {
			refuse(c, rule, http.StatusUnauthorized, loginPath, "Authentication required")
			return
		}

		claims := cookies.Current(c)
		if claims == nil {
			utils.GetLogger(c, logger).Info("Rejected invalid session token", "path", c.Request.URL.Path)
			cookies.Clear(c)
			refuse(c, rule, http.StatusUnauthorized, loginPath, "Session expired, please log in again")
			return
		}

		if !claims.Role.Satisfies(rule.MinRole) {
			refuse(c, rule, http.StatusForbidden, DefaultRoute(claims.Role), "Insufficient permissions")
			return
		}
		c.Next()
	}
}

func refuse(c *gin.Context, rule GateRule, status int, target, msg string) {
	if rule.Page {
		c.Redirect(http.StatusSeeOther, target)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(status, models.Fail(msg))
}
