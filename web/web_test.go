package web

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplates_ParseAndRender(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	for _, name := range []string{"login.html", "admin.html", "dashboard.html", "training.html"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "login.html", map[string]interface{}{
		"Title":    "Sign in",
		"Language": "en",
		"Error":    "Invalid employee id or password",
	}))
	assert.Contains(t, buf.String(), `action="/api/auth/login"`)
	assert.Contains(t, buf.String(), "Invalid employee id or password")
}
