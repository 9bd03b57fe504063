package controllers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodpilot/prodpilot/internal/domain"
)

func TestFeedbackLifecycle(t *testing.T) {
	app, _ := newTestApp(t, domain.Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/context/feedback",
		strings.NewReader(`{"text":"login is slow\ndark mode please"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(30), body["charCount"])
	assert.Equal(t, float64(2), body["lineCount"])

	session := responseCookie(resp, "pp_session")
	require.NotNil(t, session, "first contact mints a session cookie")

	req = httptest.NewRequest(http.MethodGet, "/api/context/feedback", nil)
	req.AddCookie(&http.Cookie{Name: session.Name, Value: session.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "login is slow\ndark mode please", decodeBody(t, resp)["feedbackText"])

	req = httptest.NewRequest(http.MethodDelete, "/api/context/feedback", nil)
	req.AddCookie(&http.Cookie{Name: session.Name, Value: session.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/context/feedback", nil)
	req.AddCookie(&http.Cookie{Name: session.Name, Value: session.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No feedback uploaded", decodeBody(t, resp)["error"])
}

func TestFeedbackIsSessionScoped(t *testing.T) {
	app, _ := newTestApp(t, domain.Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/context/feedback",
		strings.NewReader(`{"text":"only mine"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// a request without the session cookie sees nothing
	req = httptest.NewRequest(http.MethodGet, "/api/context/feedback", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSetFeedback_RequiresText(t *testing.T) {
	app, _ := newTestApp(t, domain.Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/context/feedback", strings.NewReader(`{"text":""}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "text is required", decodeBody(t, resp)["error"])
}

func TestProductDocLifecycle(t *testing.T) {
	app, _ := newTestApp(t, domain.Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/context/product-doc",
		strings.NewReader(`{"text":"# Roadmap\nQ4: billing"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	session := responseCookie(resp, "pp_session")
	require.NotNil(t, session)

	req = httptest.NewRequest(http.MethodGet, "/api/context/product-doc", nil)
	req.AddCookie(&http.Cookie{Name: session.Name, Value: session.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "# Roadmap\nQ4: billing", decodeBody(t, resp)["productDocumentation"])

	req = httptest.NewRequest(http.MethodDelete, "/api/context/product-doc", nil)
	req.AddCookie(&http.Cookie{Name: session.Name, Value: session.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/context/product-doc", nil)
	req.AddCookie(&http.Cookie{Name: session.Name, Value: session.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No product documentation uploaded", decodeBody(t, resp)["error"])
}
