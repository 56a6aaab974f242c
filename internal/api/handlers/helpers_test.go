package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"newsdesk/portal/internal/api/middleware"
	"newsdesk/portal/internal/auth"
	"newsdesk/portal/internal/config"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/utils"
)

const testSecret = "handler-test-secret"

func testConfig() *config.Config {
	return &config.Config{
		JwtSecret: testSecret,
		JwtTTL:    time.Hour,
		AppName:   "Newsdesk",
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators())
	return gin.New()
}

func tokenFor(t *testing.T, role models.Role, id utils.SixID) string {
	t.Helper()
	token, err := auth.GenerateJWT(role, id, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

// doRequest sends body (if not nil) as JSON, authenticated with token (if set).
func doRequest(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}
