package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/portal/internal/auth"
	"newsdesk/portal/internal/config"
	"newsdesk/portal/internal/email"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/services"
	"newsdesk/portal/internal/utils"
)

const routerSecret = "router-test-secret"

func newMainRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cfg := &config.Config{
		JwtSecret:           routerSecret,
		JwtTTL:              time.Hour,
		AppName:             "Newsdesk",
		RateLimitBucketSize: 10,
		RateLimitRefillRate: 1,
	}
	r, err := SetupRouter(ctx, cfg, &services.Registry{}, nil, nil)
	require.NoError(t, err)
	return r
}

func TestSetupRouter_Access(t *testing.T) {
	r := newMainRouter(t)
	adminToken, err := auth.GenerateJWT(models.RoleAdmin, utils.NewSixID(), routerSecret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
		wantLoc    string
	}{
		{"ping", http.MethodGet, "/ping", "", http.StatusOK, ""},
		{"dashboard without session", http.MethodGet, "/admin", "", http.StatusFound, "/admin/login"},
		{"dashboard of another role", http.MethodGet, "/hoker", adminToken, http.StatusFound, "/hoker/login"},
		{"unknown page under a role tree", http.MethodGet, "/agent/reports", "", http.StatusFound, "/agent/login"},
		{"login page is public", http.MethodGet, "/customer/login", "", http.StatusOK, ""},
		{"api without token", http.MethodGet, "/api/admin/profile", "", http.StatusUnauthorized, ""},
		{"api with foreign role", http.MethodGet, "/api/agent/profile", adminToken, http.StatusForbidden, ""},
		{"hoker password needs hoker", http.MethodPost, "/api/hoker/password", adminToken, http.StatusForbidden, ""},
		{"catalog needs a session", http.MethodGet, "/api/catalog/newspapers", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: tt.token})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantLoc != "" {
				assert.Equal(t, tt.wantLoc, w.Header().Get("Location"))
			}
		})
	}
}

func callService(t *testing.T, r http.Handler, method string, args interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"method": method, "arguments": args})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w, out
}

func TestSetupServiceRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	shutdown := make(chan struct{}, 1)
	r := SetupServiceRouter(nil, rdb, shutdown)

	t.Run("health reports a missing database", func(t *testing.T) {
		w, out := callService(t, r, "health", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		checks := out["checks"].(map[string]interface{})
		assert.Equal(t, "ok", checks["redis"])
		assert.NotEqual(t, "ok", checks["mongo"])
	})

	t.Run("latest captured email", func(t *testing.T) {
		sender := email.NewRedisSender(rdb, "noreply@newsdesk.test")
		require.NoError(t, sender.Send(context.Background(), []string{"asha@example.com"}, "Your bill", []byte("body")))

		w, out := callService(t, r, "latestEmail", []string{"  Asha@Example.com "})
		require.Equal(t, http.StatusOK, w.Code)
		data := out["data"].(map[string]interface{})
		assert.Equal(t, "Your bill", data["subject"])

		w, _ = callService(t, r, "latestEmail", []string{"nobody@example.com"})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, _ = callService(t, r, "latestEmail", "not-a-list")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("shutdown signals once", func(t *testing.T) {
		w, _ := callService(t, r, "shutdown", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		select {
		case <-shutdown:
		default:
			t.Fatal("shutdown was not signaled")
		}
	})

	t.Run("unknown method", func(t *testing.T) {
		w, _ := callService(t, r, "reboot", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
