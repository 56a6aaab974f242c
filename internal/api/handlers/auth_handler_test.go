package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"newsdesk/portal/internal/api/handlers"
	"newsdesk/portal/internal/api/middleware"
	"newsdesk/portal/internal/auth"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/services"
	"newsdesk/portal/internal/utils"
)

type authMocks struct {
	admins    *MockAdminService
	agents    *MockAgentService
	customers *MockCustomerService
	hokers    *MockHokerService
}

func setupAuthRouter(t *testing.T) (*gin.Engine, *authMocks) {
	r := newTestRouter(t)
	m := &authMocks{
		admins:    new(MockAdminService),
		agents:    new(MockAgentService),
		customers: new(MockCustomerService),
		hokers:    new(MockHokerService),
	}
	h := handlers.NewAuthHandler(testConfig(), m.admins, m.agents, m.customers, m.hokers)
	r.POST("/api/admin/login", h.AdminLogin)
	r.POST("/api/agent/login", h.AgentLogin)
	r.POST("/api/customers/signup", h.CustomerSignup)
	r.POST("/api/hoker/login", h.HokerLogin)
	r.POST("/api/hoker/password", middleware.RequireRole(testSecret, models.RoleHoker), h.HokerSetPassword)
	r.POST("/api/logout", h.Logout)
	return r, m
}

func TestHokerLogin_BootstrapPassword(t *testing.T) {
	r, m := setupAuthRouter(t)
	hoker := &models.Hoker{Name: "Ravi", Mobile: "9876543210"}
	hoker.GenID()

	m.hokers.On("Login", mock.Anything, "9876543210", "2026").Return(hoker, true, nil).Once()
	m.hokers.On("Login", mock.Anything, "9876543210", "1234").Return(nil, false, services.ErrInvalidCredentials).Once()

	w := doRequest(r, http.MethodPost, "/api/hoker/login", gin.H{"mobile": "9876543210", "password": "2026"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["mustSetPassword"])

	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	principal, err := auth.PrincipalFromToken(cookie.Value, testSecret)
	require.NoError(t, err)
	assert.Equal(t, models.RoleHoker, principal.Role)
	assert.Equal(t, hoker.ID, principal.SubjectID)

	w = doRequest(r, http.MethodPost, "/api/hoker/login", gin.H{"mobile": "9876543210", "password": "1234"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, sessionCookie(w))
	m.hokers.AssertExpectations(t)
}

func TestHokerLogin_BootstrapRejectedAfterPasswordSet(t *testing.T) {
	r, m := setupAuthRouter(t)
	hokerID := utils.NewSixID()
	token := tokenFor(t, models.RoleHoker, hokerID)

	m.hokers.On("SetPassword", mock.Anything, hokerID, "s3cret-pass").Return(nil).Once()
	w := doRequest(r, http.MethodPost, "/api/hoker/password", gin.H{"password": "s3cret-pass"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	m.hokers.On("Login", mock.Anything, "9876543210", "2026").Return(nil, false, services.ErrInvalidCredentials).Once()
	w = doRequest(r, http.MethodPost, "/api/hoker/login", gin.H{"mobile": "9876543210", "password": "2026"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	m.hokers.On("Login", mock.Anything, "9876543211", "2026").Return(nil, false, services.ErrBootstrapExpired).Once()
	w = doRequest(r, http.MethodPost, "/api/hoker/login", gin.H{"mobile": "9876543211", "password": "2026"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	m.hokers.AssertExpectations(t)
}

func TestHokerSetPassword_RequiresHokerToken(t *testing.T) {
	r, m := setupAuthRouter(t)
	token := tokenFor(t, models.RoleCustomer, utils.NewSixID())

	w := doRequest(r, http.MethodPost, "/api/hoker/password", gin.H{"password": "s3cret-pass"}, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	m.hokers.AssertNotCalled(t, "SetPassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestAgentLogin(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"approved", nil, http.StatusOK},
		{"pending approval", services.ErrAccountNotApproved, http.StatusForbidden},
		{"wrong password", services.ErrInvalidCredentials, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, m := setupAuthRouter(t)
			if tt.err != nil {
				m.agents.On("Login", mock.Anything, "agent@example.com", "pw123456").Return(nil, tt.err)
			} else {
				agent := &models.Agent{Name: "Asha", Status: models.AgentStatusApproved}
				agent.GenID()
				m.agents.On("Login", mock.Anything, "agent@example.com", "pw123456").Return(agent, nil)
			}

			w := doRequest(r, http.MethodPost, "/api/agent/login", gin.H{"email": "agent@example.com", "password": "pw123456"}, "")
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.err == nil, decodeBody(t, w)["success"])
			assert.Equal(t, tt.err == nil, sessionCookie(w) != nil)
		})
	}
}

func TestCustomerSignup(t *testing.T) {
	signup := gin.H{
		"name":     "Meera",
		"email":    "meera@example.com",
		"mobile":   "9876500000",
		"password": "pw123456",
		"address":  gin.H{"line1": "12 MG Road", "city": "Pune", "pincode": "411001"},
	}

	t.Run("created", func(t *testing.T) {
		r, m := setupAuthRouter(t)
		customer := &models.Customer{Name: "Meera", Email: "meera@example.com"}
		customer.GenID()
		m.customers.On("Signup", mock.Anything, mock.MatchedBy(func(in services.CustomerSignup) bool {
			return in.Email == "meera@example.com" && in.Address.City == "Pune"
		})).Return(customer, nil)

		w := doRequest(r, http.MethodPost, "/api/customers/signup", signup, "")
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.NotNil(t, sessionCookie(w))
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("duplicate", func(t *testing.T) {
		r, m := setupAuthRouter(t)
		m.customers.On("Signup", mock.Anything, mock.Anything).Return(nil, services.ErrDuplicateAccount)

		w := doRequest(r, http.MethodPost, "/api/customers/signup", signup, "")
		assert.Equal(t, http.StatusConflict, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, services.ErrDuplicateAccount.Error(), body["message"])
	})

	t.Run("invalid mobile", func(t *testing.T) {
		r, m := setupAuthRouter(t)
		bad := gin.H{}
		for k, v := range signup {
			bad[k] = v
		}
		bad["mobile"] = "call me"

		w := doRequest(r, http.MethodPost, "/api/customers/signup", bad, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		m.customers.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
	})
}

func TestLogoutClearsCookie(t *testing.T) {
	r, _ := setupAuthRouter(t)
	w := doRequest(r, http.MethodPost, "/api/logout", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.MaxAge < 0)
}
