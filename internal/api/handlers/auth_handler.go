package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"newsdesk/portal/internal/auth"
	"newsdesk/portal/internal/config"
	"newsdesk/portal/internal/logger"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/services"
	"newsdesk/portal/internal/utils"
)

// AuthHandler serves login, signup and logout for every role.
type AuthHandler struct {
	cfg       *config.Config
	admins    services.IAdminService
	agents    services.IAgentService
	customers services.ICustomerService
	hokers    services.IHokerService
	cookie    sessionCookie
}

func NewAuthHandler(
	cfg *config.Config,
	admins services.IAdminService,
	agents services.IAgentService,
	customers services.ICustomerService,
	hokers services.IHokerService,
) *AuthHandler {
	return &AuthHandler{
		cfg:       cfg,
		admins:    admins,
		agents:    agents,
		customers: customers,
		hokers:    hokers,
		cookie:    sessionCookie{secure: cfg.CookieSecure},
	}
}

type addressRequest struct {
	Line1   string `json:"line1" binding:"required"`
	Line2   string `json:"line2"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state"`
	Pincode string `json:"pincode" binding:"required"`
}

func (a addressRequest) model() models.Address {
	return models.Address{Line1: a.Line1, Line2: a.Line2, City: a.City, State: a.State, Pincode: a.Pincode}
}

type adminSignupRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	SignupKey string `json:"signupKey" binding:"required"`
}

type agentSignupRequest struct {
	Name       string         `json:"name" binding:"required"`
	AgencyName string         `json:"agencyName" binding:"required"`
	Email      string         `json:"email" binding:"required,email"`
	Mobile     string         `json:"mobile" binding:"required,mobile"`
	Password   string         `json:"password" binding:"required"`
	Address    addressRequest `json:"address" binding:"required"`
}

type customerSignupRequest struct {
	Name     string         `json:"name" binding:"required"`
	Email    string         `json:"email" binding:"required,email"`
	Mobile   string         `json:"mobile" binding:"required,mobile"`
	Password string         `json:"password" binding:"required"`
	Address  addressRequest `json:"address" binding:"required"`
}

type emailLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// customerLoginRequest accepts an email address or a mobile number.
type customerLoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type hokerLoginRequest struct {
	Mobile   string `json:"mobile" binding:"required,mobile"`
	Password string `json:"password" binding:"required"`
}

type setPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// issueSession signs a token for the subject and sets the session cookie. The
// token is also returned in the body for API clients using bearer auth.
func (h *AuthHandler) issueSession(c *gin.Context, role models.Role, subjectID utils.SixID) (string, bool) {
	token, err := auth.GenerateJWT(role, subjectID, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		respondError(c, err, "Failed to create session")
		return "", false
	}
	h.cookie.set(c, token, h.cfg.JwtTTL)
	return token, true
}

// AdminSignup handles POST /api/admin/signup
func (h *AuthHandler) AdminSignup(c *gin.Context) {
	var req adminSignupRequest
	if !bindJSON(c, &req) {
		return
	}
	admin, err := h.admins.Signup(c.Request.Context(), services.AdminSignup{
		Name: req.Name, Email: req.Email, Password: req.Password, SignupKey: req.SignupKey,
	})
	if err != nil {
		respondError(c, err, "Failed to create admin")
		return
	}
	respond(c, http.StatusCreated, gin.H{"admin": admin})
}

// AdminLogin handles POST /api/admin/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req emailLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	admin, err := h.admins.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}
	token, ok := h.issueSession(c, models.RoleAdmin, admin.ID)
	if !ok {
		return
	}
	respond(c, http.StatusOK, gin.H{"admin": admin, "token": token})
}

// AgentSignup handles POST /api/agent/signup. New agents wait for admin approval.
func (h *AuthHandler) AgentSignup(c *gin.Context) {
	var req agentSignupRequest
	if !bindJSON(c, &req) {
		return
	}
	agent, err := h.agents.Signup(c.Request.Context(), services.AgentSignup{
		Name:       req.Name,
		AgencyName: req.AgencyName,
		Email:      req.Email,
		Mobile:     req.Mobile,
		Password:   req.Password,
		Address:    req.Address.model(),
	})
	if err != nil {
		respondError(c, err, "Failed to register agent")
		return
	}
	respond(c, http.StatusCreated, gin.H{"agent": agent, "message": "Registration received, awaiting approval"})
}

// AgentLogin handles POST /api/agent/login
func (h *AuthHandler) AgentLogin(c *gin.Context) {
	var req emailLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	agent, err := h.agents.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}
	token, ok := h.issueSession(c, models.RoleAgent, agent.ID)
	if !ok {
		return
	}
	respond(c, http.StatusOK, gin.H{"agent": agent, "token": token})
}

// CustomerSignup handles POST /api/customers/signup
func (h *AuthHandler) CustomerSignup(c *gin.Context) {
	var req customerSignupRequest
	if !bindJSON(c, &req) {
		return
	}
	customer, err := h.customers.Signup(c.Request.Context(), services.CustomerSignup{
		Name:     req.Name,
		Email:    req.Email,
		Mobile:   req.Mobile,
		Password: req.Password,
		Address:  req.Address.model(),
	})
	if err != nil {
		respondError(c, err, "Failed to register customer")
		return
	}
	token, ok := h.issueSession(c, models.RoleCustomer, customer.ID)
	if !ok {
		return
	}
	respond(c, http.StatusCreated, gin.H{"customer": customer, "token": token})
}

// CustomerLogin handles POST /api/customers/login
func (h *AuthHandler) CustomerLogin(c *gin.Context) {
	var req customerLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	customer, err := h.customers.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}
	token, ok := h.issueSession(c, models.RoleCustomer, customer.ID)
	if !ok {
		return
	}
	respond(c, http.StatusOK, gin.H{"customer": customer, "token": token})
}

// HokerLogin handles POST /api/hoker/login. After a bootstrap login the client
// must call SetPassword before anything else.
func (h *AuthHandler) HokerLogin(c *gin.Context) {
	var req hokerLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	hoker, mustSetPassword, err := h.hokers.Login(c.Request.Context(), req.Mobile, req.Password)
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}
	token, ok := h.issueSession(c, models.RoleHoker, hoker.ID)
	if !ok {
		return
	}
	respond(c, http.StatusOK, gin.H{"hoker": hoker, "token": token, "mustSetPassword": mustSetPassword})
}

// HokerSetPassword handles POST /api/hoker/password
func (h *AuthHandler) HokerSetPassword(c *gin.Context) {
	hokerID, ok := subjectID(c)
	if !ok {
		return
	}
	var req setPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.hokers.SetPassword(c.Request.Context(), hokerID, req.Password); err != nil {
		respondError(c, err, "Failed to set password")
		return
	}
	logger.L().Infow("Hoker set password", "hoker_id", hokerID)
	respond(c, http.StatusOK, gin.H{"message": "Password updated"})
}

// Logout handles POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookie.clear(c)
	respond(c, http.StatusOK, gin.H{"message": "Logged out"})
}
