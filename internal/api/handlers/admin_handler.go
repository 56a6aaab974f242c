package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/services"
)

// AdminHandler serves the administrator API.
type AdminHandler struct {
	admins    services.IAdminService
	agents    services.IAgentService
	customers services.ICustomerService
	templates services.IEmailTemplateService
}

func NewAdminHandler(
	admins services.IAdminService,
	agents services.IAgentService,
	customers services.ICustomerService,
	templates services.IEmailTemplateService,
) *AdminHandler {
	return &AdminHandler{admins: admins, agents: agents, customers: customers, templates: templates}
}

type reviewAgentRequest struct {
	Status string `json:"status" binding:"required,agentreview"`
}

type emailTemplateRequest struct {
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

// Profile handles GET /api/admin/profile
func (h *AdminHandler) Profile(c *gin.Context) {
	id, ok := subjectID(c)
	if !ok {
		return
	}
	admin, err := h.admins.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve profile")
		return
	}
	respond(c, http.StatusOK, gin.H{"admin": admin})
}

// ListAgents handles GET /api/admin/agents?status=pending
func (h *AdminHandler) ListAgents(c *gin.Context) {
	status := models.AgentStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		badRequest(c, "Invalid status")
		return
	}
	agents, err := h.agents.List(c.Request.Context(), status)
	if err != nil {
		respondError(c, err, "Failed to list agents")
		return
	}
	respond(c, http.StatusOK, gin.H{"agents": agents})
}

// ReviewAgent handles PATCH /api/admin/agents/:id with {"status": "approved"|"rejected"}.
func (h *AdminHandler) ReviewAgent(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req reviewAgentRequest
	if !bindJSON(c, &req) {
		return
	}
	agent, err := h.agents.Review(c.Request.Context(), id, models.AgentStatus(req.Status))
	if err != nil {
		respondError(c, err, "Failed to review agent")
		return
	}
	respond(c, http.StatusOK, gin.H{"agent": agent})
}

// ListCustomers handles GET /api/admin/customers
func (h *AdminHandler) ListCustomers(c *gin.Context) {
	customers, err := h.customers.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list customers")
		return
	}
	respond(c, http.StatusOK, gin.H{"customers": customers})
}

// ListEmailTemplates handles GET /api/admin/email-templates
func (h *AdminHandler) ListEmailTemplates(c *gin.Context) {
	templates, err := h.templates.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list email templates")
		return
	}
	respond(c, http.StatusOK, gin.H{"templates": templates})
}

// SaveEmailTemplate handles PUT /api/admin/email-templates/:templateId/:locale
func (h *AdminHandler) SaveEmailTemplate(c *gin.Context) {
	var req emailTemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	tmpl := &models.EmailTemplate{
		TemplateID: c.Param("templateId"),
		Locale:     c.Param("locale"),
		Subject:    req.Subject,
		Body:       req.Body,
	}
	if err := h.templates.SaveTemplate(c.Request.Context(), tmpl); err != nil {
		respondError(c, err, "Failed to save email template")
		return
	}
	respond(c, http.StatusOK, gin.H{"template": tmpl})
}

// DeleteEmailTemplate handles DELETE /api/admin/email-templates/:templateId/:locale
func (h *AdminHandler) DeleteEmailTemplate(c *gin.Context) {
	if err := h.templates.DeleteTemplate(c.Request.Context(), c.Param("templateId"), c.Param("locale")); err != nil {
		respondError(c, err, "Failed to delete email template")
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Deleted"})
}
