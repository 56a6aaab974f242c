package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"newsdesk/portal/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageTemplates parses the embedded page templates for gin's HTML renderer.
func PageTemplates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

type rolePage struct {
	title           string
	loginEndpoint   string
	identifierField string
	identifierLabel string
	apiBase         string
	sections        []string
}

var rolePages = map[models.Role]rolePage{
	models.RoleAdmin: {
		title:           "Admin",
		loginEndpoint:   "/api/admin/login",
		identifierField: "email",
		identifierLabel: "Email",
		apiBase:         "/api/admin",
		sections:        []string{"agents", "customers", "email-templates"},
	},
	models.RoleAgent: {
		title:           "Agent",
		loginEndpoint:   "/api/agent/login",
		identifierField: "email",
		identifierLabel: "Email",
		apiBase:         "/api/agent",
		sections:        []string{"profile", "customers", "hokers", "deliveries", "bills", "pay-requests"},
	},
	models.RoleCustomer: {
		title:           "Customer",
		loginEndpoint:   "/api/customers/login",
		identifierField: "identifier",
		identifierLabel: "Email or mobile",
		apiBase:         "/api/customers",
		sections:        []string{"profile", "subscription", "bills", "deliveries"},
	},
	models.RoleHoker: {
		title:           "Hoker",
		loginEndpoint:   "/api/hoker/login",
		identifierField: "mobile",
		identifierLabel: "Mobile",
		apiBase:         "/api/hoker",
		sections:        []string{"profile", "customers", "deliveries"},
	},
}

// PageHandler renders the login page and dashboard of each role tree.
type PageHandler struct {
	appName string
}

func NewPageHandler(appName string) *PageHandler {
	return &PageHandler{appName: appName}
}

// Login returns the handler for GET /<role>/login.
func (h *PageHandler) Login(role models.Role) gin.HandlerFunc {
	page := rolePages[role]
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "login.html", gin.H{
			"AppName":         h.appName,
			"Title":           page.title,
			"Role":            role,
			"LoginEndpoint":   page.loginEndpoint,
			"IdentifierField": page.identifierField,
			"IdentifierLabel": page.identifierLabel,
		})
	}
}

// Dashboard returns the handler for GET /<role>. It runs behind the role gate,
// which has already verified the session.
func (h *PageHandler) Dashboard(role models.Role) gin.HandlerFunc {
	page := rolePages[role]
	return func(c *gin.Context) {
		id, ok := subjectID(c)
		if !ok {
			return
		}
		c.HTML(http.StatusOK, "dashboard.html", gin.H{
			"AppName":   h.appName,
			"Title":     page.title,
			"Role":      role,
			"APIBase":   page.apiBase,
			"SubjectID": id.String(),
			"Sections":  page.sections,
		})
	}
}
