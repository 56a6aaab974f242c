package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/services"
	"newsdesk/portal/internal/storage"
	"newsdesk/portal/internal/tasks"
	"newsdesk/portal/internal/utils"
)

// AgentHandler serves the agent API. Every operation is scoped to the agent in
// the verified session token.
type AgentHandler struct {
	agents     services.IAgentService
	customers  services.ICustomerService
	allotments services.IAllotmentService
	hokers     services.IHokerService
	deliveries services.IDeliveryService
	billing    services.IBillingService
	payments   services.IPaymentService
	uploads    imageUploads
}

// AgentDeps groups the services the agent API needs.
type AgentDeps struct {
	Agents     services.IAgentService
	Customers  services.ICustomerService
	Allotments services.IAllotmentService
	Hokers     services.IHokerService
	Deliveries services.IDeliveryService
	Billing    services.IBillingService
	Payments   services.IPaymentService
	Storage    storage.IS3Storage
	Images     ImageQueue
}

func NewAgentHandler(d AgentDeps) *AgentHandler {
	return &AgentHandler{
		agents:     d.Agents,
		customers:  d.Customers,
		allotments: d.Allotments,
		hokers:     d.Hokers,
		deliveries: d.Deliveries,
		billing:    d.Billing,
		payments:   d.Payments,
		uploads:    imageUploads{storage: d.Storage, queue: d.Images},
	}
}

type agentProfileRequest struct {
	Name       *string         `json:"name" binding:"omitempty,min=1"`
	AgencyName *string         `json:"agencyName" binding:"omitempty,min=1"`
	Mobile     *string         `json:"mobile" binding:"omitempty,mobile"`
	Address    *addressRequest `json:"address"`
}

// allotRequest identifies the customer by id, email or mobile.
type allotRequest struct {
	Customer     string              `json:"customer" binding:"required"`
	Entitlements models.Entitlements `json:"entitlements"`
}

type entitlementsRequest struct {
	Entitlements models.Entitlements `json:"entitlements"`
}

type createHokerRequest struct {
	Name   string `json:"name" binding:"required"`
	Mobile string `json:"mobile" binding:"required,mobile"`
}

// assignHokerRequest with a null hokerId unassigns the customer.
type assignHokerRequest struct {
	HokerID *utils.SixID `json:"hokerId"`
}

type generateBillsRequest struct {
	Year  int `json:"year" binding:"required,min=2000"`
	Month int `json:"month" binding:"required,min=1,max=12"`
}

type resolvePayRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
}

// Profile handles GET /api/agent/profile
func (h *AgentHandler) Profile(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	agent, err := h.agents.FindByID(c.Request.Context(), agentID)
	if err != nil {
		respondError(c, err, "Failed to retrieve profile")
		return
	}
	respond(c, http.StatusOK, gin.H{"agent": agent})
}

// UpdateProfile handles PATCH /api/agent/profile
func (h *AgentHandler) UpdateProfile(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	var req agentProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	in := services.AgentProfileUpdate{Name: req.Name, AgencyName: req.AgencyName, Mobile: req.Mobile}
	if req.Address != nil {
		addr := req.Address.model()
		in.Address = &addr
	}
	agent, err := h.agents.UpdateProfile(c.Request.Context(), agentID, in)
	if err != nil {
		respondError(c, err, "Failed to update profile")
		return
	}
	respond(c, http.StatusOK, gin.H{"agent": agent})
}

// ImageUploadURL handles POST /api/agent/profile/image/upload-url
func (h *AgentHandler) ImageUploadURL(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	h.uploads.presign(c, tasks.ImageTargetAgent, agentID)
}

// ConfirmImage handles POST /api/agent/profile/image
func (h *AgentHandler) ConfirmImage(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	h.uploads.confirm(c, tasks.ImageTargetAgent, agentID)
}

// ListCustomers handles GET /api/agent/customers
func (h *AgentHandler) ListCustomers(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	allotted, err := h.allotments.ListActive(c.Request.Context(), agentID)
	if err != nil {
		respondError(c, err, "Failed to list customers")
		return
	}
	respond(c, http.StatusOK, gin.H{"customers": allotted})
}

// AllotCustomer handles POST /api/agent/customers
func (h *AgentHandler) AllotCustomer(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	var req allotRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	customer, err := h.customers.FindByIdentifier(ctx, req.Customer)
	if err != nil {
		respondError(c, err, "Failed to find customer")
		return
	}
	allotment, err := h.allotments.Allot(ctx, agentID, customer.ID, req.Entitlements)
	if err != nil {
		respondError(c, err, "Failed to allot customer")
		return
	}
	respond(c, http.StatusCreated, gin.H{"allotment": allotment, "customer": customer})
}

// UpdateEntitlements handles PATCH /api/agent/allotments/:id
func (h *AgentHandler) UpdateEntitlements(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req entitlementsRequest
	if !bindJSON(c, &req) {
		return
	}
	allotment, err := h.allotments.UpdateEntitlements(c.Request.Context(), agentID, id, req.Entitlements)
	if err != nil {
		respondError(c, err, "Failed to update allotment")
		return
	}
	respond(c, http.StatusOK, gin.H{"allotment": allotment})
}

// DeactivateAllotment handles DELETE /api/agent/allotments/:id
func (h *AgentHandler) DeactivateAllotment(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.allotments.Deactivate(c.Request.Context(), agentID, id); err != nil {
		respondError(c, err, "Failed to deactivate allotment")
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Allotment deactivated"})
}

// AssignHoker handles PUT /api/agent/customers/:id/hoker
func (h *AgentHandler) AssignHoker(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	customerID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req assignHokerRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.hokers.AssignCustomer(c.Request.Context(), agentID, customerID, req.HokerID); err != nil {
		respondError(c, err, "Failed to assign hoker")
		return
	}
	respond(c, http.StatusOK, gin.H{"customerId": customerID, "hokerId": req.HokerID})
}

// ListHokers handles GET /api/agent/hokers
func (h *AgentHandler) ListHokers(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	hokers, err := h.hokers.ListByAgent(c.Request.Context(), agentID)
	if err != nil {
		respondError(c, err, "Failed to list hokers")
		return
	}
	respond(c, http.StatusOK, gin.H{"hokers": hokers})
}

// CreateHoker handles POST /api/agent/hokers. The hoker signs in once with the
// bootstrap password and must then choose their own.
func (h *AgentHandler) CreateHoker(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	var req createHokerRequest
	if !bindJSON(c, &req) {
		return
	}
	hoker, err := h.hokers.Create(c.Request.Context(), agentID, req.Name, req.Mobile)
	if err != nil {
		respondError(c, err, "Failed to create hoker")
		return
	}
	respond(c, http.StatusCreated, gin.H{"hoker": hoker, "bootstrapExpiresAt": hoker.BootstrapExpiresAt})
}

// ResetHoker handles POST /api/agent/hokers/:id/reset
func (h *AgentHandler) ResetHoker(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	hoker, err := h.hokers.Reset(c.Request.Context(), agentID, id)
	if err != nil {
		respondError(c, err, "Failed to reset hoker")
		return
	}
	respond(c, http.StatusOK, gin.H{"hoker": hoker, "bootstrapExpiresAt": hoker.BootstrapExpiresAt})
}

// ListDeliveries handles GET /api/agent/deliveries?customerId=&hokerId=&from=&to=
// where to is inclusive.
func (h *AgentHandler) ListDeliveries(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	var f services.DeliveryFilter
	if f.CustomerID, ok = optionalIDQuery(c, "customerId"); !ok {
		return
	}
	if f.HokerID, ok = optionalIDQuery(c, "hokerId"); !ok {
		return
	}
	if f.From, ok = dateQuery(c, "from"); !ok {
		return
	}
	to, ok := dateQuery(c, "to")
	if !ok {
		return
	}
	if !to.IsZero() {
		f.To = to.AddDate(0, 0, 1)
	}
	deliveries, err := h.deliveries.ListForAgent(c.Request.Context(), agentID, f)
	if err != nil {
		respondError(c, err, "Failed to list deliveries")
		return
	}
	respond(c, http.StatusOK, gin.H{"deliveries": deliveries})
}

// GenerateBills handles POST /api/agent/bills/generate
func (h *AgentHandler) GenerateBills(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	var req generateBillsRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.billing.GenerateMonthlyBills(c.Request.Context(), agentID, req.Year, req.Month)
	if err != nil {
		respondError(c, err, "Failed to generate bills")
		return
	}
	respond(c, http.StatusOK, gin.H{"result": res})
}

// ListBills handles GET /api/agent/bills?status=&year=&month=&customerId=
func (h *AgentHandler) ListBills(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	f := services.BillFilter{Status: models.BillStatus(c.Query("status"))}
	if f.Year, ok = intQuery(c, "year"); !ok {
		return
	}
	if f.Month, ok = intQuery(c, "month"); !ok {
		return
	}
	if f.CustomerID, ok = optionalIDQuery(c, "customerId"); !ok {
		return
	}
	bills, err := h.billing.ListAgentBills(c.Request.Context(), agentID, f)
	if err != nil {
		respondError(c, err, "Failed to list bills")
		return
	}
	respond(c, http.StatusOK, gin.H{"bills": bills})
}

// MarkBillPaid handles POST /api/agent/bills/:id/paid for cash collected in person.
func (h *AgentHandler) MarkBillPaid(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	bill, err := h.billing.MarkPaid(c.Request.Context(), agentID, id)
	if err != nil {
		respondError(c, err, "Failed to mark bill paid")
		return
	}
	respond(c, http.StatusOK, gin.H{"bill": bill})
}

// ListPayRequests handles GET /api/agent/pay-requests
func (h *AgentHandler) ListPayRequests(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	reqs, err := h.payments.ListPending(c.Request.Context(), agentID)
	if err != nil {
		respondError(c, err, "Failed to list pay requests")
		return
	}
	respond(c, http.StatusOK, gin.H{"payRequests": reqs})
}

// ResolvePayRequest handles POST /api/agent/pay-requests/:id with
// {"action": "accept"|"reject"}.
func (h *AgentHandler) ResolvePayRequest(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req resolvePayRequest
	if !bindJSON(c, &req) {
		return
	}
	resolved, err := h.payments.Resolve(c.Request.Context(), agentID, id, models.PayAction(req.Action))
	if err != nil {
		respondError(c, err, "Failed to resolve pay request")
		return
	}
	respond(c, http.StatusOK, gin.H{"payRequest": resolved})
}

// PayRequestHistory handles GET /api/agent/pay-requests/history?customerId=
func (h *AgentHandler) PayRequestHistory(c *gin.Context) {
	agentID, ok := subjectID(c)
	if !ok {
		return
	}
	customerID, ok := optionalIDQuery(c, "customerId")
	if !ok {
		return
	}
	reqs, err := h.payments.History(c.Request.Context(), &agentID, customerID)
	if err != nil {
		respondError(c, err, "Failed to list pay request history")
		return
	}
	respond(c, http.StatusOK, gin.H{"payRequests": reqs})
}
