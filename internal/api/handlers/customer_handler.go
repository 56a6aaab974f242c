package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"newsdesk/portal/internal/services"
	"newsdesk/portal/internal/utils"
)

// CustomerHandler serves the customer API.
type CustomerHandler struct {
	customers     services.ICustomerService
	allotments    services.IAllotmentService
	subscriptions services.ISubscriptionService
	deliveries    services.IDeliveryService
	billing       services.IBillingService
	payments      services.IPaymentService
	now           func() time.Time
}

// CustomerDeps groups the services the customer API needs.
type CustomerDeps struct {
	Customers     services.ICustomerService
	Allotments    services.IAllotmentService
	Subscriptions services.ISubscriptionService
	Deliveries    services.IDeliveryService
	Billing       services.IBillingService
	Payments      services.IPaymentService
}

func NewCustomerHandler(d CustomerDeps) *CustomerHandler {
	return &CustomerHandler{
		customers:     d.Customers,
		allotments:    d.Allotments,
		subscriptions: d.Subscriptions,
		deliveries:    d.Deliveries,
		billing:       d.Billing,
		payments:      d.Payments,
		now:           time.Now,
	}
}

type customerProfileRequest struct {
	Name    *string         `json:"name" binding:"omitempty,min=1"`
	Mobile  *string         `json:"mobile" binding:"omitempty,mobile"`
	Address *addressRequest `json:"address"`
}

type subscriptionRequest struct {
	Newspapers []utils.SixID `json:"newspapers"`
	Booklets   []utils.SixID `json:"booklets"`
}

type createPayRequest struct {
	BillID utils.SixID `json:"billId" binding:"required"`
	Note   string      `json:"note" binding:"max=500"`
}

// Profile handles GET /api/customers/profile. The active allotment, if any, is
// included so the dashboard can show the serving agent.
func (h *CustomerHandler) Profile(c *gin.Context) {
	customerID, ok := subjectID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	customer, err := h.customers.FindByID(ctx, customerID)
	if err != nil {
		respondError(c, err, "Failed to retrieve profile")
		return
	}
	allotment, err := h.allotments.ActiveForCustomer(ctx, customerID)
	if err != nil && !services.IsNotFound(err) {
		respondError(c, err, "Failed to retrieve profile")
		return
	}
	respond(c, http.StatusOK, gin.H{"customer": customer, "allotment": allotment})
}

// UpdateProfile handles PATCH /api/customers/profile
func (h *CustomerHandler) UpdateProfile(c *gin.Context) {
	customerID, ok := subjectID(c)
	if !ok {
		return
	}
	var req customerProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	in := services.CustomerProfileUpdate{Name: req.Name, Mobile: req.Mobile}
	if req.Address != nil {
		addr := req.Address.model()
		in.Address = &addr
	}
	customer, err := h.customers.UpdateProfile(c.Request.Context(), customerID, in)
	if err != nil {
		respondError(c, err, "Failed to update profile")
		return
	}
	respond(c, http.StatusOK, gin.H{"customer": customer})
}

// SaveSubscription handles PUT /api/customers/subscription. The stored selection
// is replaced by the submitted sets.
func (h *CustomerHandler) SaveSubscription(c *gin.Context) {
	customerID, ok := subjectID(c)
	if !ok {
		return
	}
	var req subscriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.subscriptions.Save(c.Request.Context(), customerID, req.Newspapers, req.Booklets)
	if err != nil {
		respondError(c, err, "Failed to save subscription")
		return
	}
	respond(c, http.StatusOK, gin.H{"subscription": sub})
}

// GetSubscription handles GET /api/customers/subscription
func (h *CustomerHandler) GetSubscription(c *gin.Context) {
	customerID, ok := subjectID(c)
	if !ok {
		return
	}
	sub, err := h.subscriptions.Get(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err, "Failed to retrieve subscription")
		return
	}
	respond(c, http.StatusOK, gin.H{"subscription": sub})
}

// ListBills handles GET /api/customers/bills, pending first, then open bills
// newest first, then paid.
func (h *CustomerHandler) ListBills(c *gin.Context) {
	customerID, ok := subjectID(c)
	if !ok {
		return
	}
	bills, err := h.billing.ListCustomerBills(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err, "Failed to list bills")
		return
	}
	respond(c, http.StatusOK, gin.H{"bills": bills})
}

// CreatePayRequest handles POST /api/customers/pay-requests
func (h *CustomerHandler) CreatePayRequest(c *gin.Context) {
	customerID, ok := subjectID(c)
	if !ok {
		return
	}
	var req createPayRequest
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.payments.Create(c.Request.Context(), customerID, req.BillID, req.Note)
	if err != nil {
		respondError(c, err, "Failed to create pay request")
		return
	}
	respond(c, http.StatusCreated, gin.H{"payRequest": created})
}

// GetPayRequest handles GET /api/customers/pay-requests/:id. Resolved requests
// are only visible through the history.
func (h *CustomerHandler) GetPayRequest(c *gin.Context) {
	customerID, ok := subjectID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	req, err := h.payments.GetForCustomer(c.Request.Context(), customerID, id)
	if err != nil {
		respondError(c, err, "Failed to retrieve pay request")
		return
	}
	respond(c, http.StatusOK, gin.H{"payRequest": req})
}

// PayRequestHistory handles GET /api/customers/pay-requests/history
func (h *CustomerHandler) PayRequestHistory(c *gin.Context) {
	customerID, ok := subjectID(c)
	if !ok {
		return
	}
	reqs, err := h.payments.History(c.Request.Context(), nil, &customerID)
	if err != nil {
		respondError(c, err, "Failed to list pay request history")
		return
	}
	respond(c, http.StatusOK, gin.H{"payRequests": reqs})
}

// ListDeliveries handles GET /api/customers/deliveries?year=&month=, defaulting
// to the current month.
func (h *CustomerHandler) ListDeliveries(c *gin.Context) {
	customerID, ok := subjectID(c)
	if !ok {
		return
	}
	year, ok := intQuery(c, "year")
	if !ok {
		return
	}
	month, ok := intQuery(c, "month")
	if !ok {
		return
	}
	if year == 0 || month == 0 {
		now := h.now().UTC()
		year, month = now.Year(), int(now.Month())
	}
	deliveries, err := h.deliveries.ListForCustomer(c.Request.Context(), customerID, year, month)
	if err != nil {
		respondError(c, err, "Failed to list deliveries")
		return
	}
	respond(c, http.StatusOK, gin.H{"deliveries": deliveries, "year": year, "month": month})
}
