package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/services"
	"newsdesk/portal/internal/utils"
)

// HokerHandler serves the delivery person API.
type HokerHandler struct {
	hokers     services.IHokerService
	deliveries services.IDeliveryService
	now        func() time.Time
}

func NewHokerHandler(hokers services.IHokerService, deliveries services.IDeliveryService) *HokerHandler {
	return &HokerHandler{hokers: hokers, deliveries: deliveries, now: time.Now}
}

type deliveryQuantityRequest struct {
	ItemID   utils.SixID `json:"itemId" binding:"required"`
	Quantity int         `json:"quantity" binding:"min=1"`
}

type extraDeliveryRequest struct {
	Description string  `json:"description" binding:"required"`
	Amount      float64 `json:"amount" binding:"gte=0"`
}

type recordDeliveryRequest struct {
	CustomerID utils.SixID               `json:"customerId" binding:"required"`
	Date       string                    `json:"date" binding:"required"`
	Newspapers []deliveryQuantityRequest `json:"newspapers" binding:"dive"`
	Booklets   []deliveryQuantityRequest `json:"booklets" binding:"dive"`
	Extra      *extraDeliveryRequest     `json:"extra"`
}

func quantities(in []deliveryQuantityRequest) []services.DeliveryQuantity {
	out := make([]services.DeliveryQuantity, 0, len(in))
	for _, q := range in {
		out = append(out, services.DeliveryQuantity{ItemID: q.ItemID, Quantity: q.Quantity})
	}
	return out
}

// Profile handles GET /api/hoker/profile
func (h *HokerHandler) Profile(c *gin.Context) {
	hokerID, ok := subjectID(c)
	if !ok {
		return
	}
	hoker, err := h.hokers.FindByID(c.Request.Context(), hokerID)
	if err != nil {
		respondError(c, err, "Failed to retrieve profile")
		return
	}
	respond(c, http.StatusOK, gin.H{"hoker": hoker, "mustSetPassword": !hoker.HasPassword()})
}

// ListCustomers handles GET /api/hoker/customers
func (h *HokerHandler) ListCustomers(c *gin.Context) {
	hokerID, ok := subjectID(c)
	if !ok {
		return
	}
	customers, err := h.hokers.AssignedCustomers(c.Request.Context(), hokerID)
	if err != nil {
		respondError(c, err, "Failed to list customers")
		return
	}
	respond(c, http.StatusOK, gin.H{"customers": customers})
}

// RecordDelivery handles POST /api/hoker/deliveries. A second submission for the
// same customer and date replaces the first.
func (h *HokerHandler) RecordDelivery(c *gin.Context) {
	hokerID, ok := subjectID(c)
	if !ok {
		return
	}
	var req recordDeliveryRequest
	if !bindJSON(c, &req) {
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		badRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}
	in := services.RecordDeliveryInput{
		CustomerID: req.CustomerID,
		Date:       date,
		Newspapers: quantities(req.Newspapers),
		Booklets:   quantities(req.Booklets),
	}
	if req.Extra != nil {
		in.Extra = &models.ExtraDelivery{Description: req.Extra.Description, Amount: req.Extra.Amount}
	}
	delivery, err := h.deliveries.Record(c.Request.Context(), hokerID, in)
	if err != nil {
		respondError(c, err, "Failed to record delivery")
		return
	}
	respond(c, http.StatusCreated, gin.H{"delivery": delivery})
}

// ListDeliveries handles GET /api/hoker/deliveries?date=YYYY-MM-DD, defaulting to today.
func (h *HokerHandler) ListDeliveries(c *gin.Context) {
	hokerID, ok := subjectID(c)
	if !ok {
		return
	}
	date, ok := dateQuery(c, "date")
	if !ok {
		return
	}
	if date.IsZero() {
		date = h.now().UTC()
	}
	deliveries, err := h.deliveries.ListForHoker(c.Request.Context(), hokerID, date)
	if err != nil {
		respondError(c, err, "Failed to list deliveries")
		return
	}
	respond(c, http.StatusOK, gin.H{"deliveries": deliveries, "date": date.Format("2006-01-02")})
}
