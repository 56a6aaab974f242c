package models

import (
	"time"

	"newsdesk/portal/internal/utils"
)

// PayRequestStatus is the state of a payment collection request.
type PayRequestStatus string

const (
	PayRequestPending  PayRequestStatus = "pending"
	PayRequestAccepted PayRequestStatus = "accepted"
	PayRequestRejected PayRequestStatus = "rejected"
)

// PayAction is what an agent does with a pending request.
type PayAction string

const (
	PayActionAccept PayAction = "accept"
	PayActionReject PayAction = "reject"
)

// PayRequest asks the agent to collect payment for a bill. Pending requests live in
// the pay_requests queue; once resolved they are moved to pay_request_history.
type PayRequest struct {
	Base       `bson:",inline"`
	BillID     utils.SixID      `bson:"billId" json:"billId"`
	CustomerID utils.SixID      `bson:"customerId" json:"customerId"`
	AgentID    utils.SixID      `bson:"agentId" json:"agentId"`
	Amount     float64          `bson:"amount" json:"amount"`
	Note       string           `bson:"note,omitempty" json:"note,omitempty"`
	Status     PayRequestStatus `bson:"status" json:"status"`
	ResolvedAt *time.Time       `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
}
