package models

import (
	"newsdesk/portal/internal/utils"
)

// Entitlements are per-product copy counters an agent keeps for an allotted customer.
type Entitlements struct {
	PB    int `bson:"PB" json:"PB" binding:"min=0"`
	BH    int `bson:"BH" json:"BH" binding:"min=0"`
	HT    int `bson:"HT" json:"HT" binding:"min=0"`
	Times int `bson:"TIMES" json:"TIMES" binding:"min=0"`
	Hindu int `bson:"HINDU" json:"HINDU" binding:"min=0"`
}

// AllotedCustomer binds one agent to one customer. It is the only thing that decides
// which customers an agent can see. A customer has at most one active allotment.
type AllotedCustomer struct {
	Base         `bson:",inline"`
	AgentID      utils.SixID  `bson:"agentId" json:"agentId"`
	CustomerID   utils.SixID  `bson:"customerId" json:"customerId"`
	Entitlements Entitlements `bson:"entitlements" json:"entitlements"`
	IsActive     bool         `bson:"is_active" json:"is_active"`
}

// AllotedCustomerView is an allotment joined with its customer document.
type AllotedCustomerView struct {
	AllotedCustomer `bson:",inline"`
	Customer        Customer `bson:"customer" json:"customer"`
}
