package models

import (
	"time"

	"newsdesk/portal/internal/utils"
)

// Address is a postal address.
type Address struct {
	Line1   string `bson:"line1" json:"line1"`
	Line2   string `bson:"line2,omitempty" json:"line2,omitempty"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Pincode string `bson:"pincode" json:"pincode"`
}

// Admin is a portal administrator.
type Admin struct {
	Base         `bson:",inline"`
	Name         string `bson:"name" json:"name"`
	Email        string `bson:"email" json:"email"`
	PasswordHash string `bson:"password" json:"-"`
}

// AgentStatus is the approval state of an agent account.
type AgentStatus string

const (
	AgentStatusPending  AgentStatus = "pending"
	AgentStatusApproved AgentStatus = "approved"
	AgentStatusRejected AgentStatus = "rejected"
)

// Valid reports whether s is a known agent status.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusPending, AgentStatusApproved, AgentStatusRejected:
		return true
	}
	return false
}

// Agent runs an agency that supplies newspapers to allotted customers.
type Agent struct {
	Base         `bson:",inline"`
	Name         string      `bson:"name" json:"name"`
	AgencyName   string      `bson:"agencyName" json:"agencyName"`
	Email        string      `bson:"email" json:"email"`
	Mobile       string      `bson:"mobile" json:"mobile"`
	PasswordHash string      `bson:"password" json:"-"`
	Address      Address     `bson:"address" json:"address"`
	ImageKey     string      `bson:"imageKey,omitempty" json:"imageKey,omitempty"`
	Status       AgentStatus `bson:"status" json:"status"`
	ReviewedAt   *time.Time  `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
}

// Customer subscribes to newspapers and booklets through an agent.
type Customer struct {
	Base         `bson:",inline"`
	Name         string       `bson:"name" json:"name"`
	Email        string       `bson:"email" json:"email"`
	Mobile       string       `bson:"mobile" json:"mobile"`
	PasswordHash string       `bson:"password" json:"-"`
	Address      Address      `bson:"address" json:"address"`
	Hoker        *utils.SixID `bson:"hoker,omitempty" json:"hoker,omitempty"`
}

// Hoker is a delivery person working for one agent.
// A hoker created without a password may log in once with the bootstrap password
// while BootstrapExpiresAt is in the future and BootstrapUsedAt is unset.
type Hoker struct {
	Base               `bson:",inline"`
	AgentID            utils.SixID `bson:"agentId" json:"agentId"`
	Name               string      `bson:"name" json:"name"`
	Mobile             string      `bson:"mobile" json:"mobile"`
	PasswordHash       string      `bson:"password,omitempty" json:"-"`
	BootstrapExpiresAt *time.Time  `bson:"bootstrapExpiresAt,omitempty" json:"-"`
	BootstrapUsedAt    *time.Time  `bson:"bootstrapUsedAt,omitempty" json:"-"`
}

// HasPassword reports whether the hoker has set a password.
func (h *Hoker) HasPassword() bool {
	return h.PasswordHash != ""
}
