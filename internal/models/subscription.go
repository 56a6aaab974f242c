package models

import (
	"newsdesk/portal/internal/utils"
)

// CustomerSubscription lists the catalog items a customer has selected.
// There is one document per customer.
type CustomerSubscription struct {
	Base       `bson:",inline"`
	CustomerID utils.SixID   `bson:"customerId" json:"customerId"`
	Newspapers []utils.SixID `bson:"newspapers" json:"newspapers"`
	Booklets   []utils.SixID `bson:"booklets" json:"booklets"`
}
