package models

import (
	"time"

	"newsdesk/portal/internal/utils"
)

// DeliveredItem is a quantity of one catalog item delivered on a day.
// Name and UnitPrice are copied from the catalog when the delivery is recorded.
type DeliveredItem struct {
	ItemID    utils.SixID `bson:"itemId" json:"itemId"`
	Name      string      `bson:"name" json:"name"`
	Quantity  int         `bson:"quantity" json:"quantity"`
	UnitPrice float64     `bson:"unitPrice" json:"unitPrice"`
}

// ExtraDelivery is an ad-hoc charge recorded alongside a delivery.
type ExtraDelivery struct {
	Description string  `bson:"description" json:"description"`
	Amount      float64 `bson:"amount" json:"amount"`
}

// HokerDelivery is the record of what a hoker delivered to one customer on one date.
type HokerDelivery struct {
	Base       `bson:",inline"`
	AgentID    utils.SixID     `bson:"agentId" json:"agentId"`
	HokerID    utils.SixID     `bson:"hokerId" json:"hokerId"`
	CustomerID utils.SixID     `bson:"customerId" json:"customerId"`
	Date       time.Time       `bson:"date" json:"date"`
	Newspapers []DeliveredItem `bson:"newspapers" json:"newspapers"`
	Booklets   []DeliveredItem `bson:"booklets" json:"booklets"`
	Extra      *ExtraDelivery  `bson:"extra,omitempty" json:"extra,omitempty"`
}

// Amount is the billable value of the delivery.
func (d *HokerDelivery) Amount() float64 {
	total := 0.0
	for _, it := range d.Newspapers {
		total += float64(it.Quantity) * it.UnitPrice
	}
	for _, it := range d.Booklets {
		total += float64(it.Quantity) * it.UnitPrice
	}
	if d.Extra != nil {
		total += d.Extra.Amount
	}
	return total
}
