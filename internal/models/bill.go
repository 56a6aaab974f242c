package models

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"newsdesk/portal/internal/utils"
)

// BillStatus is the payment state of a generated bill.
type BillStatus string

const (
	BillStatusPending BillStatus = "pending" // a pay request awaits the agent
	BillStatusUnpaid  BillStatus = "unpaid"  // carried over from an earlier month
	BillStatusNew     BillStatus = "new"     // generated for the latest month
	BillStatusPaid    BillStatus = "paid"    // terminal
)

// StatusPriority is the ordering table for bill lists: lower sorts first.
// Statuses not listed sort last with OtherStatusPriority.
var StatusPriority = map[BillStatus]int{
	BillStatusPending: 1,
	BillStatusUnpaid:  2,
	BillStatusNew:     2,
	BillStatusPaid:    3,
}

// OtherStatusPriority applies to any status missing from StatusPriority.
const OtherStatusPriority = 4

// Priority returns the sort tier of the status.
func (s BillStatus) Priority() int {
	if p, ok := StatusPriority[s]; ok {
		return p
	}
	return OtherStatusPriority
}

// Payable reports whether a pay request may be raised against a bill in this status.
func (s BillStatus) Payable() bool {
	return s == BillStatusNew || s == BillStatusUnpaid
}

// StatusPriorityExpr renders StatusPriority as an aggregation $switch over $status,
// so the pipeline and SortBills share one table.
func StatusPriorityExpr() bson.M {
	statuses := make([]string, 0, len(StatusPriority))
	for s := range StatusPriority {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)

	branches := make(bson.A, 0, len(statuses))
	for _, s := range statuses {
		branches = append(branches, bson.M{
			"case": bson.M{"$eq": bson.A{"$status", s}},
			"then": StatusPriority[BillStatus(s)],
		})
	}
	return bson.M{"$switch": bson.M{"branches": branches, "default": OtherStatusPriority}}
}

// BillLineItem is one priced row of a bill.
type BillLineItem struct {
	ItemID    *utils.SixID `bson:"itemId,omitempty" json:"itemId,omitempty"`
	Name      string       `bson:"name" json:"name"`
	Quantity  int          `bson:"quantity" json:"quantity"`
	UnitPrice float64      `bson:"unitPrice" json:"unitPrice"`
	Amount    float64      `bson:"amount" json:"amount"`
}

// GeneratedBill is the monthly bill for one customer/agent pair.
type GeneratedBill struct {
	Base           `bson:",inline"`
	AgentID        utils.SixID    `bson:"agentId" json:"agentId"`
	CustomerID     utils.SixID    `bson:"customerId" json:"customerId"`
	Year           int            `bson:"year" json:"year"`
	Month          int            `bson:"month" json:"month"`
	Items          []BillLineItem `bson:"items" json:"items"`
	DeliveryCount  int            `bson:"deliveryCount" json:"deliveryCount"`
	CurrencyCode   string         `bson:"currencyCode" json:"currencyCode"`
	TotalAmount    float64        `bson:"totalAmount" json:"totalAmount"`
	PaidAmount     float64        `bson:"paidAmount" json:"paidAmount"`
	PaidAt         *time.Time     `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	Status         BillStatus     `bson:"status" json:"status"`
	PreviousStatus BillStatus     `bson:"previousStatus,omitempty" json:"-"`
}

// BillView is a bill joined with its customer, as returned by list endpoints.
type BillView struct {
	GeneratedBill `bson:",inline"`
	Customer      *Customer `bson:"customer,omitempty" json:"customer,omitempty"`
}

// lessBills orders by status tier, then year and month descending.
func lessBills(a, b *GeneratedBill) bool {
	pa, pb := a.Status.Priority(), b.Status.Priority()
	if pa != pb {
		return pa < pb
	}
	if a.Year != b.Year {
		return a.Year > b.Year
	}
	return a.Month > b.Month
}

// SortBills stably sorts bills by status tier, then year/month descending.
func SortBills(bills []BillView) {
	sort.SliceStable(bills, func(i, j int) bool {
		return lessBills(&bills[i].GeneratedBill, &bills[j].GeneratedBill)
	})
}
