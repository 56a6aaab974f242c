package db

// Collection names.
const (
	AdminsCollection            = "admins"
	AgentsCollection            = "agents"
	CustomersCollection         = "customers"
	HokersCollection            = "hokers"
	AllotedCustomersCollection  = "alloted_customers"
	NewspapersCollection        = "newspapers"
	BookletsCollection          = "booklets"
	SubscriptionsCollection     = "customer_subscriptions"
	DeliveriesCollection        = "hoker_deliveries"
	BillsCollection             = "generated_bills"
	PayRequestsCollection       = "pay_requests"
	PayRequestHistoryCollection = "pay_request_history"
	EmailTemplatesCollection    = "email_templates"
)

// AllCollections lists every collection the portal owns, in export order.
var AllCollections = []string{
	AdminsCollection,
	AgentsCollection,
	CustomersCollection,
	HokersCollection,
	AllotedCustomersCollection,
	NewspapersCollection,
	BookletsCollection,
	SubscriptionsCollection,
	DeliveriesCollection,
	BillsCollection,
	PayRequestsCollection,
	PayRequestHistoryCollection,
	EmailTemplatesCollection,
}

// IsKnownCollection reports whether name is one of AllCollections.
func IsKnownCollection(name string) bool {
	for _, c := range AllCollections {
		if c == name {
			return true
		}
	}
	return false
}
