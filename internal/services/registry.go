package services

import (
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"newsdesk/portal/internal/config"
)

// Registry holds one instance of every service, sharing a single database handle.
type Registry struct {
	Admins         IAdminService
	Agents         IAgentService
	Customers      ICustomerService
	Hokers         IHokerService
	Allotments     IAllotmentService
	Catalog        ICatalogService
	Subscriptions  ISubscriptionService
	Deliveries     IDeliveryService
	Billing        IBillingService
	Payments       IPaymentService
	Exports        IExportService
	EmailTemplates *EmailTemplateService
}

// NewRegistry wires the services. rdb backs the catalog cache and may be nil.
func NewRegistry(db *mongo.Database, rdb redis.Cmdable, cfg *config.Config, notifier Notifier) *Registry {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	catalog := NewCatalogService(db, rdb, cfg.CatalogCacheTTL)
	return &Registry{
		Admins:         NewAdminService(db, cfg),
		Agents:         NewAgentService(db, cfg, notifier),
		Customers:      NewCustomerService(db, cfg),
		Hokers:         NewHokerService(db, cfg),
		Allotments:     NewAllotmentService(db),
		Catalog:        catalog,
		Subscriptions:  NewSubscriptionService(db, catalog),
		Deliveries:     NewDeliveryService(db, catalog),
		Billing:        NewBillingService(db, cfg, notifier),
		Payments:       NewPaymentService(db, notifier),
		Exports:        NewExportService(db),
		EmailTemplates: NewEmailTemplateService(db),
	}
}
