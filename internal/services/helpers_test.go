package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"newsdesk/portal/internal/config"
	"newsdesk/portal/internal/db"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		AdminSignupKey:         "let-me-in",
		HokerBootstrapPassword: "2026",
		HokerBootstrapTTL:      24 * time.Hour,
		PasswordMinLength:      6,
		CurrencyCode:           "INR",
		AppName:                "Newsdesk",
		CatalogCacheTTL:        time.Minute,
	}
}

// setupServicesDB returns a clean test database with the production indexes.
func setupServicesDB(t *testing.T, dbName string) *mongo.Database {
	t.Helper()
	database := utils.SetupTestDB(t, dbName, db.AllCollections...)
	require.NoError(t, db.EnsureIndexes(context.Background(), database))
	return database
}

type sentNotification struct {
	To         string
	TemplateID string
	Data       map[string]interface{}
}

// recordingNotifier captures notifications instead of queueing them.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, to, templateID string, data map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{To: to, TemplateID: templateID, Data: data})
	return nil
}

func (r *recordingNotifier) templates() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, s := range r.sent {
		out = append(out, s.TemplateID)
	}
	return out
}

// fixture seeds an approved agent with one actively allotted customer assigned to a hoker.
type fixture struct {
	agent    *models.Agent
	customer *models.Customer
	hoker    *models.Hoker
	paper    *models.CatalogItem
	booklet  *models.CatalogItem
}

func seedFixture(t *testing.T, database *mongo.Database, cfg *config.Config) *fixture {
	t.Helper()
	ctx := context.Background()

	agents := NewAgentService(database, cfg, nil)
	agent, err := agents.Signup(ctx, AgentSignup{
		Name: "Ravi", AgencyName: "Ravi News", Email: "ravi@agency.test", Mobile: "9000000001", Password: "secret1",
	})
	require.NoError(t, err)
	agent, err = agents.Review(ctx, agent.ID, models.AgentStatusApproved)
	require.NoError(t, err)

	customers := NewCustomerService(database, cfg)
	customer, err := customers.Signup(ctx, CustomerSignup{
		Name: "Asha", Email: "asha@home.test", Mobile: "9000000002", Password: "secret2",
		Address: models.Address{Line1: "12 MG Road", City: "Pune", Pincode: "411001"},
	})
	require.NoError(t, err)

	_, err = NewAllotmentService(database).Allot(ctx, agent.ID, customer.ID, models.Entitlements{Times: 1})
	require.NoError(t, err)

	hokers := NewHokerService(database, cfg)
	hoker, err := hokers.Create(ctx, agent.ID, "Mohan", "9000000003")
	require.NoError(t, err)
	require.NoError(t, hokers.AssignCustomer(ctx, agent.ID, customer.ID, &hoker.ID))

	catalog := NewCatalogService(database, nil, 0)
	name, price := "Daily Times", 6.5
	paper, err := catalog.Create(ctx, models.KindNewspaper, CatalogInput{Name: &name, Price: &price})
	require.NoError(t, err)
	bname, bprice := "Weekly Digest", 20.0
	booklet, err := catalog.Create(ctx, models.KindBooklet, CatalogInput{Name: &bname, Price: &bprice})
	require.NoError(t, err)

	return &fixture{agent: agent, customer: customer, hoker: hoker, paper: paper, booklet: booklet}
}

// insertBill writes a bill directly, bypassing generation.
func insertBill(t *testing.T, database *mongo.Database, f *fixture, year, month int, status models.BillStatus, total float64) *models.GeneratedBill {
	t.Helper()
	bill := &models.GeneratedBill{
		Base:         models.NewBase(),
		AgentID:      f.agent.ID,
		CustomerID:   f.customer.ID,
		Year:         year,
		Month:        month,
		Items:        []models.BillLineItem{},
		CurrencyCode: "INR",
		TotalAmount:  total,
		Status:       status,
	}
	_, err := database.Collection(db.BillsCollection).InsertOne(context.Background(), bill)
	require.NoError(t, err)
	return bill
}
