package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/utils"
)

func TestBuildLineItems(t *testing.T) {
	paper := utils.NewSixID()
	booklet := utils.NewSixID()
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }

	items, total := BuildLineItems([]models.HokerDelivery{
		{Date: day(2), Newspapers: []models.DeliveredItem{{ItemID: paper, Name: "Times", Quantity: 1, UnitPrice: 6.5}}},
		{Date: day(1), Newspapers: []models.DeliveredItem{{ItemID: paper, Name: "Times", Quantity: 2, UnitPrice: 6.5}},
			Booklets: []models.DeliveredItem{{ItemID: booklet, Name: "Digest", Quantity: 1, UnitPrice: 20}}},
		{Date: day(3), Extra: &models.ExtraDelivery{Description: "Festival issue", Amount: 15}},
	})

	require.Len(t, items, 3)
	assert.Equal(t, "Times", items[0].Name)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 19.5, items[0].Amount)
	assert.Equal(t, 20.0, items[1].Amount)
	assert.Equal(t, "Festival issue (2026-03-03)", items[2].Name)
	assert.Nil(t, items[2].ItemID)
	assert.Equal(t, 54.5, total)

	empty, zero := BuildLineItems(nil)
	assert.Empty(t, empty)
	assert.Zero(t, zero)
}

func TestGenerateMonthlyBills(t *testing.T) {
	database := setupServicesDB(t, "test_services_billing_generate")
	cfg := testConfig()
	f := seedFixture(t, database, cfg)
	notifier := &recordingNotifier{}
	billing := NewBillingService(database, cfg, notifier)
	deliveries := NewDeliveryService(database, NewCatalogService(database, nil, 0))
	ctx := context.Background()

	older := insertBill(t, database, f, 2026, 2, models.BillStatusNew, 100)

	for d := 1; d <= 3; d++ {
		_, err := deliveries.Record(ctx, f.hoker.ID, RecordDeliveryInput{
			CustomerID: f.customer.ID,
			Date:       time.Date(2026, 3, d, 6, 30, 0, 0, time.UTC),
			Newspapers: []DeliveryQuantity{{ItemID: f.paper.ID, Quantity: 1}},
		})
		require.NoError(t, err)
	}

	res, err := billing.GenerateMonthlyBills(ctx, f.agent.ID, 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, GenerateResult{Created: 1}, *res)
	assert.Equal(t, []string{models.TemplateBillGenerated}, notifier.templates())

	bills, err := billing.ListCustomerBills(ctx, f.customer.ID)
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, 3, bills[0].Month)
	assert.Equal(t, models.BillStatusNew, bills[0].Status)
	assert.Equal(t, 19.5, bills[0].TotalAmount)
	assert.Equal(t, 3, bills[0].DeliveryCount)
	require.NotNil(t, bills[0].Customer)
	assert.Empty(t, bills[0].Customer.PasswordHash)

	prev, err := billing.GetBill(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusUnpaid, prev.Status)

	// Re-running after another delivery updates the open bill in place.
	_, err = deliveries.Record(ctx, f.hoker.ID, RecordDeliveryInput{
		CustomerID: f.customer.ID,
		Date:       time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		Booklets:   []DeliveryQuantity{{ItemID: f.booklet.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	res, err = billing.GenerateMonthlyBills(ctx, f.agent.ID, 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, GenerateResult{Updated: 1}, *res)

	bills, err = billing.ListAgentBills(ctx, f.agent.ID, BillFilter{Year: 2026, Month: 3})
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, 39.5, bills[0].TotalAmount)

	_, err = billing.GenerateMonthlyBills(ctx, f.agent.ID, 2026, 13)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGenerateMonthlyBills_LeavesPaidBills(t *testing.T) {
	database := setupServicesDB(t, "test_services_billing_paid")
	cfg := testConfig()
	f := seedFixture(t, database, cfg)
	billing := NewBillingService(database, cfg, nil)
	deliveries := NewDeliveryService(database, NewCatalogService(database, nil, 0))
	ctx := context.Background()

	paid := insertBill(t, database, f, 2026, 3, models.BillStatusPaid, 42)
	_, err := deliveries.Record(ctx, f.hoker.ID, RecordDeliveryInput{
		CustomerID: f.customer.ID,
		Date:       time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Newspapers: []DeliveryQuantity{{ItemID: f.paper.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	res, err := billing.GenerateMonthlyBills(ctx, f.agent.ID, 2026, 3)
	require.NoError(t, err)
	assert.Equal(t, GenerateResult{Skipped: 1}, *res)

	got, err := billing.GetBill(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, 42.0, got.TotalAmount)
}

func TestListCustomerBills_PriorityOrder(t *testing.T) {
	database := setupServicesDB(t, "test_services_billing_order")
	cfg := testConfig()
	f := seedFixture(t, database, cfg)
	billing := NewBillingService(database, cfg, nil)

	insertBill(t, database, f, 2026, 1, models.BillStatusPaid, 10)
	insertBill(t, database, f, 2025, 12, models.BillStatusPending, 10)
	insertBill(t, database, f, 2025, 11, models.BillStatusUnpaid, 10)
	insertBill(t, database, f, 2026, 2, models.BillStatusNew, 10)

	bills, err := billing.ListCustomerBills(context.Background(), f.customer.ID)
	require.NoError(t, err)
	require.Len(t, bills, 4)

	var got []models.BillStatus
	for _, b := range bills {
		got = append(got, b.Status)
	}
	assert.Equal(t, []models.BillStatus{
		models.BillStatusPending,
		models.BillStatusNew, // 2026-02
		models.BillStatusUnpaid,
		models.BillStatusPaid,
	}, got)
}

func TestMarkPaid(t *testing.T) {
	database := setupServicesDB(t, "test_services_billing_markpaid")
	cfg := testConfig()
	f := seedFixture(t, database, cfg)
	billing := NewBillingService(database, cfg, nil)
	ctx := context.Background()

	bill := insertBill(t, database, f, 2026, 3, models.BillStatusUnpaid, 75.25)

	_, err := billing.MarkPaid(ctx, utils.NewSixID(), bill.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	paid, err := billing.MarkPaid(ctx, f.agent.ID, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusPaid, paid.Status)
	assert.Equal(t, 75.25, paid.PaidAmount)
	assert.NotNil(t, paid.PaidAt)

	_, err = billing.MarkPaid(ctx, f.agent.ID, bill.ID)
	assert.ErrorIs(t, err, ErrBillAlreadyPaid)

	_, err = billing.MarkPaid(ctx, f.agent.ID, utils.NewSixID())
	assert.True(t, IsNotFound(err))
}
