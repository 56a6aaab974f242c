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

func TestMonthRange(t *testing.T) {
	from, to := MonthRange(2026, 12)
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), to)

	assert.Equal(t, time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC), DayStart(time.Date(2026, 5, 9, 23, 59, 0, 0, time.UTC)))
}

func TestRecordDelivery(t *testing.T) {
	database := setupServicesDB(t, "test_services_delivery")
	cfg := testConfig()
	f := seedFixture(t, database, cfg)
	deliveries := NewDeliveryService(database, NewCatalogService(database, nil, 0))
	ctx := context.Background()
	day := time.Date(2026, 4, 2, 7, 0, 0, 0, time.UTC)

	d, err := deliveries.Record(ctx, f.hoker.ID, RecordDeliveryInput{
		CustomerID: f.customer.ID,
		Date:       day,
		Newspapers: []DeliveryQuantity{{ItemID: f.paper.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, f.agent.ID, d.AgentID)
	assert.Equal(t, DayStart(day), d.Date)
	require.Len(t, d.Newspapers, 1)
	assert.Equal(t, "Daily Times", d.Newspapers[0].Name)
	assert.Equal(t, 6.5, d.Newspapers[0].UnitPrice)

	// Same customer and day replaces the record.
	again, err := deliveries.Record(ctx, f.hoker.ID, RecordDeliveryInput{
		CustomerID: f.customer.ID,
		Date:       day.Add(3 * time.Hour),
		Booklets:   []DeliveryQuantity{{ItemID: f.booklet.ID, Quantity: 1}},
		Extra:      &models.ExtraDelivery{Description: "Supplement", Amount: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, d.ID, again.ID)

	list, err := deliveries.ListForHoker(ctx, f.hoker.ID, day)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Newspapers)
	assert.Equal(t, 25.0, list[0].Amount())

	monthly, err := deliveries.ListForCustomer(ctx, f.customer.ID, 2026, 4)
	require.NoError(t, err)
	assert.Len(t, monthly, 1)

	byAgent, err := deliveries.ListForAgent(ctx, f.agent.ID, DeliveryFilter{HokerID: &f.hoker.ID})
	require.NoError(t, err)
	assert.Len(t, byAgent, 1)
}

func TestRecordDelivery_Rejections(t *testing.T) {
	database := setupServicesDB(t, "test_services_delivery_reject")
	cfg := testConfig()
	f := seedFixture(t, database, cfg)
	deliveries := NewDeliveryService(database, NewCatalogService(database, nil, 0))
	ctx := context.Background()
	day := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	other, err := NewHokerService(database, cfg).Create(ctx, f.agent.ID, "Suresh", "9000000009")
	require.NoError(t, err)

	tests := []struct {
		name    string
		hokerID utils.SixID
		in      RecordDeliveryInput
		wantErr error
	}{
		{
			name:    "customer assigned to another hoker",
			hokerID: other.ID,
			in:      RecordDeliveryInput{CustomerID: f.customer.ID, Date: day, Newspapers: []DeliveryQuantity{{ItemID: f.paper.ID, Quantity: 1}}},
			wantErr: ErrForbidden,
		},
		{
			name:    "missing date",
			hokerID: f.hoker.ID,
			in:      RecordDeliveryInput{CustomerID: f.customer.ID, Newspapers: []DeliveryQuantity{{ItemID: f.paper.ID, Quantity: 1}}},
			wantErr: ErrValidation,
		},
		{
			name:    "nothing delivered",
			hokerID: f.hoker.ID,
			in:      RecordDeliveryInput{CustomerID: f.customer.ID, Date: day},
			wantErr: ErrValidation,
		},
		{
			name:    "unknown item",
			hokerID: f.hoker.ID,
			in:      RecordDeliveryInput{CustomerID: f.customer.ID, Date: day, Newspapers: []DeliveryQuantity{{ItemID: utils.NewSixID(), Quantity: 1}}},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := deliveries.Record(ctx, tt.hokerID, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Once the allotment ends the assigned hoker can no longer record.
	allotment, err := NewAllotmentService(database).ActiveForCustomer(ctx, f.customer.ID)
	require.NoError(t, err)
	require.NoError(t, NewAllotmentService(database).Deactivate(ctx, f.agent.ID, allotment.ID))
	_, err = deliveries.Record(ctx, f.hoker.ID, RecordDeliveryInput{
		CustomerID: f.customer.ID, Date: day, Newspapers: []DeliveryQuantity{{ItemID: f.paper.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrForbidden)
}
