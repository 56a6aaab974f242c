package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/portal/internal/utils"
)

func TestSubscriptionSaveAndGet(t *testing.T) {
	database := setupServicesDB(t, "test_services_subscription")
	cfg := testConfig()
	f := seedFixture(t, database, cfg)
	catalog := NewCatalogService(database, nil, 0)
	subs := NewSubscriptionService(database, catalog)
	ctx := context.Background()

	empty, err := subs.Get(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, empty.Newspapers)
	assert.Empty(t, empty.Booklets)

	name, price := "Evening Star", 4.0
	second, err := catalog.Create(ctx, "newspaper", CatalogInput{Name: &name, Price: &price})
	require.NoError(t, err)

	saved, err := subs.Save(ctx, f.customer.ID,
		[]utils.SixID{second.ID, f.paper.ID, second.ID},
		[]utils.SixID{f.booklet.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []utils.SixID{f.paper.ID, second.ID}, saved.Newspapers)

	got, err := subs.Get(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []utils.SixID{f.paper.ID, second.ID}, got.Newspapers)
	assert.ElementsMatch(t, []utils.SixID{f.booklet.ID}, got.Booklets)
	assert.Equal(t, saved.ID, got.ID)

	// Saving again replaces the selection on the same document.
	again, err := subs.Save(ctx, f.customer.ID, []utils.SixID{f.paper.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)
	assert.Equal(t, []utils.SixID{f.paper.ID}, again.Newspapers)
	assert.Empty(t, again.Booklets)

	// Deleting a catalog item pulls it from the selection.
	require.NoError(t, catalog.Delete(ctx, "newspaper", f.paper.ID))
	got, err = subs.Get(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Newspapers)
}

func TestSubscriptionSave_UnknownItem(t *testing.T) {
	database := setupServicesDB(t, "test_services_subscription_unknown")
	cfg := testConfig()
	f := seedFixture(t, database, cfg)
	subs := NewSubscriptionService(database, NewCatalogService(database, nil, 0))
	ctx := context.Background()

	_, err := subs.Save(ctx, f.customer.ID, []utils.SixID{f.paper.ID, utils.NewSixID()}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	// A booklet ID is not a newspaper.
	_, err = subs.Save(ctx, f.customer.ID, []utils.SixID{f.booklet.ID}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	got, err := subs.Get(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Newspapers)
}
