package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/trade"
)

func TestSalesOrderRepository_RoundTripWithNotes(t *testing.T) {
	db := newTestDB(t)
	repo := NewSalesOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	order, err := trade.NewSalesOrder(tenantID, "ORD-3001", "buyer@example.com", decimal.NewFromInt(55))
	require.NoError(t, err)
	order.SetTracking("ups", "1Z999")
	order.AddNote("packed")
	require.NoError(t, repo.Save(ctx, order))

	// Append a second note on the reloaded aggregate
	loaded, err := repo.FindByIDForTenant(ctx, tenantID, order.ID)
	require.NoError(t, err)
	loaded.AddNote("handed to carrier")
	require.NoError(t, repo.Save(ctx, loaded))

	final, err := repo.FindByIDForTenant(ctx, tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORD-3001", final.OrderNumber)
	assert.Equal(t, "1Z999", final.TrackingNumber)
	require.Len(t, final.Notes, 2)
}

func TestSalesOrderRepository_FindByTrackingNumber(t *testing.T) {
	db := newTestDB(t)
	repo := NewSalesOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	order, err := trade.NewSalesOrder(tenantID, "ORD-3002", "", decimal.NewFromInt(20))
	require.NoError(t, err)
	order.SetTracking("fedex", "794000000000")
	require.NoError(t, repo.Save(ctx, order))

	found, err := repo.FindByTrackingNumber(ctx, tenantID, "794000000000")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	// Wrong tenant sees nothing
	_, err = repo.FindByTrackingNumber(ctx, uuid.New(), "794000000000")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindByTrackingNumber(ctx, tenantID, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
