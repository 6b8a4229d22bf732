package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradepost-backend/internal/reconcile"
	"github.com/angelmondragon/tradepost-backend/pkg/db/models"
	"github.com/angelmondragon/tradepost-backend/pkg/enums"
)

func TestRepositorySaveIsVersionGuarded(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	inv := &models.Inventory{
		StationID: uuid.New(),
		UserID:    uuid.New(),
		Name:      "Beta",
		Items: []models.InventoryItem{
			{ItemID: uuid.New(), Name: "Ice", Price: decimal.RequireFromString("1.10"), Quantity: 3, Status: enums.ItemStatusCreated},
		},
	}
	require.NoError(t, repo.Create(ctx, inv))
	assert.Equal(t, int64(1), inv.Version)
	assert.False(t, inv.LastUpdated.IsZero())

	first, err := repo.FindByStation(ctx, inv.StationID)
	require.NoError(t, err)
	second := first.Clone()

	first.Items[0].Quantity = 1
	first.Touch(time.Now())
	require.NoError(t, repo.Save(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.Items[0].Quantity = 99
	err = repo.Save(ctx, second)
	assert.True(t, errors.Is(err, reconcile.ErrStaleVersion))

	stored, err := repo.FindByStation(ctx, inv.StationID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 1, stored.Items[0].Quantity)
	assert.True(t, stored.Items[0].Price.Equal(decimal.RequireFromString("1.1")))

	err = repo.Delete(ctx, second)
	assert.True(t, errors.Is(err, reconcile.ErrStaleVersion))
	require.NoError(t, repo.Delete(ctx, stored))

	_, err = repo.FindByStation(ctx, inv.StationID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
