package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradepost-backend/internal/repo"
	"github.com/angelmondragon/tradepost-backend/pkg/db/models"
)

// Repository persists station inventories. Save and Delete are guarded by the
// version the record was read at.
type Repository interface {
	Create(ctx context.Context, inv *models.Inventory) error
	FindByStation(ctx context.Context, stationID uuid.UUID) (*models.Inventory, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Inventory, error)
	Save(ctx context.Context, inv *models.Inventory) error
	Delete(ctx context.Context, inv *models.Inventory) error
}

type repository struct {
	repo.Base
}

// NewRepository binds an inventory repository to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Create(ctx context.Context, inv *models.Inventory) error {
	if inv.Version == 0 {
		inv.Version = 1
	}
	if inv.LastUpdated.IsZero() {
		inv.Touch(time.Now())
	}
	return r.DB(ctx).Create(inv).Error
}

func (r *repository) FindByStation(ctx context.Context, stationID uuid.UUID) (*models.Inventory, error) {
	var inv models.Inventory
	if err := r.DB(ctx).First(&inv, "station_id = ?", stationID).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Inventory, error) {
	var invs []models.Inventory
	if err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}

// Save writes name, items and last_updated; on success inv.Version is advanced.
func (r *repository) Save(ctx context.Context, inv *models.Inventory) error {
	next, err := r.UpdateVersioned(ctx, &models.Inventory{}, r.guard(inv), map[string]any{
		"name":         inv.Name,
		"items":        inv.Items,
		"last_updated": inv.LastUpdated,
	})
	if err != nil {
		return err
	}
	inv.Version = next
	return nil
}

func (r *repository) Delete(ctx context.Context, inv *models.Inventory) error {
	return r.DeleteVersioned(ctx, &models.Inventory{}, r.guard(inv))
}

func (r *repository) guard(inv *models.Inventory) repo.VersionGuard {
	return repo.VersionGuard{KeyColumn: "station_id", Key: inv.StationID, Version: inv.Version}
}
