package cargo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/tradepost-backend/internal/repo"
	"github.com/angelmondragon/tradepost-backend/pkg/db"
	"github.com/angelmondragon/tradepost-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tradepost-backend/pkg/errors"
)

// Repository persists shipments.
type Repository interface {
	Create(ctx context.Context, cargo *models.Cargo) error
	FindByID(ctx context.Context, shipmentID string) (*models.Cargo, error)
	Save(ctx context.Context, cargo *models.Cargo) error
}

type repository struct {
	repo.Base
	transit time.Duration
}

// NewRepository binds a cargo repository to db. transit is the window used to
// derive arrival dates; zero falls back to models.DefaultCargoTransit.
func NewRepository(db *gorm.DB, transit time.Duration) Repository {
	return &repository{Base: repo.NewBase(db), transit: transit}
}

func (r *repository) Create(ctx context.Context, cargo *models.Cargo) error {
	if cargo.Version == 0 {
		cargo.Version = 1
	}
	cargo.DeriveArrival(r.transit)
	if err := r.DB(ctx).Create(cargo).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.New(pkgerrors.CodeConflict, "shipment already exists").
				WithDetails(map[string]any{"shipment_id": cargo.ShipmentID})
		}
		return err
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, shipmentID string) (*models.Cargo, error) {
	var cargo models.Cargo
	if err := r.DB(ctx).First(&cargo, "shipment_id = ?", shipmentID).Error; err != nil {
		return nil, err
	}
	return &cargo, nil
}

// Save writes the mutable columns; on success cargo.Version is advanced.
func (r *repository) Save(ctx context.Context, cargo *models.Cargo) error {
	cargo.DeriveArrival(r.transit)
	cargo.UpdatedAt = time.Now().UTC()
	next, err := r.UpdateVersioned(ctx, &models.Cargo{},
		repo.VersionGuard{KeyColumn: "shipment_id", Key: cargo.ShipmentID, Version: cargo.Version},
		map[string]any{
			"items":          cargo.Items,
			"total_price":    cargo.TotalPrice,
			"status":         cargo.Status,
			"departure_date": cargo.DepartureDate,
			"arrival_date":   cargo.ArrivalDate,
			"updated_at":     cargo.UpdatedAt,
		})
	if err != nil {
		return err
	}
	cargo.Version = next
	return nil
}
