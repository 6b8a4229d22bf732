package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradepost-backend/internal/repo"
	"github.com/angelmondragon/tradepost-backend/pkg/db/models"
)

// Repository manages persistence for stock movements.
type Repository interface {
	CreateBatch(ctx context.Context, movements []models.StockMovement) error
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]models.StockMovement, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.StockMovement, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a movement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) CreateBatch(ctx context.Context, movements []models.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&movements).Error
}

func (r *repository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	if err := r.DB(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	if err := r.DB(ctx).
		Where("item_id = ?", itemID).
		Order("created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
