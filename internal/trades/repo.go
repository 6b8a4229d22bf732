package trades

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradepost-backend/internal/repo"
	"github.com/angelmondragon/tradepost-backend/pkg/db/models"
	"github.com/angelmondragon/tradepost-backend/pkg/enums"
)

// Repository persists trades. Save is guarded by the version the trade was read at.
type Repository interface {
	Create(ctx context.Context, trade *models.Trade) error
	FindByID(ctx context.Context, transactionID uuid.UUID) (*models.Trade, error)
	// FindActive returns the active trade for the parties that still holds itemID.
	FindActive(ctx context.Context, buyerID, sellerID, itemID uuid.UUID) (*models.Trade, error)
	// ListActiveByItem returns active trades holding itemID, oldest first.
	ListActiveByItem(ctx context.Context, itemID uuid.UUID) ([]models.Trade, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Trade, error)
	Save(ctx context.Context, trade *models.Trade) error
}

type repository struct {
	repo.Base
}

// NewRepository binds a trade repository to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Create(ctx context.Context, trade *models.Trade) error {
	if trade.Version == 0 {
		trade.Version = 1
	}
	trade.SyncItemIDs()
	return r.DB(ctx).Create(trade).Error
}

func (r *repository) FindByID(ctx context.Context, transactionID uuid.UUID) (*models.Trade, error) {
	var trade models.Trade
	if err := r.DB(ctx).First(&trade, "transaction_id = ?", transactionID).Error; err != nil {
		return nil, err
	}
	return &trade, nil
}

func (r *repository) FindActive(ctx context.Context, buyerID, sellerID, itemID uuid.UUID) (*models.Trade, error) {
	var trade models.Trade
	if err := r.activeHolding(ctx, itemID).
		Where("buyer_id = ? AND seller_id = ?", buyerID, sellerID).
		Order("created_at ASC").
		First(&trade).Error; err != nil {
		return nil, err
	}
	return &trade, nil
}

func (r *repository) ListActiveByItem(ctx context.Context, itemID uuid.UUID) ([]models.Trade, error) {
	var trades []models.Trade
	if err := r.activeHolding(ctx, itemID).
		Order("created_at ASC").
		Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Trade, error) {
	var trades []models.Trade
	if err := r.DB(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

// Save writes items, total, status and the item lookup column; on success trade.Version is advanced.
func (r *repository) Save(ctx context.Context, trade *models.Trade) error {
	trade.SyncItemIDs()
	trade.RecomputeTotal()
	trade.UpdatedAt = time.Now().UTC()
	next, err := r.UpdateVersioned(ctx, &models.Trade{},
		repo.VersionGuard{KeyColumn: "transaction_id", Key: trade.TransactionID, Version: trade.Version},
		map[string]any{
			"items":       trade.Items,
			"item_ids":    trade.ItemIDs,
			"total_price": trade.TotalPrice,
			"status":      trade.Status,
			"updated_at":  trade.UpdatedAt,
		})
	if err != nil {
		return err
	}
	trade.Version = next
	return nil
}

func (r *repository) activeHolding(ctx context.Context, itemID uuid.UUID) *gorm.DB {
	return r.DB(ctx).
		Model(&models.Trade{}).
		Where("status IN ?", activeStatuses()).
		Where("item_ids LIKE ?", `%"`+itemID.String()+`"%`)
}

func activeStatuses() []string {
	out := make([]string, 0, len(enums.ActiveTradeStatuses))
	for _, status := range enums.ActiveTradeStatuses {
		out = append(out, status.String())
	}
	return out
}
