package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/angelmondragon/tradepost-backend/pkg/db/types"
	"github.com/angelmondragon/tradepost-backend/pkg/enums"
)

// LineItem is a priced snapshot shared by trades and cargo.
type LineItem struct {
	ItemID     uuid.UUID       `json:"item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Trade reserves item quantities from a seller's station for a buyer.
type Trade struct {
	TransactionID uuid.UUID                  `gorm:"column:transaction_id;type:uuid;primaryKey"`
	BuyerID       uuid.UUID                  `gorm:"column:buyer_id;type:uuid;not null;index:idx_trades_parties"`
	SellerID      uuid.UUID                  `gorm:"column:seller_id;type:uuid;not null;index:idx_trades_parties"`
	StationID     uuid.UUID                  `gorm:"column:station_id;type:uuid;not null"`
	Items         dbtypes.JSONList[LineItem] `gorm:"column:items;type:jsonb;not null"`
	ItemIDs       dbtypes.JSONList[string]   `gorm:"column:item_ids;type:text;not null"`
	TotalPrice    decimal.Decimal            `gorm:"column:total_price;type:numeric(20,4);not null"`
	Status        enums.TradeStatus          `gorm:"column:status;not null"`
	Version       int64                      `gorm:"column:version;not null;default:1"`
	CreatedAt     time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

// FindItem returns the index of the line with the given id, or -1.
func (t *Trade) FindItem(itemID uuid.UUID) int {
	for idx := range t.Items {
		if t.Items[idx].ItemID == itemID {
			return idx
		}
	}
	return -1
}

// RemoveItemAt drops the line at idx, preserving order.
func (t *Trade) RemoveItemAt(idx int) {
	t.Items = append(t.Items[:idx], t.Items[idx+1:]...)
}

// SyncItemIDs rebuilds the lookup column from Items.
func (t *Trade) SyncItemIDs() {
	ids := make(dbtypes.JSONList[string], 0, len(t.Items))
	for _, item := range t.Items {
		ids = append(ids, item.ItemID.String())
	}
	t.ItemIDs = ids
}

// Clone deep-copies the trade so a saved snapshot can be restored later.
func (t *Trade) Clone() *Trade {
	if t == nil {
		return nil
	}
	out := *t
	out.Items = append(dbtypes.JSONList[LineItem]{}, t.Items...)
	out.ItemIDs = append(dbtypes.JSONList[string]{}, t.ItemIDs...)
	return &out
}

// RecomputeTotal sets TotalPrice to the sum of the line totals.
func (t *Trade) RecomputeTotal() {
	t.TotalPrice = SumLines(t.Items)
}

// SumLines totals the line prices.
func SumLines(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.TotalPrice)
	}
	return total
}
