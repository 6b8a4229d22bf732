package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/angelmondragon/tradepost-backend/pkg/db/types"
	"github.com/angelmondragon/tradepost-backend/pkg/enums"
)

// InventoryItem is one stock line inside a station inventory document.
type InventoryItem struct {
	ItemID   uuid.UUID        `json:"item_id"`
	Name     string           `json:"name"`
	Price    decimal.Decimal  `json:"price"`
	Quantity int              `json:"quantity"`
	Status   enums.ItemStatus `json:"status"`
}

// Inventory is a seller's per-station stock ledger.
type Inventory struct {
	StationID   uuid.UUID                       `gorm:"column:station_id;type:uuid;primaryKey"`
	UserID      uuid.UUID                       `gorm:"column:user_id;type:uuid;not null;index"`
	Name        string                          `gorm:"column:name;not null"`
	Items       dbtypes.JSONList[InventoryItem] `gorm:"column:items;type:jsonb;not null"`
	Version     int64                           `gorm:"column:version;not null;default:1"`
	LastUpdated time.Time                       `gorm:"column:last_updated;not null"`
	CreatedAt   time.Time                       `gorm:"column:created_at;autoCreateTime"`
}

// FindItem returns the index of the item with the given id, or -1.
func (i *Inventory) FindItem(itemID uuid.UUID) int {
	for idx := range i.Items {
		if i.Items[idx].ItemID == itemID {
			return idx
		}
	}
	return -1
}

// RemoveItemAt drops the item at idx, preserving order.
func (i *Inventory) RemoveItemAt(idx int) {
	i.Items = append(i.Items[:idx], i.Items[idx+1:]...)
}

// Touch refreshes LastUpdated; call whenever Items changes.
func (i *Inventory) Touch(now time.Time) {
	i.LastUpdated = now.UTC()
}

// Clone deep-copies the document so a saved snapshot can be restored later.
func (i *Inventory) Clone() *Inventory {
	if i == nil {
		return nil
	}
	out := *i
	out.Items = append(dbtypes.JSONList[InventoryItem]{}, i.Items...)
	return &out
}
