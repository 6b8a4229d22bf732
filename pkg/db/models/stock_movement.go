package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tradepost-backend/pkg/enums"
)

// StockMovement is an append-only journal row describing quantity that moved
// between the inventory, trade and cargo ledgers.
type StockMovement struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ItemID        uuid.UUID          `gorm:"column:item_id;type:uuid;not null;index"`
	TransactionID uuid.UUID          `gorm:"column:transaction_id;type:uuid;not null;index"`
	StationID     *uuid.UUID         `gorm:"column:station_id;type:uuid"`
	ShipmentID    *string            `gorm:"column:shipment_id"`
	Type          enums.MovementType `gorm:"column:type;not null"`
	Quantity      int                `gorm:"column:quantity;not null"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
}
