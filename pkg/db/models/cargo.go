package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/tradepost-backend/pkg/db/types"
	"github.com/angelmondragon/tradepost-backend/pkg/enums"
)

// DefaultCargoTransit is the departure-to-arrival window applied when a cargo
// is persisted without an arrival date.
var DefaultCargoTransit = 7 * 24 * time.Hour

// Cargo is a physical shipment drawing quantities out of a single trade.
type Cargo struct {
	ShipmentID    string                     `gorm:"column:shipment_id;primaryKey"`
	TransactionID uuid.UUID                  `gorm:"column:transaction_id;type:uuid;not null;index"`
	Origin        string                     `gorm:"column:origin;not null"`
	Destination   string                     `gorm:"column:destination;not null"`
	Items         dbtypes.JSONList[LineItem] `gorm:"column:items;type:jsonb;not null"`
	TotalPrice    decimal.Decimal            `gorm:"column:total_price;type:numeric(20,4);not null"`
	Status        enums.CargoStatus          `gorm:"column:status;not null"`
	DepartureDate *time.Time                 `gorm:"column:departure_date"`
	ArrivalDate   *time.Time                 `gorm:"column:arrival_date"`
	Version       int64                      `gorm:"column:version;not null;default:1"`
	CreatedAt     time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

// DeriveArrival sets ArrivalDate once from DepartureDate; an existing arrival
// date is never overwritten.
func (c *Cargo) DeriveArrival(transit time.Duration) {
	if c.DepartureDate == nil || c.ArrivalDate != nil {
		return
	}
	if transit <= 0 {
		transit = DefaultCargoTransit
	}
	arrival := c.DepartureDate.Add(transit)
	c.ArrivalDate = &arrival
}

// BeforeSave applies the arrival rule on every gorm create/save of the record.
func (c *Cargo) BeforeSave(tx *gorm.DB) error {
	c.DeriveArrival(DefaultCargoTransit)
	return nil
}

// FindItem returns the index of the line with the given id, or -1.
func (c *Cargo) FindItem(itemID uuid.UUID) int {
	for idx := range c.Items {
		if c.Items[idx].ItemID == itemID {
			return idx
		}
	}
	return -1
}

// Clone deep-copies the cargo document.
func (c *Cargo) Clone() *Cargo {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = append(dbtypes.JSONList[LineItem]{}, c.Items...)
	return &out
}
