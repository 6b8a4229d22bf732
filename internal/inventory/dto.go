package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tradepost-backend/pkg/db/models"
	"github.com/angelmondragon/tradepost-backend/pkg/enums"
)

// NewItemInput describes an item listed when a station inventory is created.
// New items always start as Created.
type NewItemInput struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// CreateInput carries the data required to open a station inventory.
type CreateInput struct {
	UserID uuid.UUID
	Name   string
	Items  []NewItemInput
}

// MergeItemInput adds stock to a station. A matching ItemID merges into the
// existing item; anything else is inserted under a new id.
type MergeItemInput struct {
	ItemID   *uuid.UUID
	Name     *string
	Price    *decimal.Decimal
	Quantity int
	Status   *enums.ItemStatus
}

// AddItemsInput targets one station owned by UserID.
type AddItemsInput struct {
	UserID    uuid.UUID
	StationID uuid.UUID
	Items     []MergeItemInput
}

// UpdateItemInput overwrites the fields that are present.
type UpdateItemInput struct {
	UserID    uuid.UUID
	StationID uuid.UUID
	ItemID    uuid.UUID
	Name      *string
	Price     *decimal.Decimal
	Quantity  *int
	Status    *enums.ItemStatus
}

func (in UpdateItemInput) empty() bool {
	return in.Name == nil && in.Price == nil && in.Quantity == nil && in.Status == nil
}

// ItemDTO is the transport shape of an inventory item.
type ItemDTO struct {
	ItemID   uuid.UUID        `json:"item_id"`
	Name     string           `json:"name"`
	Price    decimal.Decimal  `json:"price"`
	Quantity int              `json:"quantity"`
	Status   enums.ItemStatus `json:"status"`
}

// InventoryDTO is the transport shape of a station inventory.
type InventoryDTO struct {
	StationID   uuid.UUID `json:"station_id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Items       []ItemDTO `json:"items"`
	Version     int64     `json:"version"`
	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
}

// FromModel maps a persisted inventory to its DTO.
func FromModel(inv *models.Inventory) *InventoryDTO {
	if inv == nil {
		return nil
	}
	items := make([]ItemDTO, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, ItemDTO{
			ItemID:   item.ItemID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
			Status:   item.Status,
		})
	}
	return &InventoryDTO{
		StationID:   inv.StationID,
		UserID:      inv.UserID,
		Name:        inv.Name,
		Items:       items,
		Version:     inv.Version,
		LastUpdated: inv.LastUpdated,
		CreatedAt:   inv.CreatedAt,
	}
}
