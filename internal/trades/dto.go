package trades

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tradepost-backend/pkg/db/models"
	"github.com/angelmondragon/tradepost-backend/pkg/enums"
)

// LineInput requests a quantity of one item.
type LineInput struct {
	ItemID   uuid.UUID
	Quantity int
}

// CreateInput reserves items from the seller's station for the buyer.
type CreateInput struct {
	SellerID  uuid.UUID
	BuyerID   uuid.UUID
	StationID uuid.UUID
	Items     []LineInput
}

// UpdateStatusInput moves a trade to a new status on behalf of ActorID.
type UpdateStatusInput struct {
	ActorID       uuid.UUID
	TransactionID uuid.UUID
	Status        string
}

// LineItemDTO is the transport shape of a priced line shared by trades and cargo.
type LineItemDTO struct {
	ItemID     uuid.UUID       `json:"item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// TradeDTO is the transport shape of a trade.
type TradeDTO struct {
	TransactionID uuid.UUID         `json:"transaction_id"`
	BuyerID       uuid.UUID         `json:"buyer_id"`
	SellerID      uuid.UUID         `json:"seller_id"`
	StationID     uuid.UUID         `json:"station_id"`
	Items         []LineItemDTO     `json:"items"`
	TotalPrice    decimal.Decimal   `json:"total_price"`
	Status        enums.TradeStatus `json:"status"`
	Version       int64             `json:"version"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// FromLines maps persisted lines to DTOs.
func FromLines(lines []models.LineItem) []LineItemDTO {
	out := make([]LineItemDTO, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineItemDTO{
			ItemID:     line.ItemID,
			Name:       line.Name,
			Quantity:   line.Quantity,
			Price:      line.Price,
			TotalPrice: line.TotalPrice,
		})
	}
	return out
}

// FromModel maps a persisted trade to its DTO.
func FromModel(t *models.Trade) *TradeDTO {
	if t == nil {
		return nil
	}
	return &TradeDTO{
		TransactionID: t.TransactionID,
		BuyerID:       t.BuyerID,
		SellerID:      t.SellerID,
		StationID:     t.StationID,
		Items:         FromLines(t.Items),
		TotalPrice:    t.TotalPrice,
		Status:        t.Status,
		Version:       t.Version,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}
