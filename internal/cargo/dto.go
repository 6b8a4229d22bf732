package cargo

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tradepost-backend/internal/trades"
	"github.com/angelmondragon/tradepost-backend/pkg/db/models"
	"github.com/angelmondragon/tradepost-backend/pkg/enums"
)

// CreateInput ships quantities drawn from a single active trade.
type CreateInput struct {
	ActorID     uuid.UUID
	ShipmentID  string
	Origin      string
	Destination string
	Items       []trades.LineInput
}

// AppendInput adds quantity to items already carried by a shipment.
type AppendInput struct {
	ActorID    uuid.UUID
	ShipmentID string
	Items      []trades.LineInput
}

// CargoDTO is the transport shape of a shipment.
type CargoDTO struct {
	ShipmentID    string               `json:"shipment_id"`
	TransactionID uuid.UUID            `json:"transaction_id"`
	Origin        string               `json:"origin"`
	Destination   string               `json:"destination"`
	Items         []trades.LineItemDTO `json:"items"`
	TotalPrice    decimal.Decimal      `json:"total_price"`
	Status        enums.CargoStatus    `json:"status"`
	DepartureDate *time.Time           `json:"departure_date,omitempty"`
	ArrivalDate   *time.Time           `json:"arrival_date,omitempty"`
	Version       int64                `json:"version"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// Result pairs the written cargo with the trade it drew from.
type Result struct {
	Cargo *CargoDTO        `json:"cargo"`
	Trade *trades.TradeDTO `json:"trade"`
}

// FromModel maps a persisted cargo to its DTO.
func FromModel(c *models.Cargo) *CargoDTO {
	if c == nil {
		return nil
	}
	return &CargoDTO{
		ShipmentID:    c.ShipmentID,
		TransactionID: c.TransactionID,
		Origin:        c.Origin,
		Destination:   c.Destination,
		Items:         trades.FromLines(c.Items),
		TotalPrice:    c.TotalPrice,
		Status:        c.Status,
		DepartureDate: c.DepartureDate,
		ArrivalDate:   c.ArrivalDate,
		Version:       c.Version,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
