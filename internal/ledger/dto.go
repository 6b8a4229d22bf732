package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tradepost-backend/pkg/db/models"
	"github.com/angelmondragon/tradepost-backend/pkg/enums"
)

// MovementDTO is the transport shape of a journal row.
type MovementDTO struct {
	ID            uuid.UUID          `json:"id"`
	ItemID        uuid.UUID          `json:"item_id"`
	TransactionID uuid.UUID          `json:"transaction_id"`
	StationID     *uuid.UUID         `json:"station_id,omitempty"`
	ShipmentID    *string            `json:"shipment_id,omitempty"`
	Type          enums.MovementType `json:"type"`
	Quantity      int                `json:"quantity"`
	CreatedAt     time.Time          `json:"created_at"`
}

// FromModels maps journal rows to DTOs, preserving order.
func FromModels(rows []models.StockMovement) []MovementDTO {
	out := make([]MovementDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, MovementDTO{
			ID:            row.ID,
			ItemID:        row.ItemID,
			TransactionID: row.TransactionID,
			StationID:     row.StationID,
			ShipmentID:    row.ShipmentID,
			Type:          row.Type,
			Quantity:      row.Quantity,
			CreatedAt:     row.CreatedAt,
		})
	}
	return out
}
