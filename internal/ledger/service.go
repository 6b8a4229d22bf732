package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tradepost-backend/pkg/db/models"
	"github.com/angelmondragon/tradepost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradepost-backend/pkg/errors"
	"github.com/angelmondragon/tradepost-backend/pkg/logger"
)

// Movement describes quantity that moved between two ledgers.
type Movement struct {
	ItemID        uuid.UUID
	TransactionID uuid.UUID
	StationID     *uuid.UUID
	ShipmentID    *string
	Type          enums.MovementType
	Quantity      int
}

// Service records and reads the stock movement journal.
type Service interface {
	// Record journals movements. Failures are logged and never returned, so a
	// journal outage cannot fail an inventory, trade or cargo write.
	Record(ctx context.Context, movements ...Movement)
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]models.StockMovement, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.StockMovement, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires a journal service with the provided repository.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Record(ctx context.Context, movements ...Movement) {
	rows := make([]models.StockMovement, 0, len(movements))
	now := time.Now().UTC()
	for _, m := range movements {
		if err := m.validate(); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "ledger.movement_skipped")
			continue
		}
		rows = append(rows, models.StockMovement{
			ID:            uuid.New(),
			ItemID:        m.ItemID,
			TransactionID: m.TransactionID,
			StationID:     m.StationID,
			ShipmentID:    m.ShipmentID,
			Type:          m.Type,
			Quantity:      m.Quantity,
			CreatedAt:     now,
		})
	}
	if len(rows) == 0 {
		return
	}
	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"error": err.Error(), "movements": len(rows)})
		s.logg.Warn(ctx, "ledger.record_failed")
	}
}

func (s *service) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]models.StockMovement, error) {
	if transactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	movements, err := s.repo.ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list stock movements")
	}
	return movements, nil
}

func (s *service) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.StockMovement, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	movements, err := s.repo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list stock movements")
	}
	return movements, nil
}

func (m Movement) validate() error {
	if m.ItemID == uuid.Nil {
		return fmt.Errorf("item id is required")
	}
	if m.TransactionID == uuid.Nil {
		return fmt.Errorf("transaction id is required")
	}
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid movement type %q", m.Type)
	}
	if m.Quantity <= 0 {
		return fmt.Errorf("movement quantity must be positive")
	}
	return nil
}
