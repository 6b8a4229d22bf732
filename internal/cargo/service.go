package cargo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradepost-backend/internal/ledger"
	"github.com/angelmondragon/tradepost-backend/internal/locks"
	"github.com/angelmondragon/tradepost-backend/internal/reconcile"
	"github.com/angelmondragon/tradepost-backend/internal/trades"
	"github.com/angelmondragon/tradepost-backend/pkg/db/models"
	"github.com/angelmondragon/tradepost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradepost-backend/pkg/errors"
	"github.com/angelmondragon/tradepost-backend/pkg/logger"
)

// Service ships traded quantities out of active trades.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Result, error)
	AppendItems(ctx context.Context, input AppendInput) (*Result, error)
	Get(ctx context.Context, shipmentID string) (*CargoDTO, error)
}

type service struct {
	repo    Repository
	trades  trades.Repository
	journal ledger.Service
	engine  *reconcile.Engine
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the cargo service with the required dependencies.
func NewService(repo Repository, tradeRepo trades.Repository, journal ledger.Service, engine *reconcile.Engine, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cargo repository required")
	}
	if tradeRepo == nil {
		return nil, fmt.Errorf("trades repository required")
	}
	if journal == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if engine == nil {
		return nil, fmt.Errorf("reconcile engine required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		trades:  tradeRepo,
		journal: journal,
		engine:  engine,
		logg:    logg,
		now:     time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Result, error) {
	shipmentID := strings.TrimSpace(input.ShipmentID)
	origin := strings.TrimSpace(input.Origin)
	destination := strings.TrimSpace(input.Destination)
	switch {
	case shipmentID == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id is required")
	case origin == "" || destination == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "origin and destination are required")
	}
	if err := trades.ValidateLines(input.Items); err != nil {
		return nil, err
	}
	if err := s.ensureAbsent(ctx, shipmentID); err != nil {
		return nil, err
	}

	candidate, err := s.resolveTrade(ctx, input.ActorID, input.Items)
	if err != nil {
		return nil, err
	}

	var (
		cargo *models.Cargo
		trade *models.Trade
	)
	keys := []locks.Key{
		locks.TradeKey(candidate.TransactionID.String()),
		locks.CargoKey(shipmentID),
	}
	err = s.engine.Do(ctx, "cargo.create", keys, func(ctx context.Context, undo *reconcile.Undo) error {
		if err := s.ensureAbsent(ctx, shipmentID); err != nil {
			return err
		}
		t, err := s.loadActiveTrade(ctx, candidate.TransactionID)
		if err != nil {
			return err
		}
		trade = t

		lines, err := drawLines(trade, input.Items)
		if err != nil {
			return err
		}
		if err := s.saveTrade(ctx, undo, trade, lines); err != nil {
			return err
		}

		departure := s.now().UTC()
		cargo = &models.Cargo{
			ShipmentID:    shipmentID,
			TransactionID: trade.TransactionID,
			Origin:        origin,
			Destination:   destination,
			Items:         lines,
			TotalPrice:    models.SumLines(lines),
			Status:        enums.CargoStatusPending,
			DepartureDate: &departure,
			Version:       1,
		}
		if err := s.repo.Create(ctx, cargo); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create cargo")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordShipped(ctx, cargo, cargo.Items)
	s.logg.Info(s.cargoContext(ctx, cargo), "cargo.created")
	return &Result{Cargo: FromModel(cargo), Trade: trades.FromModel(trade)}, nil
}

func (s *service) AppendItems(ctx context.Context, input AppendInput) (*Result, error) {
	shipmentID := strings.TrimSpace(input.ShipmentID)
	if shipmentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id is required")
	}
	if err := trades.ValidateLines(input.Items); err != nil {
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, storeError(err, "cargo not found", "failed to load cargo")
	}
	owner, err := s.trades.FindByID(ctx, current.TransactionID)
	if err != nil {
		return nil, storeError(err, "trade not found", "failed to load trade")
	}
	if !isParty(owner, input.ActorID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer or seller may ship a trade")
	}

	var (
		cargo  *models.Cargo
		trade  *models.Trade
		deltas []models.LineItem
	)
	keys := []locks.Key{
		locks.TradeKey(current.TransactionID.String()),
		locks.CargoKey(shipmentID),
	}
	err = s.engine.Do(ctx, "cargo.append", keys, func(ctx context.Context, undo *reconcile.Undo) error {
		c, err := s.repo.FindByID(ctx, shipmentID)
		if err != nil {
			return storeError(err, "cargo not found", "failed to load cargo")
		}
		cargo = c
		for _, line := range input.Items {
			if cargo.FindItem(line.ItemID) < 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %s is not part of the cargo", line.ItemID))
			}
		}

		t, err := s.loadActiveTrade(ctx, cargo.TransactionID)
		if err != nil {
			return err
		}
		trade = t

		deltas, err = drawLines(trade, input.Items)
		if err != nil {
			return err
		}
		if err := s.saveTrade(ctx, undo, trade, deltas); err != nil {
			return err
		}

		for _, delta := range deltas {
			idx := cargo.FindItem(delta.ItemID)
			cargo.Items[idx].Quantity += delta.Quantity
			cargo.Items[idx].TotalPrice = cargo.Items[idx].TotalPrice.Add(delta.TotalPrice)
		}
		cargo.TotalPrice = cargo.TotalPrice.Add(models.SumLines(deltas))
		if err := s.repo.Save(ctx, cargo); err != nil {
			return storeError(err, "cargo not found", "failed to save cargo")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordShipped(ctx, cargo, deltas)
	s.logg.Info(s.cargoContext(ctx, cargo), "cargo.appended")
	return &Result{Cargo: FromModel(cargo), Trade: trades.FromModel(trade)}, nil
}

func (s *service) Get(ctx context.Context, shipmentID string) (*CargoDTO, error) {
	shipmentID = strings.TrimSpace(shipmentID)
	if shipmentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id is required")
	}
	cargo, err := s.repo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, storeError(err, "cargo not found", "failed to load cargo")
	}
	return FromModel(cargo), nil
}

func (s *service) ensureAbsent(ctx context.Context, shipmentID string) error {
	_, err := s.repo.FindByID(ctx, shipmentID)
	switch {
	case err == nil:
		return pkgerrors.New(pkgerrors.CodeConflict, "shipment already exists").
			WithDetails(map[string]any{"shipment_id": shipmentID})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to check shipment")
	}
}

// resolveTrade finds the single active trade of actor holding every
// requested item. When several qualify the oldest wins.
func (s *service) resolveTrade(ctx context.Context, actor uuid.UUID, lines []trades.LineInput) (*models.Trade, error) {
	var candidates []models.Trade
	for i, line := range lines {
		all, err := s.trades.ListActiveByItem(ctx, line.ItemID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to resolve trade")
		}
		if len(all) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no active trade holds item %s", line.ItemID))
		}
		holders := all[:0]
		for _, t := range all {
			if isParty(&t, actor) {
				holders = append(holders, t)
			}
		}
		if len(holders) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer or seller may ship a trade")
		}
		if i == 0 {
			candidates = holders
			continue
		}
		held := make(map[uuid.UUID]struct{}, len(holders))
		for _, t := range holders {
			held[t.TransactionID] = struct{}{}
		}
		kept := candidates[:0]
		for _, t := range candidates {
			if _, ok := held[t.TransactionID]; ok {
				kept = append(kept, t)
			}
		}
		candidates = kept
	}
	if len(candidates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cargo items must all belong to one active trade")
	}
	// holders come back oldest first
	return &candidates[0], nil
}

func (s *service) loadActiveTrade(ctx context.Context, transactionID uuid.UUID) (*models.Trade, error) {
	trade, err := s.trades.FindByID(ctx, transactionID)
	if err != nil {
		return nil, storeError(err, "trade not found", "failed to load trade")
	}
	if !trade.Status.IsActive() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active trade for the cargo items")
	}
	return trade, nil
}

// saveTrade deducts lines from trade, marks it In Progress and registers
// the compensation.
func (s *service) saveTrade(ctx context.Context, undo *reconcile.Undo, trade *models.Trade, lines []models.LineItem) error {
	before := trade.Clone()
	for _, line := range lines {
		idx := trade.FindItem(line.ItemID)
		trade.Items[idx].Quantity -= line.Quantity
		trade.Items[idx].TotalPrice = trade.Items[idx].Price.Mul(decimal.NewFromInt(int64(trade.Items[idx].Quantity)))
		if trade.Items[idx].Quantity == 0 {
			trade.RemoveItemAt(idx)
		}
	}
	trade.Status = enums.TradeStatusInProgress
	if err := s.trades.Save(ctx, trade); err != nil {
		return storeError(err, "trade not found", "failed to save trade")
	}
	undo.Push("restore trade", func(ctx context.Context) error {
		restored := before.Clone()
		restored.Version = trade.Version
		return s.trades.Save(ctx, restored)
	})
	return nil
}

func (s *service) recordShipped(ctx context.Context, cargo *models.Cargo, lines []models.LineItem) {
	movements := make([]ledger.Movement, 0, len(lines))
	for _, line := range lines {
		movements = append(movements, ledger.Movement{
			ItemID:        line.ItemID,
			TransactionID: cargo.TransactionID,
			ShipmentID:    &cargo.ShipmentID,
			Type:          enums.MovementTradeToCargo,
			Quantity:      line.Quantity,
		})
	}
	s.journal.Record(ctx, movements...)
}

func (s *service) cargoContext(ctx context.Context, cargo *models.Cargo) context.Context {
	return s.logg.WithFields(ctx, map[string]any{
		"shipment_id":    cargo.ShipmentID,
		"transaction_id": cargo.TransactionID.String(),
		"status":         cargo.Status.String(),
		"version":        cargo.Version,
	})
}

// drawLines checks every requested quantity against the trade before any of
// it is taken and prices the lines from the trade snapshot.
func drawLines(trade *models.Trade, requested []trades.LineInput) ([]models.LineItem, error) {
	lines := make([]models.LineItem, 0, len(requested))
	for _, line := range requested {
		idx := trade.FindItem(line.ItemID)
		if idx < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no active trade holds item %s", line.ItemID))
		}
		held := trade.Items[idx]
		if held.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "trade item already fully shipped").
				WithDetails(map[string]any{"item_id": line.ItemID})
		}
		if line.Quantity > held.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient quantity for item %s", line.ItemID)).
				WithDetails(map[string]any{"item_id": line.ItemID, "requested": line.Quantity, "available": held.Quantity})
		}
		lines = append(lines, models.LineItem{
			ItemID:     held.ItemID,
			Name:       held.Name,
			Quantity:   line.Quantity,
			Price:      held.Price,
			TotalPrice: held.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}
	return lines, nil
}

func isParty(trade *models.Trade, userID uuid.UUID) bool {
	return userID != uuid.Nil && (trade.BuyerID == userID || trade.SellerID == userID)
}

// storeError maps repository failures; stale versions pass through for retry.
func storeError(err error, notFound, msg string) error {
	switch {
	case errors.Is(err, reconcile.ErrStaleVersion):
		return err
	case pkgerrors.As(err) != nil:
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
	}
}
