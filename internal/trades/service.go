package trades

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradepost-backend/internal/inventory"
	"github.com/angelmondragon/tradepost-backend/internal/ledger"
	"github.com/angelmondragon/tradepost-backend/internal/locks"
	"github.com/angelmondragon/tradepost-backend/internal/reconcile"
	"github.com/angelmondragon/tradepost-backend/pkg/db/models"
	"github.com/angelmondragon/tradepost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradepost-backend/pkg/errors"
	"github.com/angelmondragon/tradepost-backend/pkg/logger"
)

// UserDirectory resolves trade parties.
type UserDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service moves quantity between station inventories and trades.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*TradeDTO, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*TradeDTO, error)
	Get(ctx context.Context, transactionID uuid.UUID) (*TradeDTO, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]TradeDTO, error)
}

type service struct {
	repo        Repository
	inventories inventory.Repository
	users       UserDirectory
	journal     ledger.Service
	engine      *reconcile.Engine
	logg        *logger.Logger
}

// NewService builds the trade service with the required dependencies.
func NewService(repo Repository, inventories inventory.Repository, users UserDirectory, journal ledger.Service, engine *reconcile.Engine, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("trades repository required")
	}
	if inventories == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
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
		repo:        repo,
		inventories: inventories,
		users:       users,
		journal:     journal,
		engine:      engine,
		logg:        logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*TradeDTO, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	ok, err := s.users.Exists(ctx, input.BuyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to resolve buyer")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
	}

	var trade *models.Trade
	keys := []locks.Key{locks.InventoryKey(input.StationID.String())}
	err = s.engine.Do(ctx, "trade.create", keys, func(ctx context.Context, undo *reconcile.Undo) error {
		for _, line := range input.Items {
			_, err := s.repo.FindActive(ctx, input.BuyerID, input.SellerID, line.ItemID)
			switch {
			case err == nil:
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("an active trade already exists for item %s", line.ItemID)).
					WithDetails(map[string]any{"item_id": line.ItemID})
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to check active trades")
			}
		}

		inv, err := s.inventories.FindByStation(ctx, input.StationID)
		if err != nil {
			return storeError(err, "inventory not found", "failed to load inventory")
		}
		if inv.UserID != input.SellerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
		}

		// validate every line before touching the inventory
		lines := make([]models.LineItem, 0, len(input.Items))
		for _, line := range input.Items {
			idx := inv.FindItem(line.ItemID)
			if idx < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %s is not in the inventory", line.ItemID))
			}
			item := inv.Items[idx]
			if line.Quantity > item.Quantity {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for item %s", line.ItemID)).
					WithDetails(map[string]any{"item_id": line.ItemID, "requested": line.Quantity, "available": item.Quantity})
			}
			lines = append(lines, priceLine(item.ItemID, item.Name, item.Price, line.Quantity))
		}

		before := inv.Clone()
		for _, line := range lines {
			idx := inv.FindItem(line.ItemID)
			inv.Items[idx].Quantity -= line.Quantity
			if inv.Items[idx].Quantity == 0 {
				inv.RemoveItemAt(idx)
			}
		}
		inv.Touch(time.Now())
		if err := s.inventories.Save(ctx, inv); err != nil {
			return storeError(err, "inventory not found", "failed to save inventory")
		}
		undo.Push("restore inventory", restoreInventory(s.inventories, before, inv))

		trade = &models.Trade{
			TransactionID: uuid.New(),
			BuyerID:       input.BuyerID,
			SellerID:      input.SellerID,
			StationID:     input.StationID,
			Items:         lines,
			TotalPrice:    models.SumLines(lines),
			Status:        enums.TradeStatusInitiated,
			Version:       1,
		}
		if err := s.repo.Create(ctx, trade); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create trade")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	movements := make([]ledger.Movement, 0, len(trade.Items))
	for _, line := range trade.Items {
		movements = append(movements, ledger.Movement{
			ItemID:        line.ItemID,
			TransactionID: trade.TransactionID,
			StationID:     &trade.StationID,
			Type:          enums.MovementInventoryToTrade,
			Quantity:      line.Quantity,
		})
	}
	s.journal.Record(ctx, movements...)
	s.logg.Info(s.tradeContext(ctx, trade), "trade.created")
	return FromModel(trade), nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*TradeDTO, error) {
	next, err := enums.ParseTradeStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if input.TransactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}

	current, err := s.repo.FindByID(ctx, input.TransactionID)
	if err != nil {
		return nil, storeError(err, "trade not found", "failed to load trade")
	}
	if !isParty(current, input.ActorID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer or seller may change a trade")
	}

	var (
		trade     *models.Trade
		restocked []models.LineItem
		changed   bool
	)
	keys := []locks.Key{
		locks.InventoryKey(current.StationID.String()),
		locks.TradeKey(current.TransactionID.String()),
	}
	err = s.engine.Do(ctx, "trade.update_status", keys, func(ctx context.Context, undo *reconcile.Undo) error {
		restocked, changed = nil, false
		t, err := s.repo.FindByID(ctx, input.TransactionID)
		if err != nil {
			return storeError(err, "trade not found", "failed to load trade")
		}
		trade = t

		switch {
		case trade.Status == next:
			return nil
		case trade.Status.IsTerminal():
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("trade is %s and cannot move to %s", trade.Status, next))
		case next == enums.TradeStatusCancelled:
			restocked, err = s.restock(ctx, trade, undo)
			if err != nil {
				return err
			}
		}

		trade.Status = next
		if err := s.repo.Save(ctx, trade); err != nil {
			return storeError(err, "trade not found", "failed to save trade")
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(restocked) > 0 {
		movements := make([]ledger.Movement, 0, len(restocked))
		for _, line := range restocked {
			movements = append(movements, ledger.Movement{
				ItemID:        line.ItemID,
				TransactionID: trade.TransactionID,
				StationID:     &trade.StationID,
				Type:          enums.MovementTradeToInventory,
				Quantity:      line.Quantity,
			})
		}
		s.journal.Record(ctx, movements...)
	}
	event := "trade.status_updated"
	switch {
	case !changed:
		event = "trade.status_unchanged"
	case next == enums.TradeStatusCancelled:
		event = "trade.cancelled"
	}
	s.logg.Info(s.tradeContext(ctx, trade), event)
	return FromModel(trade), nil
}

// restock returns the trade's remaining quantities to its station and
// registers the compensation. The trade itself is not modified.
func (s *service) restock(ctx context.Context, trade *models.Trade, undo *reconcile.Undo) ([]models.LineItem, error) {
	inv, err := s.inventories.FindByStation(ctx, trade.StationID)
	if err != nil {
		return nil, storeError(err, "station inventory no longer exists", "failed to load inventory")
	}

	before := inv.Clone()
	returned := make([]models.LineItem, 0, len(trade.Items))
	for _, line := range trade.Items {
		if line.Quantity <= 0 {
			continue
		}
		if idx := inv.FindItem(line.ItemID); idx >= 0 {
			inv.Items[idx].Quantity += line.Quantity
		} else {
			inv.Items = append(inv.Items, models.InventoryItem{
				ItemID:   line.ItemID,
				Name:     line.Name,
				Price:    line.Price,
				Quantity: line.Quantity,
				Status:   enums.ItemStatusCreated,
			})
		}
		returned = append(returned, line)
	}
	if len(returned) == 0 {
		return nil, nil
	}

	inv.Touch(time.Now())
	if err := s.inventories.Save(ctx, inv); err != nil {
		return nil, storeError(err, "station inventory no longer exists", "failed to restock inventory")
	}
	undo.Push("revert restock", restoreInventory(s.inventories, before, inv))
	return returned, nil
}

func (s *service) Get(ctx context.Context, transactionID uuid.UUID) (*TradeDTO, error) {
	if transactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	trade, err := s.repo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, storeError(err, "trade not found", "failed to load trade")
	}
	return FromModel(trade), nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]TradeDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	trades, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list trades")
	}
	out := make([]TradeDTO, 0, len(trades))
	for i := range trades {
		out = append(out, *FromModel(&trades[i]))
	}
	return out, nil
}

func (s *service) tradeContext(ctx context.Context, trade *models.Trade) context.Context {
	return s.logg.WithFields(ctx, map[string]any{
		"transaction_id": trade.TransactionID.String(),
		"station_id":     trade.StationID.String(),
		"status":         trade.Status.String(),
		"version":        trade.Version,
	})
}

func validateCreate(input CreateInput) error {
	if input.SellerID == uuid.Nil || input.BuyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer and seller are required")
	}
	if input.SellerID == input.BuyerID {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer and seller must differ")
	}
	if input.StationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "station id is required")
	}
	return ValidateLines(input.Items)
}

// ValidateLines rejects empty requests, non-positive quantities and repeated items.
func ValidateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for i, line := range lines {
		if line.ItemID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].item_id is required", i))
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].quantity must be > 0", i))
		}
		if _, dup := seen[line.ItemID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %s is listed more than once", line.ItemID))
		}
		seen[line.ItemID] = struct{}{}
	}
	return nil
}

func isParty(trade *models.Trade, userID uuid.UUID) bool {
	return userID != uuid.Nil && (trade.BuyerID == userID || trade.SellerID == userID)
}

func priceLine(itemID uuid.UUID, name string, price decimal.Decimal, quantity int) models.LineItem {
	return models.LineItem{
		ItemID:     itemID,
		Name:       name,
		Quantity:   quantity,
		Price:      price,
		TotalPrice: price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// restoreInventory writes the pre-operation items back over the saved state.
func restoreInventory(repo inventory.Repository, before, saved *models.Inventory) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		restored := before.Clone()
		restored.Version = saved.Version
		restored.Touch(time.Now())
		return repo.Save(ctx, restored)
	}
}

// storeError maps repository failures; stale versions pass through for retry.
func storeError(err error, notFound, msg string) error {
	switch {
	case errors.Is(err, reconcile.ErrStaleVersion):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
	}
}
