package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradepost-backend/internal/locks"
	"github.com/angelmondragon/tradepost-backend/internal/reconcile"
	"github.com/angelmondragon/tradepost-backend/pkg/db/models"
	"github.com/angelmondragon/tradepost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradepost-backend/pkg/errors"
	"github.com/angelmondragon/tradepost-backend/pkg/logger"
)

// Service manages seller station inventories.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*InventoryDTO, error)
	AddOrMergeItems(ctx context.Context, input AddItemsInput) (*InventoryDTO, error)
	UpdateItem(ctx context.Context, input UpdateItemInput) (*InventoryDTO, error)
	DeleteItem(ctx context.Context, userID, stationID, itemID uuid.UUID) (*InventoryDTO, error)
	DeleteInventory(ctx context.Context, userID, stationID uuid.UUID) error
	Get(ctx context.Context, userID, stationID uuid.UUID) (*InventoryDTO, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]InventoryDTO, error)
}

type service struct {
	repo   Repository
	engine *reconcile.Engine
	logg   *logger.Logger
}

// NewService builds the inventory service with the required dependencies.
func NewService(repo Repository, engine *reconcile.Engine, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if engine == nil {
		return nil, fmt.Errorf("reconcile engine required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, engine: engine, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*InventoryDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	items := make([]models.InventoryItem, 0, len(input.Items))
	for i, in := range input.Items {
		item, err := newItem(in)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d]: %v", i, err))
		}
		items = append(items, item)
	}

	inv := &models.Inventory{
		StationID: uuid.New(),
		UserID:    input.UserID,
		Name:      name,
		Items:     items,
		Version:   1,
	}
	inv.Touch(time.Now())

	err := s.engine.Do(ctx, "inventory.create", nil, func(ctx context.Context, _ *reconcile.Undo) error {
		if err := s.repo.Create(ctx, inv); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create inventory")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.inventoryContext(ctx, inv), "inventory.created")
	return FromModel(inv), nil
}

func (s *service) AddOrMergeItems(ctx context.Context, input AddItemsInput) (*InventoryDTO, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for i, in := range input.Items {
		if in.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].quantity must be >= 0", i))
		}
		if in.Price != nil && in.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].price must be >= 0", i))
		}
		if in.Status != nil && !in.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].status is invalid", i))
		}
	}

	var result *models.Inventory
	err := s.mutate(ctx, "inventory.add_items", input.UserID, input.StationID, func(inv *models.Inventory) error {
		for i, in := range input.Items {
			if in.ItemID != nil {
				if idx := inv.FindItem(*in.ItemID); idx >= 0 {
					mergeInto(&inv.Items[idx], in)
					continue
				}
			}
			if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.Price == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d] is new and requires name and price", i))
			}
			status := enums.ItemStatusCreated
			if in.Status != nil {
				status = *in.Status
			}
			inv.Items = append(inv.Items, models.InventoryItem{
				ItemID:   uuid.New(),
				Name:     strings.TrimSpace(*in.Name),
				Price:    *in.Price,
				Quantity: in.Quantity,
				Status:   status,
			})
		}
		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(result), nil
}

func (s *service) UpdateItem(ctx context.Context, input UpdateItemInput) (*InventoryDTO, error) {
	if input.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be >= 0")
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be >= 0")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status is invalid")
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
	}

	var result *models.Inventory
	err := s.mutate(ctx, "inventory.update_item", input.UserID, input.StationID, func(inv *models.Inventory) error {
		idx := inv.FindItem(input.ItemID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		item := &inv.Items[idx]
		if input.Name != nil {
			item.Name = strings.TrimSpace(*input.Name)
		}
		if input.Price != nil {
			item.Price = *input.Price
		}
		if input.Quantity != nil {
			item.Quantity = *input.Quantity
		}
		if input.Status != nil {
			item.Status = *input.Status
		}
		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(result), nil
}

func (s *service) DeleteItem(ctx context.Context, userID, stationID, itemID uuid.UUID) (*InventoryDTO, error) {
	var result *models.Inventory
	err := s.mutate(ctx, "inventory.delete_item", userID, stationID, func(inv *models.Inventory) error {
		idx := inv.FindItem(itemID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		inv.RemoveItemAt(idx)
		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(result), nil
}

func (s *service) DeleteInventory(ctx context.Context, userID, stationID uuid.UUID) error {
	return s.engine.Do(ctx, "inventory.delete", []locks.Key{locks.InventoryKey(stationID.String())}, func(ctx context.Context, _ *reconcile.Undo) error {
		inv, err := s.loadOwned(ctx, userID, stationID)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, inv); err != nil {
			return storeError(err, "failed to delete inventory")
		}
		s.logg.Info(s.inventoryContext(ctx, inv), "inventory.deleted")
		return nil
	})
}

func (s *service) Get(ctx context.Context, userID, stationID uuid.UUID) (*InventoryDTO, error) {
	inv, err := s.loadOwned(ctx, userID, stationID)
	if err != nil {
		return nil, err
	}
	return FromModel(inv), nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]InventoryDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	invs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list inventories")
	}
	if len(invs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no inventories found for user")
	}
	out := make([]InventoryDTO, 0, len(invs))
	for i := range invs {
		out = append(out, *FromModel(&invs[i]))
	}
	return out, nil
}

// mutate re-reads the station under its lock, applies fn and saves once.
func (s *service) mutate(ctx context.Context, operation string, userID, stationID uuid.UUID, fn func(inv *models.Inventory) error) error {
	return s.engine.Do(ctx, operation, []locks.Key{locks.InventoryKey(stationID.String())}, func(ctx context.Context, _ *reconcile.Undo) error {
		inv, err := s.loadOwned(ctx, userID, stationID)
		if err != nil {
			return err
		}
		if err := fn(inv); err != nil {
			return err
		}
		inv.Touch(time.Now())
		if err := s.repo.Save(ctx, inv); err != nil {
			return storeError(err, "failed to save inventory")
		}
		s.logg.Info(s.inventoryContext(ctx, inv), operation)
		return nil
	})
}

func (s *service) loadOwned(ctx context.Context, userID, stationID uuid.UUID) (*models.Inventory, error) {
	if userID == uuid.Nil || stationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and station id are required")
	}
	inv, err := s.repo.FindByStation(ctx, stationID)
	if err != nil {
		return nil, storeError(err, "failed to load inventory")
	}
	// stations of other sellers are indistinguishable from missing ones
	if inv.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
	}
	return inv, nil
}

func (s *service) inventoryContext(ctx context.Context, inv *models.Inventory) context.Context {
	return s.logg.WithFields(ctx, map[string]any{
		"station_id": inv.StationID.String(),
		"user_id":    inv.UserID.String(),
		"version":    inv.Version,
		"items":      len(inv.Items),
	})
}

// storeError maps repository failures; stale versions pass through for retry.
func storeError(err error, msg string) error {
	switch {
	case errors.Is(err, reconcile.ErrStaleVersion):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
	}
}

func newItem(in NewItemInput) (models.InventoryItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.InventoryItem{}, errors.New("name is required")
	}
	if in.Price.IsNegative() {
		return models.InventoryItem{}, errors.New("price must be >= 0")
	}
	if in.Quantity < 0 {
		return models.InventoryItem{}, errors.New("quantity must be >= 0")
	}
	return models.InventoryItem{
		ItemID:   uuid.New(),
		Name:     name,
		Price:    in.Price,
		Quantity: in.Quantity,
		Status:   enums.ItemStatusCreated,
	}, nil
}

func mergeInto(item *models.InventoryItem, in MergeItemInput) {
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		item.Name = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		item.Price = *in.Price
	}
	if in.Status != nil {
		item.Status = *in.Status
	}
	item.Quantity += in.Quantity
}
