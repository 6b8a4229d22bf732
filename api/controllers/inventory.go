package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tradepost-backend/api/responses"
	"github.com/angelmondragon/tradepost-backend/api/validators"
	"github.com/angelmondragon/tradepost-backend/internal/inventory"
	"github.com/angelmondragon/tradepost-backend/pkg/enums"
	"github.com/angelmondragon/tradepost-backend/pkg/logger"
)

type newItemRequest struct {
	Name     string          `json:"name" validate:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" validate:"gte=0"`
}

type createInventoryRequest struct {
	Name  string           `json:"name" validate:"required"`
	Items []newItemRequest `json:"items" validate:"required,min=1,dive"`
}

type mergeItemRequest struct {
	ItemID   *uuid.UUID       `json:"item_id,omitempty"`
	Name     *string          `json:"name,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Quantity int              `json:"quantity" validate:"gte=0"`
	Status   *string          `json:"status,omitempty"`
}

type addItemsRequest struct {
	Items []mergeItemRequest `json:"items" validate:"required,min=1,dive"`
}

type updateItemRequest struct {
	Name     *string          `json:"name,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Quantity *int             `json:"quantity,omitempty"`
	Status   *string          `json:"status,omitempty"`
}

func itemStatus(raw *string) *enums.ItemStatus {
	if raw == nil {
		return nil
	}
	status := enums.ItemStatus(*raw)
	return &status
}

// InventoryCreate opens a new station inventory for the caller.
func InventoryCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createInventoryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]inventory.NewItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, inventory.NewItemInput{
				Name:     item.Name,
				Price:    item.Price,
				Quantity: item.Quantity,
			})
		}
		inv, err := svc.Create(r.Context(), inventory.CreateInput{UserID: userID, Name: req.Name, Items: items})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, inv)
	}
}

// InventoryList returns every station inventory owned by the caller.
func InventoryList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invs, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invs)
	}
}

func InventoryGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, stationID, err := stationTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inv, err := svc.Get(r.Context(), userID, stationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inv)
	}
}

func InventoryDelete(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, stationID, err := stationTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteInventory(r.Context(), userID, stationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"station_id": stationID, "deleted": true})
	}
}

// InventoryAddItems merges stock into the station; unknown items get new ids.
func InventoryAddItems(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, stationID, err := stationTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req addItemsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]inventory.MergeItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, inventory.MergeItemInput{
				ItemID:   item.ItemID,
				Name:     item.Name,
				Price:    item.Price,
				Quantity: item.Quantity,
				Status:   itemStatus(item.Status),
			})
		}
		inv, err := svc.AddOrMergeItems(r.Context(), inventory.AddItemsInput{UserID: userID, StationID: stationID, Items: items})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inv)
	}
}

func InventoryUpdateItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, stationID, err := stationTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inv, err := svc.UpdateItem(r.Context(), inventory.UpdateItemInput{
			UserID:    userID,
			StationID: stationID,
			ItemID:    itemID,
			Name:      req.Name,
			Price:     req.Price,
			Quantity:  req.Quantity,
			Status:    itemStatus(req.Status),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inv)
	}
}

func InventoryDeleteItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, stationID, err := stationTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inv, err := svc.DeleteItem(r.Context(), userID, stationID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inv)
	}
}

func stationTarget(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	userID, err := actorID(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	stationID, err := validators.ParseUUID(chi.URLParam(r, "stationId"), "stationId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, stationID, nil
}
