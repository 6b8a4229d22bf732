package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tradepost-backend/api/responses"
	"github.com/angelmondragon/tradepost-backend/api/validators"
	"github.com/angelmondragon/tradepost-backend/internal/ledger"
	"github.com/angelmondragon/tradepost-backend/internal/trades"
	pkgerrors "github.com/angelmondragon/tradepost-backend/pkg/errors"
	"github.com/angelmondragon/tradepost-backend/pkg/logger"
)

type lineRequest struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

func toLines(in []lineRequest) []trades.LineInput {
	out := make([]trades.LineInput, 0, len(in))
	for _, line := range in {
		out = append(out, trades.LineInput{ItemID: line.ItemID, Quantity: line.Quantity})
	}
	return out
}

type createTradeRequest struct {
	BuyerID   uuid.UUID     `json:"buyer_id"`
	StationID uuid.UUID     `json:"station_id"`
	Items     []lineRequest `json:"items" validate:"required,min=1"`
}

type updateTradeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// TradeCreate reserves items from the caller's station for a buyer.
func TradeCreate(svc trades.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createTradeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		trade, err := svc.Create(r.Context(), trades.CreateInput{
			SellerID:  sellerID,
			BuyerID:   req.BuyerID,
			StationID: req.StationID,
			Items:     toLines(req.Items),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, trade)
	}
}

// TradeList returns trades where the caller is buyer or seller.
func TradeList(svc trades.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func TradeGet(svc trades.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trade, err := partyTrade(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, trade)
	}
}

func TradeUpdateStatus(svc trades.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		transactionID, err := validators.ParseUUID(chi.URLParam(r, "transactionId"), "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateTradeStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		trade, err := svc.UpdateStatus(r.Context(), trades.UpdateStatusInput{
			ActorID:       userID,
			TransactionID: transactionID,
			Status:        req.Status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, trade)
	}
}

// TradeMovements lists the journaled quantity moves of one trade.
func TradeMovements(svc trades.Service, journal ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trade, err := partyTrade(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movements, err := journal.ListByTransaction(r.Context(), trade.TransactionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ledger.FromModels(movements))
	}
}

// partyTrade loads the routed trade and hides it from non-parties.
func partyTrade(r *http.Request, svc trades.Service) (*trades.TradeDTO, error) {
	userID, err := actorID(r)
	if err != nil {
		return nil, err
	}
	transactionID, err := validators.ParseUUID(chi.URLParam(r, "transactionId"), "transactionId")
	if err != nil {
		return nil, err
	}
	trade, err := svc.Get(r.Context(), transactionID)
	if err != nil {
		return nil, err
	}
	if trade.BuyerID != userID && trade.SellerID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer or seller may view a trade")
	}
	return trade, nil
}
