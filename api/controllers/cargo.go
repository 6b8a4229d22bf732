package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/tradepost-backend/api/responses"
	"github.com/angelmondragon/tradepost-backend/api/validators"
	"github.com/angelmondragon/tradepost-backend/internal/cargo"
	"github.com/angelmondragon/tradepost-backend/pkg/logger"
)

type createCargoRequest struct {
	ShipmentID  string        `json:"shipment_id" validate:"required,max=128"`
	Origin      string        `json:"origin" validate:"required"`
	Destination string        `json:"destination" validate:"required"`
	Items       []lineRequest `json:"items" validate:"required,min=1"`
}

type appendCargoRequest struct {
	Items []lineRequest `json:"items" validate:"required,min=1"`
}

// CargoCreate ships quantities out of the caller's active trade.
func CargoCreate(svc cargo.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createCargoRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.Create(r.Context(), cargo.CreateInput{
			ActorID:     userID,
			ShipmentID:  req.ShipmentID,
			Origin:      req.Origin,
			Destination: req.Destination,
			Items:       toLines(req.Items),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, res)
	}
}

func CargoGet(svc cargo.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shipment, err := svc.Get(r.Context(), chi.URLParam(r, "shipmentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

// CargoAppendItems adds quantity to items the shipment already carries.
func CargoAppendItems(svc cargo.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req appendCargoRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.AppendItems(r.Context(), cargo.AppendInput{
			ActorID:    userID,
			ShipmentID: chi.URLParam(r, "shipmentId"),
			Items:      toLines(req.Items),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}
