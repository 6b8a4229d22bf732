package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/tradepost-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/tradepost-backend/pkg/errors"
)

func actorID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return id, nil
}
