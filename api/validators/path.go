package validators

import (
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/tradepost-backend/pkg/errors"
)

// ParseUUID parses a path or query identifier, reporting the field on failure.
func ParseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+field).WithDetails(map[string]any{"field": field})
	}
	return id, nil
}
