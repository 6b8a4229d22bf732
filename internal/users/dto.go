package users

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/tradepost-backend/pkg/db/models"
)

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	ID       uuid.UUID
	Email    string
	Name     string
	IsActive *bool
}

// ToModel converts the DTO into a persisted user, generating an id when absent.
func (d CreateUserDTO) ToModel() *models.User {
	id := d.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	active := true
	if d.IsActive != nil {
		active = *d.IsActive
	}
	return &models.User{
		ID:       id,
		Email:    strings.ToLower(strings.TrimSpace(d.Email)),
		Name:     strings.TrimSpace(d.Name),
		IsActive: active,
	}
}
