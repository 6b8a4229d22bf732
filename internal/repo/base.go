package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/tradepost-backend/internal/reconcile"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// VersionGuard names the row a guarded write targets and the version it was read at.
type VersionGuard struct {
	KeyColumn string
	Key       any
	Version   int64
}

func (g VersionGuard) where() string {
	return fmt.Sprintf("%s = ? AND version = ?", g.KeyColumn)
}

// UpdateVersioned writes columns only if the row still carries guard.Version and
// bumps the version. Zero affected rows yields reconcile.ErrStaleVersion.
func (b Base) UpdateVersioned(ctx context.Context, model any, guard VersionGuard, columns map[string]any) (int64, error) {
	next := guard.Version + 1
	updates := make(map[string]any, len(columns)+1)
	for k, v := range columns {
		updates[k] = v
	}
	updates["version"] = next

	res := b.DB(ctx).Model(model).Where(guard.where(), guard.Key, guard.Version).Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, reconcile.ErrStaleVersion
	}
	return next, nil
}

// DeleteVersioned removes the row only if it still carries guard.Version.
func (b Base) DeleteVersioned(ctx context.Context, model any, guard VersionGuard) error {
	res := b.DB(ctx).Where(guard.where(), guard.Key, guard.Version).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return reconcile.ErrStaleVersion
	}
	return nil
}
