package trades

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradepost-backend/internal/inventory"
	"github.com/angelmondragon/tradepost-backend/internal/ledger"
	"github.com/angelmondragon/tradepost-backend/internal/locks"
	"github.com/angelmondragon/tradepost-backend/internal/reconcile"
	"github.com/angelmondragon/tradepost-backend/internal/users"
	"github.com/angelmondragon/tradepost-backend/pkg/db/models"
	"github.com/angelmondragon/tradepost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradepost-backend/pkg/errors"
	"github.com/angelmondragon/tradepost-backend/pkg/logger"
)

type fixture struct {
	db          *gorm.DB
	svc         Service
	trades      Repository
	inventories inventory.Repository
	users       *users.Repository
	journal     ledger.Service
}

type fixtureOption func(f *fixture)

func withTradeRepo(wrap func(Repository) Repository) fixtureOption {
	return func(f *fixture) { f.trades = wrap(f.trades) }
}

func withInventoryRepo(wrap func(inventory.Repository) inventory.Repository) fixtureOption {
	return func(f *fixture) { f.inventories = wrap(f.inventories) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:trades_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(&models.User{}, &models.Inventory{}, &models.Trade{}, &models.StockMovement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	journal, err := ledger.NewService(ledger.NewRepository(conn), logger.Nop())
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	f := &fixture{
		db:          conn,
		trades:      NewRepository(conn),
		inventories: inventory.NewRepository(conn),
		users:       users.NewRepository(conn),
		journal:     journal,
	}
	for _, opt := range opts {
		opt(f)
	}

	guard, err := reconcile.NewGuard(locks.NewLocalLocker(5*time.Second), nil, nil)
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	engine, err := reconcile.NewEngine(guard, reconcile.RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}, nil, logger.Nop())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	f.svc, err = NewService(f.trades, f.inventories, f.users, f.journal, engine, logger.Nop())
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return f
}

func (f *fixture) user(t *testing.T) uuid.UUID {
	t.Helper()
	u, err := f.users.Create(context.Background(), users.CreateUserDTO{Email: uuid.NewString() + "@example.com", Name: "trader"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

// station seeds an inventory for seller with the given quantities, priced at 10.5 each.
func (f *fixture) station(t *testing.T, seller uuid.UUID, quantities ...int) *models.Inventory {
	t.Helper()
	inv := &models.Inventory{StationID: uuid.New(), UserID: seller, Name: "Gamma"}
	for i, qty := range quantities {
		inv.Items = append(inv.Items, models.InventoryItem{
			ItemID:   uuid.New(),
			Name:     "good-" + string(rune('a'+i)),
			Price:    decimal.RequireFromString("10.5"),
			Quantity: qty,
			Status:   enums.ItemStatusCreated,
		})
	}
	if err := f.inventories.Create(context.Background(), inv); err != nil {
		t.Fatalf("create inventory: %v", err)
	}
	return inv
}

func (f *fixture) reload(t *testing.T, stationID uuid.UUID) *models.Inventory {
	t.Helper()
	inv, err := inventory.NewRepository(f.db).FindByStation(context.Background(), stationID)
	if err != nil {
		t.Fatalf("reload inventory: %v", err)
	}
	return inv
}

func quantityOf(inv *models.Inventory, itemID uuid.UUID) int {
	if idx := inv.FindItem(itemID); idx >= 0 {
		return inv.Items[idx].Quantity
	}
	return 0
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if !pkgerrors.IsCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}
