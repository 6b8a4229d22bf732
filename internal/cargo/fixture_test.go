package cargo

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
	"github.com/angelmondragon/tradepost-backend/internal/trades"
	"github.com/angelmondragon/tradepost-backend/internal/users"
	"github.com/angelmondragon/tradepost-backend/pkg/db/models"
	"github.com/angelmondragon/tradepost-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradepost-backend/pkg/errors"
	"github.com/angelmondragon/tradepost-backend/pkg/logger"
)

type fixture struct {
	db          *gorm.DB
	svc         Service
	tradeSvc    trades.Service
	cargos      Repository
	trades      trades.Repository
	inventories inventory.Repository
	users       *users.Repository
	journal     ledger.Service
}

type fixtureOption func(f *fixture)

func withCargoRepo(wrap func(Repository) Repository) fixtureOption {
	return func(f *fixture) { f.cargos = wrap(f.cargos) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:cargo_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(&models.User{}, &models.Inventory{}, &models.Trade{}, &models.Cargo{}, &models.StockMovement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	journal, err := ledger.NewService(ledger.NewRepository(conn), logger.Nop())
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	f := &fixture{
		db:          conn,
		cargos:      NewRepository(conn, 0),
		trades:      trades.NewRepository(conn),
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
	f.tradeSvc, err = trades.NewService(f.trades, f.inventories, f.users, journal, engine, logger.Nop())
	if err != nil {
		t.Fatalf("trade service: %v", err)
	}
	f.svc, err = NewService(f.cargos, f.trades, journal, engine, logger.Nop())
	if err != nil {
		t.Fatalf("cargo service: %v", err)
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

// station seeds an inventory for seller; every item is priced at price.
func (f *fixture) station(t *testing.T, seller uuid.UUID, price string, quantities ...int) *models.Inventory {
	t.Helper()
	inv := &models.Inventory{StationID: uuid.New(), UserID: seller, Name: "Kepler"}
	for _, qty := range quantities {
		inv.Items = append(inv.Items, models.InventoryItem{
			ItemID:   uuid.New(),
			Name:     "ore",
			Price:    decimal.RequireFromString(price),
			Quantity: qty,
			Status:   enums.ItemStatusCreated,
		})
	}
	if err := f.inventories.Create(context.Background(), inv); err != nil {
		t.Fatalf("create inventory: %v", err)
	}
	return inv
}

// trade reserves qty of every station item for buyer.
func (f *fixture) trade(t *testing.T, seller, buyer uuid.UUID, inv *models.Inventory, qty int) *trades.TradeDTO {
	t.Helper()
	lines := make([]trades.LineInput, 0, len(inv.Items))
	for _, item := range inv.Items {
		lines = append(lines, trades.LineInput{ItemID: item.ItemID, Quantity: qty})
	}
	trade, err := f.tradeSvc.Create(context.Background(), trades.CreateInput{SellerID: seller, BuyerID: buyer, StationID: inv.StationID, Items: lines})
	if err != nil {
		t.Fatalf("create trade: %v", err)
	}
	return trade
}

func (f *fixture) tradeByID(t *testing.T, id uuid.UUID) *models.Trade {
	t.Helper()
	trade, err := trades.NewRepository(f.db).FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload trade: %v", err)
	}
	return trade
}

func (f *fixture) stationQty(t *testing.T, stationID, itemID uuid.UUID) int {
	t.Helper()
	inv, err := inventory.NewRepository(f.db).FindByStation(context.Background(), stationID)
	if err != nil {
		t.Fatalf("reload inventory: %v", err)
	}
	if idx := inv.FindItem(itemID); idx >= 0 {
		return inv.Items[idx].Quantity
	}
	return 0
}

func tradeQty(trade *models.Trade, itemID uuid.UUID) int {
	if idx := trade.FindItem(itemID); idx >= 0 {
		return trade.Items[idx].Quantity
	}
	return 0
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if !pkgerrors.IsCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}
