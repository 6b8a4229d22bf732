package locks

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a key could not be acquired within the wait budget.
var ErrLockTimeout = errors.New("lock wait exceeded")

// Scope names the aggregate a lock key protects.
type Scope string

const (
	ScopeInventory Scope = "inventory"
	ScopeTrade     Scope = "trade"
	ScopeCargo     Scope = "cargo"
)

// Key identifies one lockable aggregate.
type Key struct {
	Scope Scope
	ID    string
}

// InventoryKey locks a station inventory.
func InventoryKey(stationID string) Key { return Key{Scope: ScopeInventory, ID: stationID} }

// TradeKey locks a trade.
func TradeKey(transactionID string) Key { return Key{Scope: ScopeTrade, ID: transactionID} }

// CargoKey locks a cargo shipment.
func CargoKey(shipmentID string) Key { return Key{Scope: ScopeCargo, ID: shipmentID} }

func (k Key) String() string {
	return string(k.Scope) + ":" + k.ID
}

// Release frees a held key. It is safe to call more than once.
type Release func(ctx context.Context) error

// Locker is a keyed mutual-exclusion primitive.
type Locker interface {
	Acquire(ctx context.Context, key Key) (Release, error)
}
