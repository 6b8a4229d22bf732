package enums

import "fmt"

// MovementType names the ledgers a quantity moved between.
type MovementType string

const (
	MovementInventoryToTrade MovementType = "inventory_to_trade"
	MovementTradeToInventory MovementType = "trade_to_inventory"
	MovementTradeToCargo     MovementType = "trade_to_cargo"
)

var validMovementTypes = []MovementType{
	MovementInventoryToTrade,
	MovementTradeToInventory,
	MovementTradeToCargo,
}

// String implements fmt.Stringer.
func (m MovementType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementType.
func (m MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
