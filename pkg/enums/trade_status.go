package enums

import "fmt"

// TradeStatus tracks the lifecycle of a buyer/seller trade.
type TradeStatus string

const (
	TradeStatusInitiated  TradeStatus = "Initiated"
	TradeStatusInProgress TradeStatus = "In Progress"
	TradeStatusCompleted  TradeStatus = "Completed"
	TradeStatusFailed     TradeStatus = "Failed"
	TradeStatusCancelled  TradeStatus = "Cancelled"
)

var validTradeStatuses = []TradeStatus{
	TradeStatusInitiated,
	TradeStatusInProgress,
	TradeStatusCompleted,
	TradeStatusFailed,
	TradeStatusCancelled,
}

// ActiveTradeStatuses are the statuses in which a trade still owns its item quantities.
var ActiveTradeStatuses = []TradeStatus{
	TradeStatusInitiated,
	TradeStatusInProgress,
}

// String implements fmt.Stringer.
func (t TradeStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TradeStatus.
func (t TradeStatus) IsValid() bool {
	for _, candidate := range validTradeStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsActive reports whether the trade still holds reserved quantity.
func (t TradeStatus) IsActive() bool {
	return t == TradeStatusInitiated || t == TradeStatusInProgress
}

// IsTerminal reports whether no further transition is allowed.
func (t TradeStatus) IsTerminal() bool {
	return t == TradeStatusCompleted || t == TradeStatusFailed || t == TradeStatusCancelled
}

// ParseTradeStatus converts raw input into a TradeStatus.
func ParseTradeStatus(value string) (TradeStatus, error) {
	for _, candidate := range validTradeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid trade status %q", value)
}
