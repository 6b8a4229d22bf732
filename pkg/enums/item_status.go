package enums

import "fmt"

// ItemStatus labels an inventory item.
type ItemStatus string

const (
	ItemStatusCreated     ItemStatus = "Created"
	ItemStatusTrade       ItemStatus = "Trade"
	ItemStatusTransported ItemStatus = "Transported"
)

var validItemStatuses = []ItemStatus{
	ItemStatusCreated,
	ItemStatusTrade,
	ItemStatusTransported,
}

// String implements fmt.Stringer.
func (s ItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemStatus.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseItemStatus converts raw input into an ItemStatus.
func ParseItemStatus(value string) (ItemStatus, error) {
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
