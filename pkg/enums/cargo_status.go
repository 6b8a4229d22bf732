package enums

import "fmt"

// CargoStatus tracks the delivery lifecycle of a shipment.
type CargoStatus string

const (
	CargoStatusPending   CargoStatus = "Pending"
	CargoStatusInTransit CargoStatus = "In Transit"
	CargoStatusDelivered CargoStatus = "Delivered"
	CargoStatusDelayed   CargoStatus = "Delayed"
	CargoStatusCancelled CargoStatus = "Cancelled"
)

var validCargoStatuses = []CargoStatus{
	CargoStatusPending,
	CargoStatusInTransit,
	CargoStatusDelivered,
	CargoStatusDelayed,
	CargoStatusCancelled,
}

// String implements fmt.Stringer.
func (c CargoStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CargoStatus.
func (c CargoStatus) IsValid() bool {
	for _, candidate := range validCargoStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCargoStatus converts raw input into a CargoStatus.
func ParseCargoStatus(value string) (CargoStatus, error) {
	for _, candidate := range validCargoStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cargo status %q", value)
}
