package models

import "time"

// OrderStatus represents the delivery status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPickedUp  OrderStatus = "PICKED_UP"
	OrderStatusInTransit OrderStatus = "IN_TRANSIT"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// statusRank orders the forward-only delivery lifecycle. CANCELLED sits
// outside the rank: it is reachable from any non-terminal status.
var statusRank = map[OrderStatus]int{
	OrderStatusPending:   0,
	OrderStatusPickedUp:  1,
	OrderStatusInTransit: 2,
	OrderStatusDelivered: 3,
}

// Valid reports whether s is a member of the closed status enumeration.
func (s OrderStatus) Valid() bool {
	if s == OrderStatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether no further transitions are allowed out of s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransition reports whether moving from s to next is legal: strictly
// forward along PENDING → PICKED_UP → IN_TRANSIT → DELIVERED, or a jump to
// CANCELLED from any non-terminal status.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if !next.Valid() || s.Terminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// Waypoint pairs a human-readable address with its coordinates.
type Waypoint struct {
	Address string `json:"address"`
	Coords  LatLng `json:"coords"`
}

// Order represents a single tracked shipment from pickup to destination.
// TrackingCode is the customer-facing lookup key; it is unique across the
// store and matched case-insensitively.
type Order struct {
	ID           string      `json:"id"`
	TrackingCode string      `json:"tracking_code"`
	CustomerName string      `json:"customer_name"`
	Status       OrderStatus `json:"status"`
	DriverID     string      `json:"driver_id,omitempty"`
	Pickup       Waypoint    `json:"pickup"`
	Destination  Waypoint    `json:"destination"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// OrderPatch carries a partial order update. Nil fields are left untouched.
// The order id is not patchable by construction.
type OrderPatch struct {
	CustomerName *string
	Status       *OrderStatus
	DriverID     *string
	Pickup       *Waypoint
	Destination  *Waypoint
}
