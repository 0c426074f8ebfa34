package models

import "time"

// Snapshot is a consistent point-in-time copy of the whole fleet state.
// It is safe to retain and read without synchronization; readers never
// observe a partially applied mutation through it.
type Snapshot struct {
	Orders  []Order   `json:"orders"`
	Drivers []Driver  `json:"drivers"`
	TakenAt time.Time `json:"taken_at"`
}

// Order returns the order with the given id, if present.
func (s Snapshot) Order(id string) (Order, bool) {
	for _, o := range s.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return Order{}, false
}

// Driver returns the driver with the given id, if present. A dangling
// Order.DriverID therefore reads as "unassigned" rather than failing.
func (s Snapshot) Driver(id string) (Driver, bool) {
	for _, d := range s.Drivers {
		if d.ID == id {
			return d, true
		}
	}
	return Driver{}, false
}
