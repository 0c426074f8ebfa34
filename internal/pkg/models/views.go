package models

// OpsStats are the operations-console counters, computed by filtering a
// snapshot.
type OpsStats struct {
	TotalOrders   int `json:"total_orders"`
	OnlineDrivers int `json:"online_drivers"`
	InTransit     int `json:"in_transit"`
	Late          int `json:"late"`
}

// OpsView is the operations-console projection of a snapshot.
type OpsView struct {
	Stats  OpsStats `json:"stats"`
	Orders []Order  `json:"orders"`
	Frame  MapFrame `json:"frame"`
}

// DriverView is the driver-app projection: one driver and their active
// (not yet delivered) orders.
type DriverView struct {
	Driver      Driver     `json:"driver"`
	Orders      []Order    `json:"orders"`
	ActiveOrder *Order     `json:"active_order,omitempty"`
	Simulating  bool       `json:"simulating"`
	Telemetry   *Telemetry `json:"telemetry,omitempty"`
	Frame       MapFrame   `json:"frame"`
}

// TrackingView is the customer-facing projection of a single order looked
// up by tracking code.
type TrackingView struct {
	Order          Order      `json:"order"`
	DriverLocation *LatLng    `json:"driver_location,omitempty"`
	Telemetry      *Telemetry `json:"telemetry,omitempty"`
	Estimate       Insight    `json:"estimate"`
	Frame          MapFrame   `json:"frame"`
}
