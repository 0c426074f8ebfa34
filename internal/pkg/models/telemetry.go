package models

import "time"

// Telemetry is the live readout for one simulated route. SpeedKmh is a
// bounded random walk for display; ETASeconds and DistanceKm are derived
// from the remaining distance and shrink monotonically until arrival.
type Telemetry struct {
	DriverID   string    `json:"driver_id"`
	OrderID    string    `json:"order_id"`
	SpeedKmh   float64   `json:"speed_kmh"`
	ETASeconds int       `json:"eta_seconds"`
	DistanceKm float64   `json:"distance_km"`
	UpdatedAt  time.Time `json:"updated_at"`
}
