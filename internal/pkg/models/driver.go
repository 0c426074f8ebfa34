package models

// Driver represents a vehicle operator. After seeding, IsOnline and
// CurrentLocation are the only fields that change, and only through the
// fleet store. While a route simulation is active the engine is the sole
// writer of CurrentLocation.
type Driver struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	VehiclePlate    string `json:"vehicle_plate"`
	IsOnline        bool   `json:"is_online"`
	CurrentLocation LatLng `json:"current_location"`
}
