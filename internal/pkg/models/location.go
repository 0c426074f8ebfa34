package models

// LatLng is a geographic coordinate pair in decimal degrees. It is a value
// type: callers always receive and hand over copies, never shared references.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is inside the WGS84 ranges.
func (l LatLng) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}
