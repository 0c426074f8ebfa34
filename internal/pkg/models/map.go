package models

// MarkerKind tells the mapping surface which glyph to render.
type MarkerKind string

const (
	MarkerTruck       MarkerKind = "truck"
	MarkerDestination MarkerKind = "destination"
	MarkerPickup      MarkerKind = "pickup"
)

// Marker is one typed point handed to the mapping surface. Surfaces
// reconcile their internal marker sets against the provided list by ID:
// add new, move existing, remove absent.
type Marker struct {
	ID       string     `json:"id"`
	Position LatLng     `json:"position"`
	Label    string     `json:"label"`
	Kind     MarkerKind `json:"kind"`
	Geohash  string     `json:"geohash,omitempty"`
}

// RouteHint carries optional endpoints for the surface's route polyline.
// When absent the surface clears any drawn route.
type RouteHint struct {
	Start LatLng `json:"start"`
	End   LatLng `json:"end"`
}

// MapFrame is one complete rendering instruction for the mapping surface.
type MapFrame struct {
	Center  LatLng     `json:"center"`
	Zoom    int        `json:"zoom"`
	Markers []Marker   `json:"markers"`
	Route   *RouteHint `json:"route,omitempty"`
}
