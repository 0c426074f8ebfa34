package gateway

import (
	"context"

	"github.com/tmsflow/fleettrack/internal/pkg/models"
	ws "github.com/tmsflow/fleettrack/internal/pkg/websocket"
	"github.com/tmsflow/fleettrack/services/fleet"
)

// MapGW feeds rendering frames to browser map surfaces over WebSocket. The
// surface reconciles markers by id on its side; this gateway only delivers
// complete frames.
type MapGW struct {
	hub *ws.Manager
}

// NewMapGW creates a new map surface gateway
func NewMapGW(hub *ws.Manager) *MapGW {
	return &MapGW{hub: hub}
}

// PushFrame broadcasts the frame to all connected surfaces. With no surface
// attached it reports fleet.ErrSurfaceNotReady, which callers treat as
// ordinary unavailability.
func (g *MapGW) PushFrame(ctx context.Context, frame models.MapFrame) error {
	if g.hub.ClientCount() == 0 {
		return fleet.ErrSurfaceNotReady
	}
	return g.hub.Broadcast(frame)
}
