package fleet

import (
	"context"

	"github.com/tmsflow/fleettrack/internal/pkg/models"
)

// InsightGW produces advisory text from fleet state. Implementations talk to
// an external generative service and may fail; callers must degrade to a
// fixed fallback and never propagate the failure.
type InsightGW interface {
	FleetInsight(ctx context.Context, orders []models.Order, drivers []models.Driver) (models.Insight, error)
	DeliveryEstimate(ctx context.Context, status models.OrderStatus, destinationAddress string, driverLocation *models.LatLng) (models.Insight, error)
}

// MapGW delivers rendering frames to a mapping-visualization surface. The
// surface owns its internal marker state and reconciles it by marker id.
type MapGW interface {
	PushFrame(ctx context.Context, frame models.MapFrame) error
}
