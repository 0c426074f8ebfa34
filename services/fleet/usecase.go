package fleet

import (
	"context"

	"github.com/tmsflow/fleettrack/internal/pkg/models"
)

// FleetUC drives the three role views (operations console, driver app,
// customer tracker) and owns the simulation lifecycle policy.
type FleetUC interface {
	// Operations console
	OpsOverview(ctx context.Context) models.OpsView
	FleetInsight(ctx context.Context) models.Insight
	CreateOrder(ctx context.Context, draft models.Order) (models.Order, error)

	// Driver app
	DriverHome(ctx context.Context, driverID string) (models.DriverView, error)
	StartRoute(ctx context.Context, driverID string) error
	StopRoute(ctx context.Context, driverID string) error
	ConfirmDelivery(ctx context.Context, driverID string) error
	ToggleDriverOnline(ctx context.Context, driverID string) (bool, error)

	// Customer tracker
	TrackOrder(ctx context.Context, trackingCode string) (models.TrackingView, error)
}
