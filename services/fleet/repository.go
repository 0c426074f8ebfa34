package fleet

import (
	"context"

	"github.com/tmsflow/fleettrack/internal/pkg/models"
)

// FleetRepo is the single source of truth for orders and drivers. All
// mutations are serialized by the implementation; every successful mutation
// notifies subscribers synchronously with the fresh snapshot.
type FleetRepo interface {
	CreateOrder(ctx context.Context, draft models.Order) (models.Order, error)
	UpdateOrder(ctx context.Context, orderID string, patch models.OrderPatch) error
	UpdateDriverLocation(ctx context.Context, driverID string, location models.LatLng) error
	// ToggleDriverOnline flips the online flag and returns the new value so
	// the caller can cancel a bound simulation when the driver went offline.
	ToggleDriverOnline(ctx context.Context, driverID string) (bool, error)

	Order(ctx context.Context, orderID string) (models.Order, error)
	OrderByTrackingCode(ctx context.Context, code string) (models.Order, error)
	Driver(ctx context.Context, driverID string) (models.Driver, error)
	Snapshot(ctx context.Context) models.Snapshot

	Subscribe(key string, fn func(models.Snapshot))
	Unsubscribe(key string)
}
