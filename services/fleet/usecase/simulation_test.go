package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmsflow/fleettrack/internal/pkg/models"
	"github.com/tmsflow/fleettrack/services/fleet/repository"
)

func fastSimConfig() models.SimConfig {
	return models.SimConfig{
		TickMillis:     5,
		StepDegrees:    0.0005,
		ArrivalEpsilon: 0.001,
		SpeedMinKmh:    30,
		SpeedMaxKmh:    80,
		SpeedJitterKmh: 2,
	}
}

func routeStore(t *testing.T, driverLoc, dest models.LatLng) *repository.Store {
	t.Helper()
	now := time.Now()
	return repository.NewStore(
		[]models.Order{{
			ID:           "o-route",
			TrackingCode: "B2B-TEST-01",
			CustomerName: "Teste Transportes",
			Status:       models.OrderStatusInTransit,
			DriverID:     "drv",
			Destination:  models.Waypoint{Address: "Destino", Coords: dest},
			CreatedAt:    now,
			UpdatedAt:    now,
		}},
		[]models.Driver{{
			ID:              "drv",
			Name:            "Motorista Teste",
			VehiclePlate:    "TST-0001",
			IsOnline:        true,
			CurrentLocation: driverLoc,
		}},
	)
}

func TestEngineArrivalSnapsToTarget(t *testing.T) {
	target := models.LatLng{Lat: 0.0009, Lng: 0}
	store := routeStore(t, models.LatLng{Lat: 0, Lng: 0}, target)

	arrivals := make(chan string, 1)
	cfg := fastSimConfig()
	cfg.StepDegrees = 0.0002
	engine := NewEngine(store, cfg, func(orderID, driverID string) {
		arrivals <- orderID
	})

	// Starting distance is already inside the arrival radius, so the very
	// first tick must finish the route.
	engine.Start("o-route", "drv")

	select {
	case orderID := <-arrivals:
		assert.Equal(t, "o-route", orderID)
	case <-time.After(time.Second):
		t.Fatal("route never arrived")
	}

	d, err := store.Driver(context.Background(), "drv")
	require.NoError(t, err)
	assert.Equal(t, target, d.CurrentLocation)

	_, running := engine.Running("drv")
	assert.False(t, running)

	tel, ok := engine.Telemetry("drv")
	require.True(t, ok)
	assert.Zero(t, tel.SpeedKmh)
	assert.Zero(t, tel.ETASeconds)
	assert.Zero(t, tel.DistanceKm)
}

func TestEngineApproachIsMonotonic(t *testing.T) {
	target := models.LatLng{Lat: 0.01, Lng: 0}
	store := routeStore(t, models.LatLng{Lat: 0, Lng: 0}, target)

	var mu sync.Mutex
	var positions []models.LatLng
	store.Subscribe("probe", func(snap models.Snapshot) {
		if d, ok := snap.Driver("drv"); ok {
			mu.Lock()
			positions = append(positions, d.CurrentLocation)
			mu.Unlock()
		}
	})

	engine := NewEngine(store, fastSimConfig(), nil)
	engine.Start("o-route", "drv")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(positions) >= 6
	}, 2*time.Second, time.Millisecond, "expected at least six position updates")

	engine.Stop("drv")
	store.Unsubscribe("probe")

	mu.Lock()
	defer mu.Unlock()
	prev := models.LatLng{Lat: 0, Lng: 0}
	prevDist := degreeDist(prev, target)
	for _, p := range positions {
		dist := degreeDist(p, target)
		assert.Less(t, dist, prevDist, "each tick must move strictly closer")
		prevDist = dist
	}
}

func TestEngineStopPreventsFurtherWrites(t *testing.T) {
	store := routeStore(t, models.LatLng{Lat: 0, Lng: 0}, models.LatLng{Lat: 0.5, Lng: 0.5})

	engine := NewEngine(store, fastSimConfig(), nil)
	engine.Start("o-route", "drv")

	require.Eventually(t, func() bool {
		d, err := store.Driver(context.Background(), "drv")
		return err == nil && d.CurrentLocation != (models.LatLng{Lat: 0, Lng: 0})
	}, 2*time.Second, time.Millisecond)

	engine.Stop("drv")

	frozen, err := store.Driver(context.Background(), "drv")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	after, err := store.Driver(context.Background(), "drv")
	require.NoError(t, err)
	assert.Equal(t, frozen.CurrentLocation, after.CurrentLocation)

	_, running := engine.Running("drv")
	assert.False(t, running)
	_, hasTel := engine.Telemetry("drv")
	assert.False(t, hasTel)
}

func TestEngineStartIdempotentAndSupersedes(t *testing.T) {
	now := time.Now()
	store := repository.NewStore(
		[]models.Order{
			{
				ID: "o-a", TrackingCode: "B2B-AAAA-01", CustomerName: "A",
				Status: models.OrderStatusInTransit, DriverID: "drv",
				Destination: models.Waypoint{Coords: models.LatLng{Lat: 0.5, Lng: 0}},
				CreatedAt:   now, UpdatedAt: now,
			},
			{
				ID: "o-b", TrackingCode: "B2B-BBBB-01", CustomerName: "B",
				Status: models.OrderStatusInTransit, DriverID: "drv",
				Destination: models.Waypoint{Coords: models.LatLng{Lat: 0, Lng: 0.5}},
				CreatedAt:   now, UpdatedAt: now,
			},
		},
		[]models.Driver{{ID: "drv", Name: "Motorista", IsOnline: true}},
	)

	engine := NewEngine(store, fastSimConfig(), nil)
	defer engine.StopAll()

	engine.Start("o-a", "drv")
	orderID, running := engine.Running("drv")
	require.True(t, running)
	assert.Equal(t, "o-a", orderID)

	// Same pair again changes nothing.
	engine.Start("o-a", "drv")
	orderID, running = engine.Running("drv")
	require.True(t, running)
	assert.Equal(t, "o-a", orderID)

	// A different order takes over the driver.
	engine.Start("o-b", "drv")
	orderID, running = engine.Running("drv")
	require.True(t, running)
	assert.Equal(t, "o-b", orderID)
}

func TestEngineHaltsOnTerminalOrder(t *testing.T) {
	store := routeStore(t, models.LatLng{Lat: 0, Lng: 0}, models.LatLng{Lat: 0.5, Lng: 0})

	arrived := false
	engine := NewEngine(store, fastSimConfig(), func(orderID, driverID string) {
		arrived = true
	})
	engine.Start("o-route", "drv")

	cancelled := models.OrderStatusCancelled
	require.NoError(t, store.UpdateOrder(context.Background(), "o-route", models.OrderPatch{Status: &cancelled}))

	require.Eventually(t, func() bool {
		_, running := engine.Running("drv")
		return !running
	}, 2*time.Second, time.Millisecond)
	assert.False(t, arrived)
}

func TestEngineTelemetryReadout(t *testing.T) {
	store := routeStore(t, models.LatLng{Lat: -23.5505, Lng: -46.6333}, models.LatLng{Lat: -23.5611, Lng: -46.6559})

	cfg := fastSimConfig()
	engine := NewEngine(store, cfg, nil)
	engine.Start("o-route", "drv")
	defer engine.StopAll()

	require.Eventually(t, func() bool {
		_, ok := engine.Telemetry("drv")
		return ok
	}, 2*time.Second, time.Millisecond)

	tel, ok := engine.Telemetry("drv")
	require.True(t, ok)
	assert.Equal(t, "drv", tel.DriverID)
	assert.Equal(t, "o-route", tel.OrderID)
	assert.GreaterOrEqual(t, tel.SpeedKmh, cfg.SpeedMinKmh)
	assert.LessOrEqual(t, tel.SpeedKmh, cfg.SpeedMaxKmh)
	assert.Positive(t, tel.ETASeconds)
	assert.Positive(t, tel.DistanceKm)
	assert.False(t, tel.UpdatedAt.IsZero())
}

func degreeDist(a, b models.LatLng) float64 {
	dLat := a.Lat - b.Lat
	dLng := a.Lng - b.Lng
	return dLat*dLat + dLng*dLng
}
