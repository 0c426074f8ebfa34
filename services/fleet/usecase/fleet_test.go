package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmsflow/fleettrack/internal/pkg/models"
	"github.com/tmsflow/fleettrack/services/fleet"
	"github.com/tmsflow/fleettrack/services/fleet/repository"
)

type stubInsightGW struct {
	mu            sync.Mutex
	fleetFn       func(ctx context.Context, orders []models.Order, drivers []models.Driver) (models.Insight, error)
	estimateFn    func(ctx context.Context, status models.OrderStatus, destinationAddress string, driverLocation *models.LatLng) (models.Insight, error)
	estimateCalls int
}

func (s *stubInsightGW) FleetInsight(ctx context.Context, orders []models.Order, drivers []models.Driver) (models.Insight, error) {
	if s.fleetFn == nil {
		return models.Insight{Text: "ok"}, nil
	}
	return s.fleetFn(ctx, orders, drivers)
}

func (s *stubInsightGW) DeliveryEstimate(ctx context.Context, status models.OrderStatus, destinationAddress string, driverLocation *models.LatLng) (models.Insight, error) {
	s.mu.Lock()
	s.estimateCalls++
	s.mu.Unlock()
	if s.estimateFn == nil {
		return models.Insight{Text: "chegando"}, nil
	}
	return s.estimateFn(ctx, status, destinationAddress, driverLocation)
}

func (s *stubInsightGW) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estimateCalls
}

type stubMapGW struct {
	mu     sync.Mutex
	frames []models.MapFrame
}

func (s *stubMapGW) PushFrame(ctx context.Context, frame models.MapFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
	return nil
}

func (s *stubMapGW) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *stubMapGW) lastFrame() (models.MapFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return models.MapFrame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

func testConfig() *models.Config {
	return &models.Config{
		Sim: fastSimConfig(),
		Insight: models.InsightConfig{
			TimeoutSeconds: 1,
		},
		Ops: models.OpsConfig{
			MapCenterLat:     -23.5505,
			MapCenterLng:     -46.6333,
			MapZoom:          13,
			LateAfterMinutes: 30,
		},
	}
}

func newTestUC(t *testing.T) (*FleetUC, *repository.Store, *stubInsightGW, *stubMapGW) {
	t.Helper()
	store := repository.NewStore(repository.SeedOrders(time.Now()), repository.SeedDrivers())
	insight := &stubInsightGW{}
	mapGW := &stubMapGW{}
	uc := NewFleetUC(store, insight, mapGW, testConfig())
	t.Cleanup(uc.Close)
	return uc, store, insight, mapGW
}

func TestOpsOverviewStats(t *testing.T) {
	uc, store, _, _ := newTestUC(t)
	ctx := context.Background()

	// d2 goes offline, leaving one online driver.
	_, err := store.ToggleDriverOnline(ctx, "d2")
	require.NoError(t, err)

	view := uc.OpsOverview(ctx)
	assert.Equal(t, 2, view.Stats.TotalOrders)
	assert.Equal(t, 1, view.Stats.OnlineDrivers)
	assert.Equal(t, 1, view.Stats.InTransit)
	assert.Zero(t, view.Stats.Late)
	assert.Len(t, view.Orders, 2)

	// Frame carries the online driver plus the in-transit destination.
	ids := make(map[string]models.MarkerKind)
	for _, m := range view.Frame.Markers {
		ids[m.ID] = m.Kind
	}
	assert.Equal(t, models.MarkerTruck, ids["d1"])
	assert.Equal(t, models.MarkerDestination, ids["dest-o1"])
	assert.NotContains(t, ids, "d2")
	assert.NotContains(t, ids, "dest-o2")
}

func TestOpsOverviewCountsLateOrders(t *testing.T) {
	stale := time.Now().Add(-2 * time.Hour)
	store := repository.NewStore(repository.SeedOrders(stale), repository.SeedDrivers())
	uc := NewFleetUC(store, &stubInsightGW{}, &stubMapGW{}, testConfig())
	t.Cleanup(uc.Close)

	view := uc.OpsOverview(context.Background())
	assert.Equal(t, 1, view.Stats.InTransit)
	assert.Equal(t, 1, view.Stats.Late)
}

func TestFleetInsightFallsBackOnError(t *testing.T) {
	uc, _, insight, _ := newTestUC(t)
	insight.fleetFn = func(ctx context.Context, orders []models.Order, drivers []models.Driver) (models.Insight, error) {
		return models.Insight{}, errors.New("service unavailable")
	}

	ins := uc.FleetInsight(context.Background())
	assert.Equal(t, "Não foi possível gerar insights no momento.", ins.Text)
	assert.NotNil(t, ins.References)
	assert.Empty(t, ins.References)
}

func TestFleetInsightPassesThrough(t *testing.T) {
	uc, _, insight, _ := newTestUC(t)
	insight.fleetFn = func(ctx context.Context, orders []models.Order, drivers []models.Driver) (models.Insight, error) {
		assert.Len(t, orders, 2)
		assert.Len(t, drivers, 2)
		return models.Insight{
			Text:       "Priorize a rota da Paulista.",
			References: []models.InsightReference{{Title: "Avenida Paulista", URI: "https://maps.example/paulista"}},
		}, nil
	}

	ins := uc.FleetInsight(context.Background())
	assert.Equal(t, "Priorize a rota da Paulista.", ins.Text)
	require.Len(t, ins.References, 1)
	assert.Equal(t, "Avenida Paulista", ins.References[0].Title)
}

func TestDriverHomeProjection(t *testing.T) {
	uc, _, _, _ := newTestUC(t)

	view, err := uc.DriverHome(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1", view.Driver.ID)
	require.NotNil(t, view.ActiveOrder)
	assert.Equal(t, "o1", view.ActiveOrder.ID)
	assert.False(t, view.Simulating)

	// Truck plus destination markers, no route hint while idle.
	require.Len(t, view.Frame.Markers, 2)
	assert.Nil(t, view.Frame.Route)

	_, err = uc.DriverHome(context.Background(), "d99")
	assert.ErrorIs(t, err, fleet.ErrDriverNotFound)
}

func TestStartRouteGuards(t *testing.T) {
	uc, store, _, _ := newTestUC(t)
	ctx := context.Background()

	// Offline drivers cannot start.
	_, err := store.ToggleDriverOnline(ctx, "d1")
	require.NoError(t, err)
	assert.ErrorIs(t, uc.StartRoute(ctx, "d1"), fleet.ErrDriverOffline)

	// Unknown driver.
	assert.ErrorIs(t, uc.StartRoute(ctx, "d99"), fleet.ErrDriverNotFound)

	// Online but nothing left to deliver.
	_, err = store.ToggleDriverOnline(ctx, "d1")
	require.NoError(t, err)
	cancelled := models.OrderStatusCancelled
	require.NoError(t, store.UpdateOrder(ctx, "o1", models.OrderPatch{Status: &cancelled}))
	assert.ErrorIs(t, uc.StartRoute(ctx, "d1"), fleet.ErrNoActiveOrder)
}

func TestRouteRunsToDelivery(t *testing.T) {
	uc, store, _, _ := newTestUC(t)
	ctx := context.Background()

	require.NoError(t, uc.StartRoute(ctx, "d1"))

	orderID, running := uc.Engine().Running("d1")
	require.True(t, running)
	assert.Equal(t, "o1", orderID)

	view, err := uc.DriverHome(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, view.Simulating)
	require.NotNil(t, view.Frame.Route)
	assert.Equal(t, view.ActiveOrder.Destination.Coords, view.Frame.Route.End)

	require.Eventually(t, func() bool {
		o, err := store.Order(ctx, "o1")
		return err == nil && o.Status == models.OrderStatusDelivered
	}, 5*time.Second, 5*time.Millisecond, "route should end in a delivered order")

	d, err := store.Driver(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, models.LatLng{Lat: -23.5611, Lng: -46.6559}, d.CurrentLocation)

	_, running = uc.Engine().Running("d1")
	assert.False(t, running)
}

func TestGoingOfflineCancelsRoute(t *testing.T) {
	uc, store, _, _ := newTestUC(t)
	ctx := context.Background()

	require.NoError(t, uc.StartRoute(ctx, "d1"))

	online, err := uc.ToggleDriverOnline(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, online)

	_, running := uc.Engine().Running("d1")
	assert.False(t, running)

	frozen, err := store.Driver(ctx, "d1")
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	after, err := store.Driver(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, frozen.CurrentLocation, after.CurrentLocation)
}

func TestConfirmDelivery(t *testing.T) {
	uc, store, _, _ := newTestUC(t)
	ctx := context.Background()

	require.NoError(t, uc.StartRoute(ctx, "d1"))
	require.NoError(t, uc.ConfirmDelivery(ctx, "d1"))

	o, err := store.Order(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, o.Status)

	_, running := uc.Engine().Running("d1")
	assert.False(t, running)

	// Nothing active anymore.
	assert.ErrorIs(t, uc.ConfirmDelivery(ctx, "d1"), fleet.ErrNoActiveOrder)
}

func TestTrackOrderProjection(t *testing.T) {
	uc, _, _, _ := newTestUC(t)

	view, err := uc.TrackOrder(context.Background(), "b2b-7721-xp")
	require.NoError(t, err)
	assert.Equal(t, "o1", view.Order.ID)
	require.NotNil(t, view.DriverLocation)
	assert.Equal(t, models.LatLng{Lat: -23.5505, Lng: -46.6333}, *view.DriverLocation)
	assert.Equal(t, "chegando", view.Estimate.Text)
	assert.Nil(t, view.Telemetry)

	ids := make(map[string]models.MarkerKind)
	for _, m := range view.Frame.Markers {
		ids[m.ID] = m.Kind
	}
	assert.Equal(t, models.MarkerTruck, ids["truck-o1"])
	assert.Equal(t, models.MarkerDestination, ids["dest-o1"])

	_, err = uc.TrackOrder(context.Background(), "B2B-0000-ZZ")
	assert.ErrorIs(t, err, fleet.ErrOrderNotFound)
}

func TestDeliveryEstimateIsCachedPerToken(t *testing.T) {
	uc, store, insight, _ := newTestUC(t)
	ctx := context.Background()

	_, err := uc.TrackOrder(ctx, "B2B-7721-XP")
	require.NoError(t, err)
	_, err = uc.TrackOrder(ctx, "B2B-7721-XP")
	require.NoError(t, err)
	assert.Equal(t, 1, insight.calls(), "unchanged order should reuse the cached estimate")

	// Moving the driver invalidates the token and triggers a fresh call.
	require.NoError(t, store.UpdateDriverLocation(ctx, "d1", models.LatLng{Lat: -23.5550, Lng: -46.6400}))
	_, err = uc.TrackOrder(ctx, "B2B-7721-XP")
	require.NoError(t, err)
	assert.Equal(t, 2, insight.calls())
}

func TestDeliveryEstimateDiscardsStaleResponse(t *testing.T) {
	uc, store, insight, _ := newTestUC(t)
	ctx := context.Background()

	insight.estimateFn = func(ctx context.Context, status models.OrderStatus, destinationAddress string, driverLocation *models.LatLng) (models.Insight, error) {
		// The order moves on while the request is in flight.
		require.NoError(t, store.UpdateDriverLocation(context.Background(), "d1", models.LatLng{Lat: -23.5600, Lng: -46.6500}))
		return models.Insight{Text: "resposta atrasada"}, nil
	}

	view, err := uc.TrackOrder(ctx, "B2B-7721-XP")
	require.NoError(t, err)
	assert.Equal(t, "Seu pedido está sendo processado com cuidado.", view.Estimate.Text)

	// The stale text was never cached; the next lookup asks again.
	insight.estimateFn = nil
	view, err = uc.TrackOrder(ctx, "B2B-7721-XP")
	require.NoError(t, err)
	assert.Equal(t, "chegando", view.Estimate.Text)
}

func TestDeliveryEstimateFallsBackOnError(t *testing.T) {
	uc, _, insight, _ := newTestUC(t)
	insight.estimateFn = func(ctx context.Context, status models.OrderStatus, destinationAddress string, driverLocation *models.LatLng) (models.Insight, error) {
		return models.Insight{}, errors.New("quota exceeded")
	}

	view, err := uc.TrackOrder(context.Background(), "B2B-7721-XP")
	require.NoError(t, err)
	assert.Equal(t, "Seu pedido está sendo processado com cuidado.", view.Estimate.Text)
	assert.Empty(t, view.Estimate.References)
}

func TestStoreChangesPushMapFrames(t *testing.T) {
	_, store, _, mapGW := newTestUC(t)
	ctx := context.Background()

	before := mapGW.frameCount()
	require.NoError(t, store.UpdateDriverLocation(ctx, "d1", models.LatLng{Lat: -23.5510, Lng: -46.6340}))
	require.Greater(t, mapGW.frameCount(), before)

	frame, ok := mapGW.lastFrame()
	require.True(t, ok)
	assert.Equal(t, models.LatLng{Lat: -23.5505, Lng: -46.6333}, frame.Center)

	var truck *models.Marker
	for i := range frame.Markers {
		if frame.Markers[i].ID == "d1" {
			truck = &frame.Markers[i]
		}
	}
	require.NotNil(t, truck, "frame must carry the moved driver")
	assert.Equal(t, models.LatLng{Lat: -23.5510, Lng: -46.6340}, truck.Position)
	assert.NotEmpty(t, truck.Geohash)
}
