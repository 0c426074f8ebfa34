package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tmsflow/fleettrack/internal/pkg/logger"
	"github.com/tmsflow/fleettrack/internal/pkg/models"
	"github.com/tmsflow/fleettrack/internal/utils"
	"github.com/tmsflow/fleettrack/services/fleet"
)

const (
	// Fallback content shown whenever the insight service fails. The text
	// is fixed and localized; references stay empty.
	fleetInsightFallback     = "Não foi possível gerar insights no momento."
	deliveryEstimateFallback = "Seu pedido está sendo processado com cuidado."

	mapSubscriberKey       = "fleet-map-surface"
	markerGeohashPrecision = 7
	driverMapZoom          = 15
	trackingMapZoom        = 14
)

// FleetUC implements the fleet.FleetUC interface. It projects store
// snapshots into the three role views, owns the simulation lifecycle and
// shields callers from insight-service failures.
type FleetUC struct {
	repo    fleet.FleetRepo
	insight fleet.InsightGW
	mapGW   fleet.MapGW
	engine  *Engine
	cfg     *models.Config

	estMu     sync.Mutex
	estimates map[string]estimateEntry
}

// estimateEntry caches the last estimate applied for an order together with
// the request token it was issued under. A response whose token no longer
// matches the order's current token is discarded as stale.
type estimateEntry struct {
	key     string
	insight models.Insight
}

// NewFleetUC creates the fleet use case and hooks the live map feed onto
// store updates.
func NewFleetUC(repo fleet.FleetRepo, insightGW fleet.InsightGW, mapGW fleet.MapGW, cfg *models.Config) *FleetUC {
	uc := &FleetUC{
		repo:      repo,
		insight:   insightGW,
		mapGW:     mapGW,
		cfg:       cfg,
		estimates: make(map[string]estimateEntry),
	}
	uc.engine = NewEngine(repo, cfg.Sim, uc.handleArrival)
	repo.Subscribe(mapSubscriberKey, uc.pushFrame)
	return uc
}

// Close detaches the map feed and cancels all running simulations.
func (uc *FleetUC) Close() {
	uc.repo.Unsubscribe(mapSubscriberKey)
	uc.engine.StopAll()
}

// Engine exposes the simulation engine, mainly for wiring and tests.
func (uc *FleetUC) Engine() *Engine {
	return uc.engine
}

// OpsOverview builds the operations-console projection of the current
// snapshot.
func (uc *FleetUC) OpsOverview(ctx context.Context) models.OpsView {
	snap := uc.repo.Snapshot(ctx)

	stats := models.OpsStats{TotalOrders: len(snap.Orders)}
	lateAfter := time.Duration(uc.cfg.Ops.LateAfterMinutes) * time.Minute
	now := time.Now()
	for _, d := range snap.Drivers {
		if d.IsOnline {
			stats.OnlineDrivers++
		}
	}
	for _, o := range snap.Orders {
		if o.Status == models.OrderStatusInTransit {
			stats.InTransit++
			if lateAfter > 0 && now.Sub(o.UpdatedAt) > lateAfter {
				stats.Late++
			}
		}
	}

	return models.OpsView{
		Stats:  stats,
		Orders: snap.Orders,
		Frame:  uc.opsFrame(snap),
	}
}

// FleetInsight asks the insight service for an optimization report over the
// whole fleet. Failures degrade to the fixed fallback text.
func (uc *FleetUC) FleetInsight(ctx context.Context) models.Insight {
	snap := uc.repo.Snapshot(ctx)

	callCtx, cancel := context.WithTimeout(ctx, uc.insightTimeout())
	defer cancel()

	ins, err := uc.insight.FleetInsight(callCtx, snap.Orders, snap.Drivers)
	if err != nil {
		logger.Warn("fleet insight unavailable, using fallback", logger.Err(err))
		return models.Insight{Text: fleetInsightFallback, References: []models.InsightReference{}}
	}
	return ins
}

// CreateOrder registers a new order in the store.
func (uc *FleetUC) CreateOrder(ctx context.Context, draft models.Order) (models.Order, error) {
	return uc.repo.CreateOrder(ctx, draft)
}

// DriverHome builds the driver-app projection for one driver.
func (uc *FleetUC) DriverHome(ctx context.Context, driverID string) (models.DriverView, error) {
	driver, err := uc.repo.Driver(ctx, driverID)
	if err != nil {
		return models.DriverView{}, err
	}

	snap := uc.repo.Snapshot(ctx)
	orders := activeOrdersFor(snap, driverID)

	view := models.DriverView{
		Driver: driver,
		Orders: orders,
	}
	if len(orders) > 0 {
		active := orders[0]
		view.ActiveOrder = &active
	}

	runningOrder, running := uc.engine.Running(driverID)
	view.Simulating = running
	if t, ok := uc.engine.Telemetry(driverID); ok {
		view.Telemetry = &t
	}

	frame := models.MapFrame{
		Center: driver.CurrentLocation,
		Zoom:   driverMapZoom,
		Markers: []models.Marker{{
			ID:       driver.ID,
			Position: driver.CurrentLocation,
			Label:    "Sua Posição",
			Kind:     models.MarkerTruck,
			Geohash:  utils.EncodeLocation(driver.CurrentLocation, markerGeohashPrecision),
		}},
	}
	if view.ActiveOrder != nil {
		dest := view.ActiveOrder.Destination.Coords
		frame.Markers = append(frame.Markers, models.Marker{
			ID:       "dest-" + view.ActiveOrder.ID,
			Position: dest,
			Label:    "Entrega Final",
			Kind:     models.MarkerDestination,
			Geohash:  utils.EncodeLocation(dest, markerGeohashPrecision),
		})
		if running && runningOrder == view.ActiveOrder.ID {
			frame.Route = &models.RouteHint{Start: driver.CurrentLocation, End: dest}
		}
	}
	view.Frame = frame

	return view, nil
}

// StartRoute begins simulating the driver's active order. Starting is
// idempotent per driver; a different active order supersedes a running one.
func (uc *FleetUC) StartRoute(ctx context.Context, driverID string) error {
	driver, err := uc.repo.Driver(ctx, driverID)
	if err != nil {
		return err
	}
	if !driver.IsOnline {
		return fleet.ErrDriverOffline
	}

	orders := activeOrdersFor(uc.repo.Snapshot(ctx), driverID)
	if len(orders) == 0 {
		return fleet.ErrNoActiveOrder
	}

	uc.engine.Start(orders[0].ID, driverID)
	return nil
}

// StopRoute cancels the driver's running simulation, if any.
func (uc *FleetUC) StopRoute(ctx context.Context, driverID string) error {
	if _, err := uc.repo.Driver(ctx, driverID); err != nil {
		return err
	}
	uc.engine.Stop(driverID)
	return nil
}

// ConfirmDelivery marks the driver's active order as delivered and cancels
// any running simulation for the driver.
func (uc *FleetUC) ConfirmDelivery(ctx context.Context, driverID string) error {
	orders := activeOrdersFor(uc.repo.Snapshot(ctx), driverID)
	if len(orders) == 0 {
		return fleet.ErrNoActiveOrder
	}

	uc.engine.Stop(driverID)

	delivered := models.OrderStatusDelivered
	return uc.repo.UpdateOrder(ctx, orders[0].ID, models.OrderPatch{Status: &delivered})
}

// ToggleDriverOnline flips the driver's online flag. Going offline cancels
// any simulation bound to the driver.
func (uc *FleetUC) ToggleDriverOnline(ctx context.Context, driverID string) (bool, error) {
	online, err := uc.repo.ToggleDriverOnline(ctx, driverID)
	if err != nil {
		return false, err
	}
	if !online {
		uc.engine.Stop(driverID)
	}
	return online, nil
}

// TrackOrder looks up one order by tracking code (case-insensitive) and
// builds the customer projection. A miss returns fleet.ErrOrderNotFound.
func (uc *FleetUC) TrackOrder(ctx context.Context, trackingCode string) (models.TrackingView, error) {
	order, err := uc.repo.OrderByTrackingCode(ctx, trackingCode)
	if err != nil {
		return models.TrackingView{}, err
	}

	snap := uc.repo.Snapshot(ctx)

	view := models.TrackingView{Order: order}
	if order.DriverID != "" {
		if driver, ok := snap.Driver(order.DriverID); ok {
			loc := driver.CurrentLocation
			view.DriverLocation = &loc
			if t, ok := uc.engine.Telemetry(order.DriverID); ok && t.OrderID == order.ID {
				view.Telemetry = &t
			}
		}
	}

	view.Estimate = uc.deliveryEstimate(ctx, order, view.DriverLocation)

	dest := order.Destination.Coords
	frame := models.MapFrame{Center: dest, Zoom: trackingMapZoom}
	if view.DriverLocation != nil {
		frame.Center = *view.DriverLocation
		frame.Markers = append(frame.Markers, models.Marker{
			ID:       "truck-" + order.ID,
			Position: *view.DriverLocation,
			Label:    "Seu Pedido",
			Kind:     models.MarkerTruck,
			Geohash:  utils.EncodeLocation(*view.DriverLocation, markerGeohashPrecision),
		})
	}
	frame.Markers = append(frame.Markers, models.Marker{
		ID:       "dest-" + order.ID,
		Position: dest,
		Label:    "Destino",
		Kind:     models.MarkerDestination,
		Geohash:  utils.EncodeLocation(dest, markerGeohashPrecision),
	})
	view.Frame = frame

	return view, nil
}

// deliveryEstimate fetches the customer-facing estimate for an order,
// caching per request token (order id + status + driver latitude). A
// response that comes back after the order changed is discarded.
func (uc *FleetUC) deliveryEstimate(ctx context.Context, order models.Order, loc *models.LatLng) models.Insight {
	key := estimateKey(order, loc)

	uc.estMu.Lock()
	if e, ok := uc.estimates[order.ID]; ok && e.key == key {
		uc.estMu.Unlock()
		return e.insight
	}
	uc.estMu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, uc.insightTimeout())
	defer cancel()

	ins, err := uc.insight.DeliveryEstimate(callCtx, order.Status, order.Destination.Address, loc)
	if err != nil {
		logger.Warn("delivery estimate unavailable, using fallback",
			logger.String("order_id", order.ID),
			logger.Err(err))
		return models.Insight{Text: deliveryEstimateFallback, References: []models.InsightReference{}}
	}

	if curKey, ok := uc.currentEstimateKey(ctx, order.ID); !ok || curKey != key {
		logger.Debug("discarding stale delivery estimate",
			logger.String("order_id", order.ID))
		return models.Insight{Text: deliveryEstimateFallback, References: []models.InsightReference{}}
	}

	uc.estMu.Lock()
	uc.estimates[order.ID] = estimateEntry{key: key, insight: ins}
	uc.estMu.Unlock()
	return ins
}

// currentEstimateKey recomputes the request token from the freshest state.
func (uc *FleetUC) currentEstimateKey(ctx context.Context, orderID string) (string, bool) {
	snap := uc.repo.Snapshot(ctx)
	order, ok := snap.Order(orderID)
	if !ok {
		return "", false
	}
	var loc *models.LatLng
	if order.DriverID != "" {
		if driver, ok := snap.Driver(order.DriverID); ok {
			l := driver.CurrentLocation
			loc = &l
		}
	}
	return estimateKey(order, loc), true
}

func estimateKey(order models.Order, loc *models.LatLng) string {
	if loc == nil {
		return fmt.Sprintf("%s|%s|-", order.ID, order.Status)
	}
	return fmt.Sprintf("%s|%s|%.6f", order.ID, order.Status, loc.Lat)
}

// handleArrival runs when a simulated route reaches its destination: the
// order is marked delivered through the store.
func (uc *FleetUC) handleArrival(orderID, driverID string) {
	logger.Info("route arrived at destination",
		logger.String("order_id", orderID),
		logger.String("driver_id", driverID))

	delivered := models.OrderStatusDelivered
	if err := uc.repo.UpdateOrder(context.Background(), orderID, models.OrderPatch{Status: &delivered}); err != nil {
		logger.Error("failed to mark order delivered on arrival",
			logger.String("order_id", orderID),
			logger.Err(err))
	}
}

// pushFrame forwards the operations frame to the mapping surface on every
// store change. An unready surface is ordinary unavailability; the next
// snapshot retries naturally.
func (uc *FleetUC) pushFrame(snap models.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := uc.mapGW.PushFrame(ctx, uc.opsFrame(snap)); err != nil {
		if errors.Is(err, fleet.ErrSurfaceNotReady) {
			logger.Debug("map surface not ready, frame skipped")
			return
		}
		logger.Warn("failed to push map frame", logger.Err(err))
	}
}

// opsFrame builds the fleet-wide frame: online drivers plus destinations of
// in-transit orders.
func (uc *FleetUC) opsFrame(snap models.Snapshot) models.MapFrame {
	frame := models.MapFrame{
		Center: models.LatLng{Lat: uc.cfg.Ops.MapCenterLat, Lng: uc.cfg.Ops.MapCenterLng},
		Zoom:   uc.cfg.Ops.MapZoom,
	}
	for _, d := range snap.Drivers {
		if !d.IsOnline {
			continue
		}
		frame.Markers = append(frame.Markers, models.Marker{
			ID:       d.ID,
			Position: d.CurrentLocation,
			Label:    fmt.Sprintf("Motorista: %s (%s)", d.Name, d.VehiclePlate),
			Kind:     models.MarkerTruck,
			Geohash:  utils.EncodeLocation(d.CurrentLocation, markerGeohashPrecision),
		})
	}
	for _, o := range snap.Orders {
		if o.Status != models.OrderStatusInTransit {
			continue
		}
		frame.Markers = append(frame.Markers, models.Marker{
			ID:       "dest-" + o.ID,
			Position: o.Destination.Coords,
			Label:    "Destino: " + o.CustomerName,
			Kind:     models.MarkerDestination,
			Geohash:  utils.EncodeLocation(o.Destination.Coords, markerGeohashPrecision),
		})
	}
	return frame
}

// activeOrdersFor lists a driver's not-yet-finished orders in snapshot
// order.
func activeOrdersFor(snap models.Snapshot, driverID string) []models.Order {
	var orders []models.Order
	for _, o := range snap.Orders {
		if o.DriverID == driverID && !o.Status.Terminal() {
			orders = append(orders, o)
		}
	}
	return orders
}

func (uc *FleetUC) insightTimeout() time.Duration {
	if uc.cfg.Insight.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(uc.cfg.Insight.TimeoutSeconds) * time.Second
}
