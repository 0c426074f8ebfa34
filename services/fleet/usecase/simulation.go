package usecase

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/tmsflow/fleettrack/internal/pkg/logger"
	"github.com/tmsflow/fleettrack/internal/pkg/models"
	"github.com/tmsflow/fleettrack/internal/utils"
	"github.com/tmsflow/fleettrack/services/fleet"
)

// Engine advances drivers toward their order destinations on a fixed tick
// and derives live telemetry. At most one route runs per driver; starting a
// different order for a busy driver supersedes the running one.
type Engine struct {
	repo      fleet.FleetRepo
	cfg       models.SimConfig
	onArrival func(orderID, driverID string)

	mu      sync.Mutex
	workers map[string]*routeWorker

	telMu     sync.RWMutex
	telemetry map[string]models.Telemetry
}

type routeWorker struct {
	orderID string
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewEngine creates a simulation engine. onArrival is invoked once per
// finished route, after the driver position has been snapped to the target
// and the worker has been released.
func NewEngine(repo fleet.FleetRepo, cfg models.SimConfig, onArrival func(orderID, driverID string)) *Engine {
	if cfg.TickMillis <= 0 {
		cfg.TickMillis = 1000
	}
	if cfg.StepDegrees <= 0 {
		cfg.StepDegrees = 0.0005
	}
	if cfg.ArrivalEpsilon <= 0 {
		cfg.ArrivalEpsilon = 0.001
	}
	return &Engine{
		repo:      repo,
		cfg:       cfg,
		onArrival: onArrival,
		workers:   make(map[string]*routeWorker),
		telemetry: make(map[string]models.Telemetry),
	}
}

// Start launches a route simulation for the (order, driver) pair. Starting
// the same pair again is a no-op; a different order for the same driver
// cancels the running route first.
func (e *Engine) Start(orderID, driverID string) {
	for {
		e.mu.Lock()
		w, ok := e.workers[driverID]
		if !ok {
			break
		}
		if w.orderID == orderID {
			e.mu.Unlock()
			return
		}
		// Supersede: cancel outside the lock, the worker needs it to exit.
		delete(e.workers, driverID)
		e.mu.Unlock()
		w.cancel()
		<-w.done
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &routeWorker{
		orderID: orderID,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	e.workers[driverID] = w
	e.mu.Unlock()

	logger.Info("route simulation started",
		logger.String("driver_id", driverID),
		logger.String("order_id", orderID))

	go e.run(ctx, w, driverID)
}

// Stop cancels the driver's route, if any. It returns only after the worker
// has fully exited, so no position write can happen afterwards.
func (e *Engine) Stop(driverID string) {
	e.mu.Lock()
	w, ok := e.workers[driverID]
	if ok {
		delete(e.workers, driverID)
	}
	e.mu.Unlock()

	if !ok {
		return
	}
	w.cancel()
	<-w.done

	e.telMu.Lock()
	delete(e.telemetry, driverID)
	e.telMu.Unlock()

	logger.Info("route simulation stopped", logger.String("driver_id", driverID))
}

// StopAll cancels every running route. Used during shutdown.
func (e *Engine) StopAll() {
	e.mu.Lock()
	workers := make(map[string]*routeWorker, len(e.workers))
	for id, w := range e.workers {
		workers[id] = w
		delete(e.workers, id)
	}
	e.mu.Unlock()

	for _, w := range workers {
		w.cancel()
		<-w.done
	}
}

// Running reports the order currently simulated for the driver, if any.
func (e *Engine) Running(driverID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, ok := e.workers[driverID]
	if !ok {
		return "", false
	}
	return w.orderID, true
}

// Telemetry returns the last derived readout for the driver, if any.
func (e *Engine) Telemetry(driverID string) (models.Telemetry, bool) {
	e.telMu.RLock()
	defer e.telMu.RUnlock()
	t, ok := e.telemetry[driverID]
	return t, ok
}

func (e *Engine) run(ctx context.Context, w *routeWorker, driverID string) {
	defer close(w.done)

	ticker := time.NewTicker(time.Duration(e.cfg.TickMillis) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			arrived, stop := e.step(ctx, w, driverID)
			if arrived {
				e.release(driverID, w)
				if e.onArrival != nil {
					e.onArrival(w.orderID, driverID)
				}
				return
			}
			if stop {
				e.release(driverID, w)
				return
			}
		}
	}
}

// step performs one tick: read state, move the driver, refresh telemetry.
func (e *Engine) step(ctx context.Context, w *routeWorker, driverID string) (arrived, stop bool) {
	snap := e.repo.Snapshot(ctx)

	driver, ok := snap.Driver(driverID)
	if !ok {
		return false, true
	}
	order, ok := snap.Order(w.orderID)
	if !ok || order.Status.Terminal() {
		return false, true
	}

	current := driver.CurrentLocation
	target := order.Destination.Coords
	dist := utils.DegreeDistance(current, target)

	if dist < e.cfg.ArrivalEpsilon {
		// Snap exactly onto the target and zero the readout.
		if err := e.repo.UpdateDriverLocation(ctx, driverID, target); err != nil {
			logger.Error("failed to write arrival position",
				logger.String("driver_id", driverID),
				logger.Err(err))
		}
		e.setTelemetry(driverID, models.Telemetry{
			DriverID:  driverID,
			OrderID:   w.orderID,
			UpdatedAt: time.Now(),
		})
		return true, false
	}

	next := utils.StepToward(current, target, e.cfg.StepDegrees)
	if err := e.repo.UpdateDriverLocation(ctx, driverID, next); err != nil {
		logger.Error("failed to write simulated position",
			logger.String("driver_id", driverID),
			logger.Err(err))
		return false, true
	}

	e.refreshTelemetry(driverID, w.orderID, next, target)
	return false, false
}

// refreshTelemetry derives the per-tick readout. Speed is a bounded random
// walk for display only; ETA and distance come from the remaining path and
// shrink monotonically until arrival.
func (e *Engine) refreshTelemetry(driverID, orderID string, position, target models.LatLng) {
	remaining := utils.DegreeDistance(position, target)
	ticksLeft := math.Ceil(remaining / e.cfg.StepDegrees)
	etaSeconds := int(ticksLeft * float64(e.cfg.TickMillis) / 1000.0)

	e.telMu.Lock()
	defer e.telMu.Unlock()

	prev, ok := e.telemetry[driverID]
	speed := prev.SpeedKmh
	if !ok || speed == 0 {
		speed = (e.cfg.SpeedMinKmh + e.cfg.SpeedMaxKmh) / 2
	}
	speed += (rand.Float64()*2 - 1) * e.cfg.SpeedJitterKmh
	speed = math.Max(e.cfg.SpeedMinKmh, math.Min(e.cfg.SpeedMaxKmh, speed))

	e.telemetry[driverID] = models.Telemetry{
		DriverID:   driverID,
		OrderID:    orderID,
		SpeedKmh:   speed,
		ETASeconds: etaSeconds,
		DistanceKm: utils.HaversineKm(position, target),
		UpdatedAt:  time.Now(),
	}
}

func (e *Engine) setTelemetry(driverID string, t models.Telemetry) {
	e.telMu.Lock()
	defer e.telMu.Unlock()
	e.telemetry[driverID] = t
}

// release drops the worker entry if it is still the registered one. A
// concurrent Stop or supersede may already have removed it.
func (e *Engine) release(driverID string, w *routeWorker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cur, ok := e.workers[driverID]; ok && cur == w {
		delete(e.workers, driverID)
	}
}
