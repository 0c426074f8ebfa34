package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tmsflow/fleettrack/internal/pkg/logger"
	"github.com/tmsflow/fleettrack/internal/pkg/models"
	"github.com/tmsflow/fleettrack/services/fleet"
)

// Store is the in-memory source of truth for orders and drivers. A single
// mutex serializes all mutations so subscribers never observe a partially
// applied change; snapshots are deep copies and safe to retain.
type Store struct {
	mu        sync.RWMutex
	orders    map[string]*models.Order
	drivers   map[string]*models.Driver
	orderSeq  []string
	driverSeq []string
	subs      map[string]func(models.Snapshot)

	now func() time.Time
}

// NewStore creates a store seeded with the given orders and drivers.
func NewStore(orders []models.Order, drivers []models.Driver) *Store {
	s := &Store{
		orders:  make(map[string]*models.Order),
		drivers: make(map[string]*models.Driver),
		subs:    make(map[string]func(models.Snapshot)),
		now:     time.Now,
	}
	for i := range drivers {
		d := drivers[i]
		s.drivers[d.ID] = &d
		s.driverSeq = append(s.driverSeq, d.ID)
	}
	for i := range orders {
		o := orders[i]
		s.orders[o.ID] = &o
		s.orderSeq = append(s.orderSeq, o.ID)
	}
	return s
}

// CreateOrder adds a new order. A missing id or tracking code is generated;
// the tracking code must be unique (case-insensitive) and an assigned driver
// must exist.
func (s *Store) CreateOrder(ctx context.Context, draft models.Order) (models.Order, error) {
	s.mu.Lock()

	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	if _, exists := s.orders[draft.ID]; exists {
		s.mu.Unlock()
		return models.Order{}, fmt.Errorf("order id %s already exists", draft.ID)
	}
	if draft.TrackingCode == "" {
		draft.TrackingCode = generateTrackingCode()
	}
	if s.trackingCodeInUseLocked(draft.TrackingCode) {
		s.mu.Unlock()
		return models.Order{}, fleet.ErrTrackingCodeTaken
	}
	if draft.DriverID != "" {
		if _, ok := s.drivers[draft.DriverID]; !ok {
			s.mu.Unlock()
			return models.Order{}, fleet.ErrDriverNotFound
		}
	}
	if draft.Status == "" {
		draft.Status = models.OrderStatusPending
	}
	if !draft.Status.Valid() {
		s.mu.Unlock()
		return models.Order{}, fleet.ErrInvalidTransition
	}

	ts := s.now()
	draft.CreatedAt = ts
	draft.UpdatedAt = ts

	o := draft
	s.orders[o.ID] = &o
	s.orderSeq = append(s.orderSeq, o.ID)

	snap, subs := s.snapshotAndSubsLocked()
	s.mu.Unlock()

	notify(snap, subs)
	return draft, nil
}

// UpdateOrder merges the patch into the order, refreshes UpdatedAt and
// notifies subscribers. The order id is immutable by construction; status
// changes must follow the forward-only lifecycle.
func (s *Store) UpdateOrder(ctx context.Context, orderID string, patch models.OrderPatch) error {
	s.mu.Lock()

	o, ok := s.orders[orderID]
	if !ok {
		s.mu.Unlock()
		return fleet.ErrOrderNotFound
	}

	if patch.Status != nil && *patch.Status != o.Status {
		if !o.Status.CanTransition(*patch.Status) {
			s.mu.Unlock()
			return fleet.ErrInvalidTransition
		}
	}
	if patch.DriverID != nil && *patch.DriverID != "" {
		if _, ok := s.drivers[*patch.DriverID]; !ok {
			s.mu.Unlock()
			return fleet.ErrDriverNotFound
		}
	}

	if patch.CustomerName != nil {
		o.CustomerName = *patch.CustomerName
	}
	if patch.Status != nil {
		o.Status = *patch.Status
	}
	if patch.DriverID != nil {
		o.DriverID = *patch.DriverID
	}
	if patch.Pickup != nil {
		o.Pickup = *patch.Pickup
	}
	if patch.Destination != nil {
		o.Destination = *patch.Destination
	}

	// UpdatedAt never moves backwards, even with a skewed clock.
	if ts := s.now(); ts.After(o.UpdatedAt) {
		o.UpdatedAt = ts
	}

	snap, subs := s.snapshotAndSubsLocked()
	s.mu.Unlock()

	notify(snap, subs)
	return nil
}

// UpdateDriverLocation replaces the driver's current location.
func (s *Store) UpdateDriverLocation(ctx context.Context, driverID string, location models.LatLng) error {
	s.mu.Lock()

	d, ok := s.drivers[driverID]
	if !ok {
		s.mu.Unlock()
		return fleet.ErrDriverNotFound
	}
	d.CurrentLocation = location

	snap, subs := s.snapshotAndSubsLocked()
	s.mu.Unlock()

	notify(snap, subs)
	return nil
}

// ToggleDriverOnline flips the driver's online flag and returns the new
// value.
func (s *Store) ToggleDriverOnline(ctx context.Context, driverID string) (bool, error) {
	s.mu.Lock()

	d, ok := s.drivers[driverID]
	if !ok {
		s.mu.Unlock()
		return false, fleet.ErrDriverNotFound
	}
	d.IsOnline = !d.IsOnline
	online := d.IsOnline

	snap, subs := s.snapshotAndSubsLocked()
	s.mu.Unlock()

	notify(snap, subs)
	return online, nil
}

// Order returns a copy of the order with the given id.
func (s *Store) Order(ctx context.Context, orderID string) (models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return models.Order{}, fleet.ErrOrderNotFound
	}
	return *o, nil
}

// OrderByTrackingCode returns the order whose tracking code matches the
// given code, compared case-insensitively.
func (s *Store) OrderByTrackingCode(ctx context.Context, code string) (models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.orderSeq {
		if o := s.orders[id]; strings.EqualFold(o.TrackingCode, code) {
			return *o, nil
		}
	}
	return models.Order{}, fleet.ErrOrderNotFound
}

// Driver returns a copy of the driver with the given id.
func (s *Store) Driver(ctx context.Context, driverID string) (models.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drivers[driverID]
	if !ok {
		return models.Driver{}, fleet.ErrDriverNotFound
	}
	return *d, nil
}

// Snapshot returns a deep, consistent point-in-time copy of the whole state.
func (s *Store) Snapshot(ctx context.Context) models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers fn under key. Re-subscribing the same key replaces the
// previous function, so the operation is idempotent.
func (s *Store) Subscribe(key string, fn func(models.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[key] = fn
}

// Unsubscribe removes the subscription for key. Unknown keys are a no-op.
func (s *Store) Unsubscribe(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, key)
}

func (s *Store) snapshotLocked() models.Snapshot {
	snap := models.Snapshot{
		Orders:  make([]models.Order, 0, len(s.orderSeq)),
		Drivers: make([]models.Driver, 0, len(s.driverSeq)),
		TakenAt: s.now(),
	}
	for _, id := range s.orderSeq {
		snap.Orders = append(snap.Orders, *s.orders[id])
	}
	for _, id := range s.driverSeq {
		snap.Drivers = append(snap.Drivers, *s.drivers[id])
	}
	return snap
}

func (s *Store) snapshotAndSubsLocked() (models.Snapshot, []func(models.Snapshot)) {
	subs := make([]func(models.Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return s.snapshotLocked(), subs
}

func (s *Store) trackingCodeInUseLocked(code string) bool {
	for _, o := range s.orders {
		if strings.EqualFold(o.TrackingCode, code) {
			return true
		}
	}
	return false
}

// notify runs outside the store lock so subscribers may issue further store
// operations, but still completes before the triggering mutation returns.
func notify(snap models.Snapshot, subs []func(models.Snapshot)) {
	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("fleet store subscriber panicked", logger.Any("panic", r))
				}
			}()
			fn(snap)
		}()
	}
}

func generateTrackingCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("B2B-%s-%s", raw[:4], raw[4:6])
}
