package fleet

import "errors"

var (
	// ErrOrderNotFound is returned when an order id or tracking code does
	// not match any stored order.
	ErrOrderNotFound = errors.New("order not found")

	// ErrDriverNotFound is returned when a driver id does not match any
	// stored driver.
	ErrDriverNotFound = errors.New("driver not found")

	// ErrInvalidTransition is returned when an order patch would move the
	// status backwards or out of a terminal state.
	ErrInvalidTransition = errors.New("illegal order status transition")

	// ErrTrackingCodeTaken is returned when creating an order whose
	// tracking code is already in use (codes are compared case-insensitively).
	ErrTrackingCodeTaken = errors.New("tracking code already in use")

	// ErrDriverOffline is returned when a route simulation is requested for
	// a driver who is not online.
	ErrDriverOffline = errors.New("driver is offline")

	// ErrNoActiveOrder is returned when a driver command needs an active
	// order and the driver has none.
	ErrNoActiveOrder = errors.New("driver has no active order")

	// ErrSurfaceNotReady signals that the mapping surface has no transport
	// attached yet. Callers treat it as ordinary unavailability and retry
	// on the next snapshot.
	ErrSurfaceNotReady = errors.New("map surface not ready")
)
