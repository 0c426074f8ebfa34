package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tmsflow/fleettrack/internal/pkg/logger"
	"github.com/tmsflow/fleettrack/internal/pkg/models"
	"github.com/tmsflow/fleettrack/internal/utils"
	"github.com/tmsflow/fleettrack/services/fleet"
)

// FleetHandler handles HTTP requests for the three role views
type FleetHandler struct {
	fleetUC fleet.FleetUC
}

// NewFleetHandler creates a new fleet HTTP handler
func NewFleetHandler(fleetUC fleet.FleetUC) *FleetHandler {
	return &FleetHandler{fleetUC: fleetUC}
}

// OpsOverview returns the operations-console projection
func (h *FleetHandler) OpsOverview(c echo.Context) error {
	view := h.fleetUC.OpsOverview(c.Request().Context())
	return utils.SuccessResponse(c, http.StatusOK, "Fleet overview", view)
}

// FleetInsight returns the generated fleet optimization report
func (h *FleetHandler) FleetInsight(c echo.Context) error {
	insight := h.fleetUC.FleetInsight(c.Request().Context())
	return utils.SuccessResponse(c, http.StatusOK, "Fleet insight", insight)
}

type createOrderRequest struct {
	CustomerName string          `json:"customer_name"`
	DriverID     string          `json:"driver_id"`
	Pickup       models.Waypoint `json:"pickup"`
	Destination  models.Waypoint `json:"destination"`
}

// CreateOrder registers a new order
func (h *FleetHandler) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", logger.Err(err))
		return utils.BadRequestResponse(c, "invalid request body")
	}
	if req.CustomerName == "" {
		return utils.BadRequestResponse(c, "customer_name is required")
	}
	if !req.Pickup.Coords.Valid() || !req.Destination.Coords.Valid() {
		return utils.BadRequestResponse(c, "pickup and destination coordinates must be valid")
	}

	order, err := h.fleetUC.CreateOrder(c.Request().Context(), models.Order{
		CustomerName: req.CustomerName,
		DriverID:     req.DriverID,
		Pickup:       req.Pickup,
		Destination:  req.Destination,
	})
	if err != nil {
		return h.mapError(c, err, "failed to create order")
	}
	return utils.SuccessResponse(c, http.StatusCreated, "Order created", order)
}

// DriverHome returns the driver-app projection
func (h *FleetHandler) DriverHome(c echo.Context) error {
	driverID := c.Param("id")
	if driverID == "" {
		return utils.BadRequestResponse(c, "driver_id is required")
	}

	view, err := h.fleetUC.DriverHome(c.Request().Context(), driverID)
	if err != nil {
		return h.mapError(c, err, "failed to load driver view")
	}
	return utils.SuccessResponse(c, http.StatusOK, "Driver view", view)
}

// ToggleOnline flips the driver's online flag
func (h *FleetHandler) ToggleOnline(c echo.Context) error {
	driverID := c.Param("id")
	if driverID == "" {
		return utils.BadRequestResponse(c, "driver_id is required")
	}

	online, err := h.fleetUC.ToggleDriverOnline(c.Request().Context(), driverID)
	if err != nil {
		return h.mapError(c, err, "failed to toggle driver status")
	}
	return utils.SuccessResponse(c, http.StatusOK, "Driver status updated", map[string]bool{"is_online": online})
}

// StartRoute begins simulating the driver's active order
func (h *FleetHandler) StartRoute(c echo.Context) error {
	driverID := c.Param("id")
	if driverID == "" {
		return utils.BadRequestResponse(c, "driver_id is required")
	}

	if err := h.fleetUC.StartRoute(c.Request().Context(), driverID); err != nil {
		return h.mapError(c, err, "failed to start route")
	}
	return utils.SuccessResponse(c, http.StatusOK, "Route started", map[string]string{"status": "simulating"})
}

// StopRoute cancels the driver's running simulation
func (h *FleetHandler) StopRoute(c echo.Context) error {
	driverID := c.Param("id")
	if driverID == "" {
		return utils.BadRequestResponse(c, "driver_id is required")
	}

	if err := h.fleetUC.StopRoute(c.Request().Context(), driverID); err != nil {
		return h.mapError(c, err, "failed to stop route")
	}
	return utils.SuccessResponse(c, http.StatusOK, "Route stopped", map[string]string{"status": "idle"})
}

// ConfirmDelivery marks the driver's active order as delivered
func (h *FleetHandler) ConfirmDelivery(c echo.Context) error {
	driverID := c.Param("id")
	if driverID == "" {
		return utils.BadRequestResponse(c, "driver_id is required")
	}

	if err := h.fleetUC.ConfirmDelivery(c.Request().Context(), driverID); err != nil {
		return h.mapError(c, err, "failed to confirm delivery")
	}
	return utils.SuccessResponse(c, http.StatusOK, "Delivery confirmed", map[string]string{"status": string(models.OrderStatusDelivered)})
}

// TrackOrder looks up one order by tracking code
func (h *FleetHandler) TrackOrder(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return utils.BadRequestResponse(c, "tracking code is required")
	}

	view, err := h.fleetUC.TrackOrder(c.Request().Context(), code)
	if err != nil {
		if errors.Is(err, fleet.ErrOrderNotFound) {
			return utils.NotFoundResponse(c, "no such order")
		}
		return h.mapError(c, err, "failed to track order")
	}
	return utils.SuccessResponse(c, http.StatusOK, "Order found", view)
}

// mapError translates use case errors into HTTP responses.
func (h *FleetHandler) mapError(c echo.Context, err error, fallbackMsg string) error {
	switch {
	case errors.Is(err, fleet.ErrOrderNotFound):
		return utils.NotFoundResponse(c, "order not found")
	case errors.Is(err, fleet.ErrDriverNotFound):
		return utils.NotFoundResponse(c, "driver not found")
	case errors.Is(err, fleet.ErrInvalidTransition):
		return utils.ConflictResponse(c, "order status cannot move that way")
	case errors.Is(err, fleet.ErrTrackingCodeTaken):
		return utils.ConflictResponse(c, "tracking code already in use")
	case errors.Is(err, fleet.ErrDriverOffline):
		return utils.ConflictResponse(c, "driver is offline")
	case errors.Is(err, fleet.ErrNoActiveOrder):
		return utils.ConflictResponse(c, "driver has no active order")
	default:
		logger.Error(fallbackMsg, logger.Err(err))
		return utils.InternalServerErrorResponse(c, fallbackMsg)
	}
}
