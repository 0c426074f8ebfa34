package handler

import (
	"github.com/labstack/echo/v4"
	ws "github.com/tmsflow/fleettrack/internal/pkg/websocket"
	"github.com/tmsflow/fleettrack/services/fleet"
	httpHandler "github.com/tmsflow/fleettrack/services/fleet/handler/http"
)

// HTTPHandler combines the HTTP and WebSocket surfaces of the fleet service
type HTTPHandler struct {
	fleetHTTP *httpHandler.FleetHandler
	wsManager *ws.Manager
}

// NewHTTPHandler creates a new combined handler
func NewHTTPHandler(fleetUC fleet.FleetUC, wsManager *ws.Manager) *HTTPHandler {
	return &HTTPHandler{
		fleetHTTP: httpHandler.NewFleetHandler(fleetUC),
		wsManager: wsManager,
	}
}

// RegisterRoutes registers all HTTP routes
func (h *HTTPHandler) RegisterRoutes(e *echo.Echo) {
	// Operations console
	ops := e.Group("/ops")
	ops.GET("/overview", h.fleetHTTP.OpsOverview)
	ops.GET("/insight", h.fleetHTTP.FleetInsight)

	// Orders
	e.POST("/orders", h.fleetHTTP.CreateOrder)

	// Driver app
	drivers := e.Group("/drivers")
	drivers.GET("/:id/home", h.fleetHTTP.DriverHome)
	drivers.POST("/:id/online", h.fleetHTTP.ToggleOnline)
	drivers.POST("/:id/route/start", h.fleetHTTP.StartRoute)
	drivers.POST("/:id/route/stop", h.fleetHTTP.StopRoute)
	drivers.POST("/:id/delivery/confirm", h.fleetHTTP.ConfirmDelivery)

	// Customer tracker
	e.GET("/track/:code", h.fleetHTTP.TrackOrder)

	// Live map surface feed
	e.GET("/ws/map", h.wsManager.HandleConnection)
}
