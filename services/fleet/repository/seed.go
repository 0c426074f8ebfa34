package repository

import (
	"time"

	"github.com/tmsflow/fleettrack/internal/pkg/models"
)

// SeedDrivers returns the demo fleet.
func SeedDrivers() []models.Driver {
	return []models.Driver{
		{
			ID:              "d1",
			Name:            "Carlos Oliveira",
			VehiclePlate:    "BRA-2E19",
			IsOnline:        true,
			CurrentLocation: models.LatLng{Lat: -23.5505, Lng: -46.6333},
		},
		{
			ID:              "d2",
			Name:            "Ana Souza",
			VehiclePlate:    "KRT-4412",
			IsOnline:        true,
			CurrentLocation: models.LatLng{Lat: -23.5555, Lng: -46.6395},
		},
	}
}

// SeedOrders returns the demo orders, stamped with the given time.
func SeedOrders(now time.Time) []models.Order {
	return []models.Order{
		{
			ID:           "o1",
			TrackingCode: "B2B-7721-XP",
			CustomerName: "LogiCorp S.A.",
			Status:       models.OrderStatusInTransit,
			DriverID:     "d1",
			Pickup: models.Waypoint{
				Address: "Centro de Distribuição Norte",
				Coords:  models.LatLng{Lat: -23.5329, Lng: -46.6395},
			},
			Destination: models.Waypoint{
				Address: "Avenida Paulista, 1000, São Paulo",
				Coords:  models.LatLng{Lat: -23.5611, Lng: -46.6559},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:           "o2",
			TrackingCode: "B2B-9942-LX",
			CustomerName: "TechParts Ltda",
			Status:       models.OrderStatusPending,
			DriverID:     "d2",
			Pickup: models.Waypoint{
				Address: "Galpão Principal",
				Coords:  models.LatLng{Lat: -23.5489, Lng: -46.6388},
			},
			Destination: models.Waypoint{
				Address: "Rua Augusta, 500, São Paulo",
				Coords:  models.LatLng{Lat: -23.5532, Lng: -46.6521},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
