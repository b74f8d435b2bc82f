package domain

import "time"

// Trip is a scheduled bus run on a route.
type Trip struct {
	ID            int64
	RouteID       int64
	BusID         int64
	DriverID      int64
	DepartureTime time.Time
	ArrivalTime   time.Time
	DepartureDate time.Time
	Price         float64
	BookedSeats   int
}

// ResourceKind names an entity owned by another service that trips reference.
type ResourceKind string

const (
	ResourceRoute  ResourceKind = "route"
	ResourceBus    ResourceKind = "bus"
	ResourceDriver ResourceKind = "driver"
)
