package dto

import (
	"time"

	"github.com/spec-kit/transit-services/internal/domain"
)

// CreateTripRequest payload. DepartureDate defaults to the day of DepartureTime.
type CreateTripRequest struct {
	RouteID       int64     `json:"route_id" validate:"required,gt=0"`
	BusID         int64     `json:"bus_id" validate:"required,gt=0"`
	DriverID      int64     `json:"driver_id" validate:"required,gt=0"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	DepartureDate *Date     `json:"departure_date"`
	Price         float64   `json:"price" validate:"gte=0"`
}

// UpdateTripRequest is a partial update.
type UpdateTripRequest struct {
	RouteID       *int64     `json:"route_id" validate:"omitempty,gt=0"`
	BusID         *int64     `json:"bus_id" validate:"omitempty,gt=0"`
	DriverID      *int64     `json:"driver_id" validate:"omitempty,gt=0"`
	DepartureTime *time.Time `json:"departure_time"`
	ArrivalTime   *time.Time `json:"arrival_time"`
	DepartureDate *Date      `json:"departure_date"`
	Price         *float64   `json:"price" validate:"omitempty,gte=0"`
}

// TripSearchQuery binds /trips/search.
type TripSearchQuery struct {
	RouteID       int64  `query:"route_id" json:"route_id" validate:"required,gt=0"`
	DepartureDate string `query:"departure_date" json:"departure_date" validate:"required"`
}

// TripResponse is the wire form of a trip.
type TripResponse struct {
	TripID        int64     `json:"trip_id"`
	RouteID       int64     `json:"route_id"`
	BusID         int64     `json:"bus_id"`
	DriverID      int64     `json:"driver_id"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	DepartureDate Date      `json:"departure_date"`
	Price         float64   `json:"price"`
	BookedSeats   int       `json:"booked_seats"`
}

// NewTripResponse maps a trip to its wire form.
func NewTripResponse(t *domain.Trip) TripResponse {
	return TripResponse{
		TripID:        t.ID,
		RouteID:       t.RouteID,
		BusID:         t.BusID,
		DriverID:      t.DriverID,
		DepartureTime: t.DepartureTime,
		ArrivalTime:   t.ArrivalTime,
		DepartureDate: NewDate(t.DepartureDate),
		Price:         t.Price,
		BookedSeats:   t.BookedSeats,
	}
}
