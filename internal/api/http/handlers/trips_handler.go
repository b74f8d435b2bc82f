package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transit-services/internal/api/dto"
	"github.com/spec-kit/transit-services/internal/auth"
	"github.com/spec-kit/transit-services/internal/collaborator"
	"github.com/spec-kit/transit-services/internal/domain"
	"github.com/spec-kit/transit-services/internal/service"
)

// TripsHandler exposes trip CRUD and search.
type TripsHandler struct {
	trips *service.TripService
}

// NewTripsHandler constructs handler.
func NewTripsHandler(trips *service.TripService) *TripsHandler {
	return &TripsHandler{trips: trips}
}

// Create handles POST /trips.
func (h *TripsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTripRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	actor, _ := auth.IdentityFromContext(c)
	trip, err := h.trips.Create(forwardedContext(c), service.TripInput{
		RouteID:       req.RouteID,
		BusID:         req.BusID,
		DriverID:      req.DriverID,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		DepartureDate: dto.DatePtr(req.DepartureDate),
		Price:         req.Price,
	}, actor)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewTripResponse(trip))
}

// Update handles PUT /trips/:id.
func (h *TripsHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTripRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	actor, _ := auth.IdentityFromContext(c)
	trip, err := h.trips.Update(forwardedContext(c), id, service.TripPatch{
		RouteID:       req.RouteID,
		BusID:         req.BusID,
		DriverID:      req.DriverID,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		DepartureDate: dto.DatePtr(req.DepartureDate),
		Price:         req.Price,
	}, actor)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTripResponse(trip))
}

// Delete handles DELETE /trips/:id.
func (h *TripsHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	actor, _ := auth.IdentityFromContext(c)
	if err := h.trips.Delete(c.UserContext(), id, actor); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Get handles GET /trips/:id.
func (h *TripsHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	trip, err := h.trips.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTripResponse(trip))
}

// List handles GET /trips.
func (h *TripsHandler) List(c *fiber.Ctx) error {
	trips, err := h.trips.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(tripResponses(trips))
}

// Search handles GET /trips/search?route_id=&departure_date=.
func (h *TripsHandler) Search(c *fiber.Ctx) error {
	var q dto.TripSearchQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	trips, err := h.trips.Search(c.UserContext(), q.RouteID, q.DepartureDate)
	if err != nil {
		return err
	}
	return c.JSON(tripResponses(trips))
}

// forwardedContext carries the caller's bearer so the driver lookup runs
// with the caller's own authority.
func forwardedContext(c *fiber.Ctx) context.Context {
	return collaborator.WithForwardedAuth(c.UserContext(), c.Get(fiber.HeaderAuthorization))
}

func tripResponses(trips []domain.Trip) []dto.TripResponse {
	out := make([]dto.TripResponse, 0, len(trips))
	for i := range trips {
		out = append(out, dto.NewTripResponse(&trips[i]))
	}
	return out
}
