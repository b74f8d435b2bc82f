package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/transit-services/internal/domain"
	"github.com/spec-kit/transit-services/internal/events"
	"github.com/spec-kit/transit-services/internal/repository"
	apperrors "github.com/spec-kit/transit-services/pkg/util/errorutil"
)

// DateLayout is the wire format of departure dates.
const DateLayout = "2006-01-02"

// ResourceChecker confirms route, bus and driver ids with their owners.
type ResourceChecker interface {
	Exists(ctx context.Context, kind domain.ResourceKind, id int64) (bool, error)
}

// TripInput carries the fields of a new trip. DepartureDate defaults to
// the calendar date of DepartureTime.
type TripInput struct {
	RouteID       int64
	BusID         int64
	DriverID      int64
	DepartureTime time.Time
	ArrivalTime   time.Time
	DepartureDate *time.Time
	Price         float64
}

// TripPatch holds optional updates; nil fields are left alone.
type TripPatch struct {
	RouteID       *int64
	BusID         *int64
	DriverID      *int64
	DepartureTime *time.Time
	ArrivalTime   *time.Time
	DepartureDate *time.Time
	Price         *float64
}

// TripService manages trips and validates their references.
type TripService struct {
	trips      repository.TripRepository
	resources  ResourceChecker
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewTripService builds the service.
func NewTripService(trips repository.TripRepository, resources ResourceChecker, dispatcher events.Dispatcher, logger *zap.Logger) *TripService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TripService{trips: trips, resources: resources, dispatcher: dispatcher, logger: logger}
}

// Create validates references and stores a new trip.
func (s *TripService) Create(ctx context.Context, in TripInput, actor domain.Identity) (*domain.Trip, error) {
	trip := &domain.Trip{
		RouteID:       in.RouteID,
		BusID:         in.BusID,
		DriverID:      in.DriverID,
		DepartureTime: in.DepartureTime,
		ArrivalTime:   in.ArrivalTime,
		Price:         in.Price,
	}
	if in.DepartureDate != nil {
		trip.DepartureDate = dateOf(*in.DepartureDate)
	} else {
		trip.DepartureDate = dateOf(in.DepartureTime)
	}
	if err := validateSchedule(trip); err != nil {
		return nil, err
	}

	checks := []reference{
		{domain.ResourceRoute, trip.RouteID},
		{domain.ResourceBus, trip.BusID},
		{domain.ResourceDriver, trip.DriverID},
	}
	if err := s.ensureExists(ctx, checks); err != nil {
		return nil, err
	}

	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, tripWriteError(err)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventTripCreated, trip.ID, events.ActorFromIdentity(actor), tripPayload(trip)))
	return trip, nil
}

// Update applies patch, validating only the references it changes.
func (s *TripService) Update(ctx context.Context, id int64, patch TripPatch, actor domain.Identity) (*domain.Trip, error) {
	trip, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var checks []reference
	if patch.RouteID != nil {
		trip.RouteID = *patch.RouteID
		checks = append(checks, reference{domain.ResourceRoute, *patch.RouteID})
	}
	if patch.BusID != nil {
		trip.BusID = *patch.BusID
		checks = append(checks, reference{domain.ResourceBus, *patch.BusID})
	}
	if patch.DriverID != nil {
		trip.DriverID = *patch.DriverID
		checks = append(checks, reference{domain.ResourceDriver, *patch.DriverID})
	}
	if patch.DepartureTime != nil {
		trip.DepartureTime = *patch.DepartureTime
	}
	if patch.ArrivalTime != nil {
		trip.ArrivalTime = *patch.ArrivalTime
	}
	if patch.DepartureDate != nil {
		trip.DepartureDate = dateOf(*patch.DepartureDate)
	}
	if patch.Price != nil {
		trip.Price = *patch.Price
	}
	if err := validateSchedule(trip); err != nil {
		return nil, err
	}
	if err := s.ensureExists(ctx, checks); err != nil {
		return nil, err
	}

	if err := s.trips.Update(ctx, trip); err != nil {
		return nil, tripWriteError(err)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventTripUpdated, trip.ID, events.ActorFromIdentity(actor), tripPayload(trip)))
	return trip, nil
}

// Delete removes a trip.
func (s *TripService) Delete(ctx context.Context, id int64, actor domain.Identity) error {
	if err := s.trips.Delete(ctx, id); err != nil {
		return tripWriteError(err)
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventTripDeleted, id, events.ActorFromIdentity(actor), nil))
	return nil
}

// Get returns one trip.
func (s *TripService) Get(ctx context.Context, id int64) (*domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("trip", nil)
		}
		return nil, err
	}
	return trip, nil
}

// List returns all trips.
func (s *TripService) List(ctx context.Context) ([]domain.Trip, error) {
	return s.trips.List(ctx)
}

// Search finds the trips of a route on a date given as YYYY-MM-DD.
func (s *TripService) Search(ctx context.Context, routeID int64, departureDate string) ([]domain.Trip, error) {
	day, err := time.Parse(DateLayout, departureDate)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date format, use YYYY-MM-DD", map[string]any{"departure_date": departureDate})
	}

	trips, err := s.trips.Search(ctx, routeID, day)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return nil, apperrors.NewDomainError("NOT_FOUND", "no trips found for this route and date", http.StatusNotFound, nil)
	}
	return trips, nil
}

type reference struct {
	kind domain.ResourceKind
	id   int64
}

func (s *TripService) ensureExists(ctx context.Context, refs []reference) error {
	for _, ref := range refs {
		ok, err := s.resources.Exists(ctx, ref.kind, ref.id)
		if err != nil {
			s.logger.Warn("reference check failed", zap.String("kind", string(ref.kind)), zap.Int64("id", ref.id), zap.Error(err))
			return upstreamError(fmt.Sprintf("%s service", ref.kind), err)
		}
		if !ok {
			return apperrors.NewNotFound(string(ref.kind), map[string]any{"id": ref.id})
		}
	}
	return nil
}

func validateSchedule(trip *domain.Trip) error {
	details := map[string]any{}
	if trip.DepartureTime.IsZero() {
		details["departure_time"] = "required"
	}
	if !trip.ArrivalTime.After(trip.DepartureTime) {
		details["arrival_time"] = "must be after departure_time"
	}
	if trip.Price < 0 {
		details["price"] = "must not be negative"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid trip", details)
	}
	return nil
}

func tripWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("a trip with this bus and departure time already exists", nil)
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("trip", nil)
	default:
		return err
	}
}

func tripPayload(trip *domain.Trip) events.TripPayload {
	return events.TripPayload{
		RouteID:       trip.RouteID,
		BusID:         trip.BusID,
		DriverID:      trip.DriverID,
		DepartureTime: trip.DepartureTime,
	}
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
