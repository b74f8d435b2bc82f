package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/transit-services/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserUpdated    EventType = "user_updated"
	EventUserDeleted    EventType = "user_deleted"
	EventTripCreated    EventType = "trip_created"
	EventTripUpdated    EventType = "trip_updated"
	EventTripDeleted    EventType = "trip_deleted"
)

// UserEvents and TripEvents group event types by owning service.
var (
	UserEvents = []EventType{EventUserRegistered, EventUserUpdated, EventUserDeleted}
	TripEvents = []EventType{EventTripCreated, EventTripUpdated, EventTripDeleted}
)

// Actor identifies who triggered an event. Email is empty for self-registration.
type Actor struct {
	Email string      `json:"email,omitempty"`
	Role  domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntityID  int64       `json:"entity_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, entityID int64, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		EntityID:  entityID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// ActorFromIdentity converts an authenticated caller.
func ActorFromIdentity(identity domain.Identity) Actor {
	return Actor{Email: identity.Email, Role: identity.Role}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// UserChangedPayload is used for updates and deletions.
type UserChangedPayload struct {
	ProfileID int64       `json:"profile_id"`
	Role      domain.Role `json:"role"`
	Fields    []string    `json:"fields,omitempty"`
}

// TripPayload payload.
type TripPayload struct {
	RouteID       int64     `json:"route_id"`
	BusID         int64     `json:"bus_id"`
	DriverID      int64     `json:"driver_id"`
	DepartureTime time.Time `json:"departure_time"`
}
