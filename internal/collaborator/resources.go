package collaborator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spec-kit/transit-services/internal/domain"
)

// ResourceChecker confirms that entities owned by other services exist.
type ResourceChecker struct {
	client   *Client
	routeURL string
	busURL   string
	userURL  string
}

// NewResourceChecker wires the base URLs of route, bus and user services.
func NewResourceChecker(client *Client, routeURL, busURL, userURL string) *ResourceChecker {
	return &ResourceChecker{client: client, routeURL: routeURL, busURL: busURL, userURL: userURL}
}

// Exists reports whether the resource is present. A 404 is (false, nil);
// transport and status failures are errors.
func (r *ResourceChecker) Exists(ctx context.Context, kind domain.ResourceKind, id int64) (bool, error) {
	var (
		target   string
		endpoint string
		header   = http.Header{}
	)

	switch kind {
	case domain.ResourceRoute:
		target, endpoint = "route-service", fmt.Sprintf("%s/routes/%d", r.routeURL, id)
	case domain.ResourceBus:
		target, endpoint = "bus-service", fmt.Sprintf("%s/buses/id/%d", r.busURL, id)
	case domain.ResourceDriver:
		target, endpoint = userServiceTarget, fmt.Sprintf("%s/api/drivers/%d", r.userURL, id)
		if auth := forwardedAuth(ctx); auth != "" {
			header.Set("Authorization", auth)
		}
	default:
		return false, fmt.Errorf("unknown resource kind %q", kind)
	}

	err := r.client.getJSON(ctx, target, endpoint, header, nil)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
