package collaborator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/transit-services/internal/domain"
)

// InternalTokenHeader authenticates service-to-service credential lookups.
const InternalTokenHeader = "X-Internal-Token"

const userServiceTarget = "user-service"

// UserDirectory reads credential records from user-service.
type UserDirectory struct {
	client      *Client
	baseURL     string
	internalKey string
}

// NewUserDirectory builds a directory for the user-service at baseURL.
func NewUserDirectory(client *Client, baseURL, internalKey string) *UserDirectory {
	return &UserDirectory{client: client, baseURL: baseURL, internalKey: internalKey}
}

// LookupByEmail returns the stored credential for email.
// Errors wrap ErrNotFound, ErrUnavailable or ErrUpstream.
func (d *UserDirectory) LookupByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	header := http.Header{}
	if d.internalKey != "" {
		header.Set(InternalTokenHeader, d.internalKey)
	}

	var cred domain.Credential
	endpoint := d.baseURL + "/api/users/by-email/" + url.PathEscape(email)
	if err := d.client.getJSON(ctx, userServiceTarget, endpoint, header, &cred); err != nil {
		return nil, err
	}
	if err := checkCredential(&cred); err != nil {
		d.client.logger.Warn("user-service returned an unusable record", zap.Error(err))
		return nil, err
	}
	return &cred, nil
}

// checkCredential rejects 2xx bodies missing the fields a lookup must carry.
// The role is normalized in place.
func checkCredential(cred *domain.Credential) error {
	var missing []string
	if cred.ID <= 0 {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(cred.Email) == "" {
		missing = append(missing, "email")
	}
	if role, ok := domain.ParseRole(string(cred.Role)); ok {
		cred.Role = role
	} else {
		missing = append(missing, "role")
	}
	if cred.PasswordHash == "" {
		missing = append(missing, "password_hash")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s record invalid: %s", ErrUpstream, userServiceTarget, strings.Join(missing, ", "))
	}
	return nil
}
