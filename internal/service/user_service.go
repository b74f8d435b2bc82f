package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/transit-services/internal/auth"
	"github.com/spec-kit/transit-services/internal/domain"
	"github.com/spec-kit/transit-services/internal/events"
	"github.com/spec-kit/transit-services/internal/repository"
	apperrors "github.com/spec-kit/transit-services/pkg/util/errorutil"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Address   *string
	Driver    *domain.DriverDetails
}

// ProfilePatch holds optional updates; nil fields are left alone.
type ProfilePatch struct {
	FirstName     *string
	LastName      *string
	Email         *string
	Address       *string
	Password      *string
	LicenseNumber *string
	LicenseExpiry *time.Time
	HireDate      *time.Time
	CityID        *int64
	OperatorName  *string
}

// UserService manages accounts and their role profiles.
type UserService struct {
	users      repository.UserRepository
	hasher     *auth.PasswordHasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, hasher *auth.PasswordHasher, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, hasher: hasher, dispatcher: dispatcher, logger: logger}
}

// Register creates a user with the profile row matching role.
func (s *UserService) Register(ctx context.Context, role domain.Role, in RegisterInput) (*domain.Profile, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if role == domain.RoleDriver && in.Driver == nil {
		return nil, apperrors.NewValidationError("driver details required", nil)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Address:      in.Address,
		Role:         role,
	}
	profile, err := s.users.CreateWithProfile(ctx, user, in.Driver)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserRegistered, user.ID, events.Actor{},
		events.UserRegisteredPayload{Email: user.Email, Role: role}))
	return profile, nil
}

// LookupCredential serves the internal by-email endpoint.
func (s *UserService) LookupCredential(ctx context.Context, email string) (*domain.Credential, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	cred := user.Credential()
	return &cred, nil
}

// ListProfiles returns every profile of a role.
func (s *UserService) ListProfiles(ctx context.Context, role domain.Role) ([]domain.Profile, error) {
	return s.users.ListProfiles(ctx, role)
}

// GetProfile returns one profile by its profile id.
func (s *UserService) GetProfile(ctx context.Context, role domain.Role, id int64) (*domain.Profile, error) {
	profile, err := s.users.GetProfile(ctx, role, id)
	if err != nil {
		return nil, profileError(role, err)
	}
	return profile, nil
}

// UpdateProfile applies patch and re-hashes a new password.
func (s *UserService) UpdateProfile(ctx context.Context, role domain.Role, id int64, patch ProfilePatch, actor domain.Identity) (*domain.Profile, error) {
	profile, err := s.users.GetProfile(ctx, role, id)
	if err != nil {
		return nil, profileError(role, err)
	}

	fields, err := s.applyPatch(profile, role, patch)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return profile, nil
	}

	if err := s.users.UpdateProfile(ctx, role, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, profileError(role, err)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserUpdated, profile.UserID, events.ActorFromIdentity(actor),
		events.UserChangedPayload{ProfileID: profile.ID, Role: role, Fields: fields}))
	return profile, nil
}

func (s *UserService) applyPatch(profile *domain.Profile, role domain.Role, patch ProfilePatch) ([]string, error) {
	var fields []string
	set := func(name string, apply func()) {
		apply()
		fields = append(fields, name)
	}

	if patch.FirstName != nil {
		set("first_name", func() { profile.User.FirstName = strings.TrimSpace(*patch.FirstName) })
	}
	if patch.LastName != nil {
		set("last_name", func() { profile.User.LastName = strings.TrimSpace(*patch.LastName) })
	}
	if patch.Email != nil {
		set("email", func() { profile.User.Email = normalizeEmail(*patch.Email) })
	}
	if patch.Address != nil {
		set("address", func() { profile.User.Address = patch.Address })
	}
	if patch.Password != nil {
		hash, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		set("password", func() { profile.User.PasswordHash = hash })
	}

	hasDriverFields := patch.LicenseNumber != nil || patch.LicenseExpiry != nil || patch.HireDate != nil ||
		patch.CityID != nil || patch.OperatorName != nil
	if !hasDriverFields {
		return fields, nil
	}
	if role != domain.RoleDriver || profile.Driver == nil {
		return nil, apperrors.NewValidationError("driver fields apply to drivers only", nil)
	}
	d := profile.Driver
	if patch.LicenseNumber != nil {
		set("license_number", func() { d.LicenseNumber = *patch.LicenseNumber })
	}
	if patch.LicenseExpiry != nil {
		set("license_expiry", func() { d.LicenseExpiry = patch.LicenseExpiry })
	}
	if patch.HireDate != nil {
		set("hire_date", func() { d.HireDate = patch.HireDate })
	}
	if patch.CityID != nil {
		set("city_id", func() { d.CityID = patch.CityID })
	}
	if patch.OperatorName != nil {
		set("operator_name", func() { d.OperatorName = *patch.OperatorName })
	}
	return fields, nil
}

// DeleteProfile removes the profile together with its user.
func (s *UserService) DeleteProfile(ctx context.Context, role domain.Role, id int64, actor domain.Identity) error {
	profile, err := s.users.GetProfile(ctx, role, id)
	if err != nil {
		return profileError(role, err)
	}
	if err := s.users.DeleteProfile(ctx, role, id); err != nil {
		return profileError(role, err)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserDeleted, profile.UserID, events.ActorFromIdentity(actor),
		events.UserChangedPayload{ProfileID: id, Role: role}))
	return nil
}

func profileError(role domain.Role, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(string(role), nil)
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
