package handlers

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transit-services/internal/api/dto"
	"github.com/spec-kit/transit-services/internal/auth"
	"github.com/spec-kit/transit-services/internal/collaborator"
	"github.com/spec-kit/transit-services/internal/domain"
	"github.com/spec-kit/transit-services/internal/service"
	apperrors "github.com/spec-kit/transit-services/pkg/util/errorutil"
)

// UsersHandler exposes registration, the internal credential lookup and
// per-role profile management.
type UsersHandler struct {
	users       *service.UserService
	internalKey string
}

// NewUsersHandler constructs handler. An empty internalKey leaves the
// credential lookup unguarded.
func NewUsersHandler(users *service.UserService, internalKey string) *UsersHandler {
	return &UsersHandler{users: users, internalKey: internalKey}
}

// Register returns the handler for POST /api/users/register[/role].
func (h *UsersHandler) Register(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			base   dto.RegisterRequest
			driver *domain.DriverDetails
		)
		if role == domain.RoleDriver {
			var req dto.DriverRegisterRequest
			if err := bindBody(c, &req); err != nil {
				return err
			}
			base = req.RegisterRequest
			driver = &domain.DriverDetails{
				LicenseNumber: req.LicenseNumber,
				LicenseExpiry: dto.DatePtr(req.LicenseExpiry),
				HireDate:      dto.DatePtr(req.HireDate),
				CityID:        req.CityID,
				OperatorName:  req.OperatorName,
			}
		} else if err := bindBody(c, &base); err != nil {
			return err
		}

		profile, err := h.users.Register(c.UserContext(), role, service.RegisterInput{
			FirstName: base.FirstName,
			LastName:  base.LastName,
			Email:     base.Email,
			Password:  base.Password,
			Address:   base.Address,
			Driver:    driver,
		})
		if err != nil {
			return err
		}
		return c.Status(http.StatusCreated).JSON(profile.User.Public())
	}
}

// ByEmail handles GET /api/users/by-email/:email.
func (h *UsersHandler) ByEmail(c *fiber.Ctx) error {
	if h.internalKey != "" {
		got := c.Get(collaborator.InternalTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.internalKey)) != 1 {
			return apperrors.NewForbidden("internal token required")
		}
	}

	email, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return apperrors.NewValidationError("invalid email", nil)
	}
	cred, err := h.users.LookupCredential(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(cred)
}

// List returns the handler for GET /api/{role}s.
func (h *UsersHandler) List(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profiles, err := h.users.ListProfiles(c.UserContext(), role)
		if err != nil {
			return err
		}
		out := make([]dto.ProfileResponse, 0, len(profiles))
		for i := range profiles {
			out = append(out, dto.NewProfileResponse(&profiles[i]))
		}
		return c.JSON(out)
	}
}

// Get returns the handler for GET /api/{role}s/:id.
func (h *UsersHandler) Get(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		profile, err := h.users.GetProfile(c.UserContext(), role, id)
		if err != nil {
			return err
		}
		return c.JSON(dto.NewProfileResponse(profile))
	}
}

// Update returns the handler for PATCH /api/{role}s/:id.
func (h *UsersHandler) Update(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		var req dto.ProfileUpdateRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}

		actor, _ := auth.IdentityFromContext(c)
		profile, err := h.users.UpdateProfile(c.UserContext(), role, id, service.ProfilePatch{
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			Email:         req.Email,
			Address:       req.Address,
			Password:      req.Password,
			LicenseNumber: req.LicenseNumber,
			LicenseExpiry: dto.DatePtr(req.LicenseExpiry),
			HireDate:      dto.DatePtr(req.HireDate),
			CityID:        req.CityID,
			OperatorName:  req.OperatorName,
		}, actor)
		if err != nil {
			return err
		}
		return c.JSON(dto.NewProfileResponse(profile))
	}
}

// Delete returns the handler for DELETE /api/{role}s/:id.
func (h *UsersHandler) Delete(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return err
		}
		actor, _ := auth.IdentityFromContext(c)
		if err := h.users.DeleteProfile(c.UserContext(), role, id, actor); err != nil {
			return err
		}
		return c.SendStatus(http.StatusNoContent)
	}
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("id must be a positive integer", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}
