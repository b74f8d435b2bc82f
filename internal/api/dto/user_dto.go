package dto

import (
	"time"

	"github.com/spec-kit/transit-services/internal/domain"
)

// RegisterRequest is the body shared by every registration route.
type RegisterRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"required,max=100"`
	Email     string  `json:"email" validate:"required,email,max=100"`
	Password  string  `json:"password" validate:"required,min=6,max=72"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
}

// DriverRegisterRequest adds the columns kept for drivers.
type DriverRegisterRequest struct {
	RegisterRequest
	LicenseNumber string `json:"license_number" validate:"required,max=50"`
	LicenseExpiry *Date  `json:"license_expiry"`
	HireDate      *Date  `json:"hire_date"`
	CityID        *int64 `json:"city_id" validate:"omitempty,gt=0"`
	OperatorName  string `json:"operator_name" validate:"required,max=100"`
}

// ProfileUpdateRequest is a partial update; absent fields are left alone.
type ProfileUpdateRequest struct {
	FirstName     *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName      *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email         *string `json:"email" validate:"omitempty,email,max=100"`
	Address       *string `json:"address" validate:"omitempty,max=255"`
	Password      *string `json:"password" validate:"omitempty,min=6,max=72"`
	LicenseNumber *string `json:"license_number" validate:"omitempty,min=1,max=50"`
	LicenseExpiry *Date   `json:"license_expiry"`
	HireDate      *Date   `json:"hire_date"`
	CityID        *int64  `json:"city_id" validate:"omitempty,gt=0"`
	OperatorName  *string `json:"operator_name" validate:"omitempty,min=1,max=100"`
}

// ProfileResponse is a role profile joined with its user.
type ProfileResponse struct {
	ID            int64       `json:"id"`
	UserID        int64       `json:"user_id"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	Email         string      `json:"email"`
	Address       *string     `json:"address"`
	Role          domain.Role `json:"role"`
	CreatedAt     time.Time   `json:"created_at"`
	LicenseNumber string      `json:"license_number,omitempty"`
	LicenseExpiry *Date       `json:"license_expiry,omitempty"`
	HireDate      *Date       `json:"hire_date,omitempty"`
	CityID        *int64      `json:"city_id,omitempty"`
	OperatorName  string      `json:"operator_name,omitempty"`
}

// NewProfileResponse flattens p for the wire.
func NewProfileResponse(p *domain.Profile) ProfileResponse {
	out := ProfileResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		FirstName: p.User.FirstName,
		LastName:  p.User.LastName,
		Email:     p.User.Email,
		Address:   p.User.Address,
		Role:      p.User.Role,
		CreatedAt: p.User.CreatedAt,
	}
	if d := p.Driver; d != nil {
		out.LicenseNumber = d.LicenseNumber
		out.LicenseExpiry = DateFrom(d.LicenseExpiry)
		out.HireDate = DateFrom(d.HireDate)
		out.CityID = d.CityID
		out.OperatorName = d.OperatorName
	}
	return out
}
