package tenants

import "errors"

var (
	// ErrUnknownUser indicates the asserted identity is not in the directory.
	ErrUnknownUser = errors.New("tenants: unknown user")
	// ErrForbiddenHotel indicates a requested hotel is outside the user's scope.
	ErrForbiddenHotel = errors.New("tenants: hotel outside user scope")
)

// Role of a dashboard user within its tenant.
type Role string

// Roles.
const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// Hotel is a property whose metrics can be shown.
type Hotel struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Stars     int    `json:"stars" validate:"min=0,max=5"`
	RoomCount int    `json:"roomCount" validate:"min=0"`
	Location  string `json:"location"`
}

// User is a dashboard viewer scoped to a set of hotels.
type User struct {
	ID          string   `json:"id" validate:"required"`
	TenantID    string   `json:"tenantId" validate:"required"`
	DisplayName string   `json:"displayName"`
	Role        Role     `json:"role" validate:"omitempty,oneof=owner manager viewer"`
	HotelIDs    []string `json:"hotelIds" validate:"required,min=1,dive,required"`
}

// File is the on-disk layout of the directory.
type File struct {
	Hotels []Hotel `json:"hotels" validate:"dive"`
	Users  []User  `json:"users" validate:"dive"`
}
