package domain

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleStaff     UserRole = "staff"
	UserRoleDonor     UserRole = "donor"
	UserRoleVolunteer UserRole = "volunteer"
)

// Identity is the verified caller as supplied by the identity provider.
type Identity struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Phone  string   `json:"phone"`
	Role   UserRole `json:"role"`
	Locale string   `json:"locale,omitempty"`
}

// IsStaff reports whether the identity may read the whole ledger.
func (i Identity) IsStaff() bool {
	return i.Role == UserRoleAdmin || i.Role == UserRoleStaff
}

// Volunteer is a companion record used for skill distribution reports.
type Volunteer struct {
	ID     string
	Name   string
	Skills string
}

// ProjectStatus values used by reporting.
const (
	ProjectStatusOngoing = "ongoing"
	EventStatusUpcoming  = "upcoming"
)
