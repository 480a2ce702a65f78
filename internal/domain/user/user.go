// Package user holds the User and SponsorProfile entities (spec.md §3).
package user

import "time"

// Role is a User's single role at any given time.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleSponsor Role = "sponsor"
	RoleUser    Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSponsor, RoleUser:
		return true
	default:
		return false
	}
}

// Profile holds the optional, mutable profile fields of a User.
type Profile struct {
	FullName            string
	Email               string
	Bio                 string
	Timezone            string
	TimezoneAutoDetect  bool
}

// User is identified by an immutable E.164 phone number.
type User struct {
	ID              int64
	Phone           string
	Role            Role
	IsVerified      bool
	Profile         Profile
	CreatedAt       time.Time
	RoleAssignedAt  *time.Time
	RoleAssignedBy  *int64
}

// SponsorProfile is one-to-one with a User of Role=sponsor.
type SponsorProfile struct {
	ID           int64
	UserID       int64
	CompanyName  string
	WebsiteURL   string
	LogoURL      string
	ContactEmail string
	ContactPhone string
	Industry     string
	Description  string
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
