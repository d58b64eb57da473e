package model

import "time"

// Roles a user account can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account as stored in the `users` table. PasswordHash
// never leaves the process: it is excluded from every JSON encoding.
type User struct {
	ID             uint64     `json:"id"`
	Name           string     `json:"name"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	PasswordHash   string     `json:"-"`
	Role           string     `json:"role"`
	IsActive       bool       `json:"isActive"`
	Address        *Address   `json:"address,omitempty"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Address is the optional postal address of a user. Sub-fields that were not
// supplied are stored as empty strings.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// StreetAddress builds an Address from a single free-form line.
func StreetAddress(line string) *Address {
	return &Address{Street: line}
}

// UserPatch lists the profile fields a user may change about themselves. A
// nil pointer leaves the stored value untouched. ClearDateOfBirth removes a
// stored date of birth.
type UserPatch struct {
	Name             *string
	Username         *string
	Email            *string
	Phone            *string
	Address          *Address
	DateOfBirth      *time.Time
	ClearDateOfBirth bool
	ProfilePicture   *string
}
