package domain

import "time"

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	// UserStatusPending accounts registered but have not confirmed their e-mail.
	UserStatusPending UserStatus = "PENDING"
	UserStatusActive  UserStatus = "ACTIVE"
	// UserStatusResetRequired accounts must choose a new password at next sign-in.
	UserStatusResetRequired UserStatus = "RESET_REQUIRED"
)

// User is an account known to the reference identity surface.
type User struct {
	ID               string
	Name             string
	Email            string
	PasswordHash     string
	Status           UserStatus
	Groups           []string
	ConfirmationCode string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// InGroup reports whether the user belongs to group.
func (u User) InGroup(group string) bool {
	for _, g := range u.Groups {
		if g == group {
			return true
		}
	}
	return false
}
