package domain

import (
	"regexp"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

const MinPasswordLength = 6

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,15}$`)

func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

type User struct {
	ID            int64
	Username      string
	PasswordHash  string
	Role          Role
	LoyaltyPoints int
	BookingPNRs   []string
	CreatedAt     time.Time
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
