package entity

import (
	"sort"
	"time"
)

// Status is the lifecycle state of an account.
type Status string

const (
	StatusInactive Status = "INACTIVE"
	StatusActive   Status = "ACTIVE"
)

// Authority tags carried by accounts and tokens.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Account represents a member row in the `accounts` table.
// Email is unique and immutable once stored; PasswordHash never leaves the service.
type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PhoneNumber  string    `json:"phoneNumber"`
	Gender       string    `json:"gender"`
	Major        string    `json:"major"`
	AcademicYear string    `json:"academicYear"`
	Interests    string    `json:"interests,omitempty"`
	Status       Status    `json:"status"`
	Roles        []string  `json:"roles"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsActive reports whether the account has been activated.
func (a *Account) IsActive() bool { return a.Status == StatusActive }

// Activate moves the account to ACTIVE. It reports false when the account
// was already active; there is no way back to INACTIVE.
func (a *Account) Activate() bool {
	if a.Status == StatusActive {
		return false
	}
	a.Status = StatusActive
	return true
}

// Authorities returns the roles as a sorted copy, the order tokens carry them in.
func (a *Account) Authorities() []string {
	out := make([]string, len(a.Roles))
	copy(out, a.Roles)
	sort.Strings(out)
	return out
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	c := *a
	c.Roles = append([]string(nil), a.Roles...)
	return &c
}
