package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the local mirror of an employee identity. The external provider is
// authoritative for credentials and profile data; this row is refreshed on
// every successful login and is never hard-deleted.
type User struct {
	ID uuid.UUID
	// Username is the RF (registro funcional), 7 or 8 digits.
	Username       string
	Name           string
	Email          *string
	CPF            *string
	PasswordHashed string
	LastLogin      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FirstName returns the leading word of the full name, used as the salutation
// in notification emails.
func (u *User) FirstName() string {
	for i, r := range u.Name {
		if r == ' ' {
			return u.Name[:i]
		}
	}
	return u.Name
}

// EmailAddress returns the mirrored email or the empty string.
func (u *User) EmailAddress() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// CPFNumber returns the mirrored CPF or the empty string.
func (u *User) CPFNumber() string {
	if u.CPF == nil {
		return ""
	}
	return *u.CPF
}

// EmailChangeRequest is a pending, single-use email change. The token is only
// redeemable while Used is false and the record is younger than the configured
// window; once confirmed, Used never resets.
type EmailChangeRequest struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	NewEmail  string
	Token     string
	Used      bool
	CreatedAt time.Time
}

// ExpiredAt reports whether the request was older than ttl at instant now.
func (r *EmailChangeRequest) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.CreatedAt) > ttl
}
