package user

import (
	"context"

	"github.com/google/uuid"
)

// ProviderProfile carries the fields mirrored from the external provider on
// each successful login.
type ProviderProfile struct {
	Name  string
	Email *string
	CPF   *string
}

// Repository defines the persistence operations of the local user mirror.
type Repository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	// EmailInUse reports whether any other user already owns the address.
	EmailInUse(ctx context.Context, email string, excludeUserID uuid.UUID) (bool, error)
	// UpsertFromProvider creates or refreshes the mirror row for username in
	// one transaction: profile fields and last login always, the password hash
	// when the row is new or the plaintext no longer verifies against it.
	UpsertFromProvider(ctx context.Context, username, password string, profile ProviderProfile) (*User, bool, error)
	// UpdatePassword replaces the stored hash; the plaintext is hashed before
	// it is committed.
	UpdatePassword(ctx context.Context, userID uuid.UUID, password string) error
}

// EmailChangeRepository defines persistence for pending email changes.
type EmailChangeRepository interface {
	Create(ctx context.Context, request *EmailChangeRequest) error
	GetByToken(ctx context.Context, token string) (*EmailChangeRequest, error)
	// Confirm updates the user's email and marks the request used in one
	// transaction, so a half-applied confirmation is never observed.
	Confirm(ctx context.Context, userID, requestID uuid.UUID, newEmail string) error
}
