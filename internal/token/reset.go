// Package token issues and validates the stateless password-reset tokens.
//
// The token is not persisted: it is an HMAC over the user's primary key, the
// current password hash, the last-login instant and an issue timestamp. A
// successful reset changes the password hash (and a login changes last-login),
// so an issued token stops validating on its own once consumed. The
// email-change flow uses persisted single-use records instead; see the
// EmailChangeRequest entity.
package token

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"signa-backend/internal/domain/user"
	appErrors "signa-backend/pkg/errors"
)

// ResetIssuer creates and checks password-reset tokens.
type ResetIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewResetIssuer(secret string, ttl time.Duration) *ResetIssuer {
	return &ResetIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns the uid (a reversible encoding of the user's primary key) and
// a signed token bound to the user's current credential state.
func (i *ResetIssuer) Issue(u *user.User) (uid, token string) {
	uid = base64.RawURLEncoding.EncodeToString([]byte(u.ID.String()))

	issuedAt := i.now().Unix()
	timestamp := strconv.FormatInt(issuedAt, 36)
	token = timestamp + "-" + i.sign(u, timestamp)

	return uid, token
}

// Validate resolves the uid to a user and checks the token signature against
// that user's current state. Failures are distinguishable so callers can
// surface the first one only: uid invalid, user not found, token expired,
// token invalid.
func (i *ResetIssuer) Validate(ctx context.Context, uid, token string, repo user.Repository) (*user.User, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return nil, appErrors.ErrUIDInvalid
	}

	userID, err := uuid.Parse(string(decoded))
	if err != nil {
		return nil, appErrors.ErrUIDInvalid
	}

	u, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, user.ErrUserNotFound
	}

	timestamp, _, found := strings.Cut(token, "-")
	if !found {
		return nil, appErrors.ErrTokenInvalid
	}

	issuedAt, err := strconv.ParseInt(timestamp, 36, 64)
	if err != nil {
		return nil, appErrors.ErrTokenInvalid
	}

	if i.now().Sub(time.Unix(issuedAt, 0)) > i.ttl {
		return nil, appErrors.ErrTokenExpired
	}

	expected := timestamp + "-" + i.sign(u, timestamp)
	if !hmac.Equal([]byte(token), []byte(expected)) {
		return nil, appErrors.ErrTokenInvalid
	}

	return u, nil
}

// sign binds the signature to everything that changes when the token is
// consumed: the password hash and the last login.
func (i *ResetIssuer) sign(u *user.User, timestamp string) string {
	var lastLogin int64
	if u.LastLogin != nil {
		lastLogin = u.LastLogin.Unix()
	}

	mac := hmac.New(sha256.New, i.secret)
	fmt.Fprintf(mac, "%s|%s|%d|%s", u.ID, u.PasswordHashed, lastLogin, timestamp)

	return hex.EncodeToString(mac.Sum(nil))
}
