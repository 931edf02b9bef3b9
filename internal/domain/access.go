package domain

import (
	"errors"
	"time"
)

// ErrInvalidToken is returned when a booking access token cannot be verified.
var ErrInvalidToken = errors.New("invalid or expired booking token")

// PasswordHasher hashes and verifies booking access passwords.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// PasswordGenerator creates the access password handed out on a booking's first save.
type PasswordGenerator interface {
	Generate() (string, error)
}

// BookingTokenIssuer issues tokens (e.g. JWT) granting access to one booking.
type BookingTokenIssuer interface {
	Issue(bookingID int64, eventID string, expiry time.Duration) (string, error)
}

// BookingTokenVerifier verifies a token and returns the booking it grants access to.
type BookingTokenVerifier interface {
	Verify(token string) (bookingID int64, err error)
}
