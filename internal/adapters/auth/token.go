package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"delegatebooking/internal/domain"
)

type bookingClaims struct {
	jwt.RegisteredClaims
	EventID string `json:"event_id"`
}

type jwtBookingTokens struct {
	secret []byte
}

// NewJWTIssuer returns a BookingTokenIssuer that signs HS256 JWTs with secret.
func NewJWTIssuer(secret string) domain.BookingTokenIssuer {
	return &jwtBookingTokens{secret: []byte(secret)}
}

// NewJWTVerifier returns a BookingTokenVerifier for tokens signed by NewJWTIssuer with the same secret.
func NewJWTVerifier(secret string) domain.BookingTokenVerifier {
	return &jwtBookingTokens{secret: []byte(secret)}
}

func (j *jwtBookingTokens) Issue(bookingID int64, eventID string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := bookingClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(bookingID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		EventID: eventID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (j *jwtBookingTokens) Verify(tokenString string) (int64, error) {
	claims := &bookingClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, errors.Join(domain.ErrInvalidToken, err)
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidToken
	}
	return id, nil
}
