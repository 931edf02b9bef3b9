package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "delegatebooking/internal/delivery/http/helpers"
	"delegatebooking/internal/domain"
)

type contextKey string

const bookingIDKey contextKey = "bookingID"

// SetBookingID returns a context carrying the booking the request is authorised for.
func SetBookingID(ctx context.Context, bookingID int64) context.Context {
	return context.WithValue(ctx, bookingIDKey, bookingID)
}

// BookingIDFromContext returns the authorised booking ID from the context, if present.
func BookingIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(bookingIDKey).(int64)
	return id, ok
}

// RequireBookingToken returns a wrapper that validates the Bearer booking token and sets the booking ID in the request context.
// If the token is missing or invalid, it responds with 401 and does not call next.
func RequireBookingToken(verifier domain.BookingTokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authorization header")
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid authorization format")
				return
			}
			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing token")
				return
			}
			bookingID, err := verifier.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "booking token rejected", "err", err)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			AddLogFields(r.Context(), "booking_id", bookingID)
			r = r.WithContext(SetBookingID(r.Context(), bookingID))
			next(w, r)
		}
	}
}
