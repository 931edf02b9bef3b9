package http

import (
	"log/slog"
	"net/http"

	"delegatebooking/internal/delivery/http/controllers"
	"delegatebooking/internal/delivery/http/middleware"
	"delegatebooking/internal/domain"

	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	cartController *controllers.CartController,
	bookingController *controllers.BookingController,
	verifier domain.BookingTokenVerifier,
	metricsHandler http.Handler,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	requireBooking := middleware.RequireBookingToken(verifier, logger)

	// Cart
	mux.HandleFunc("POST /events/{eventID}/carts", cartController.NewCart)
	mux.HandleFunc("GET /carts/{sessionID}", cartController.Show)
	mux.HandleFunc("DELETE /carts/{sessionID}", cartController.Exit)
	mux.HandleFunc("GET /carts/{sessionID}/delegates", cartController.ListDelegates)
	mux.HandleFunc("POST /carts/{sessionID}/delegates", cartController.StageDelegate)
	mux.HandleFunc("POST /carts/{sessionID}/delegates/existing", cartController.AddDelegate)
	mux.HandleFunc("GET /carts/{sessionID}/delegates/{index}", cartController.GetDelegate)
	mux.HandleFunc("PUT /carts/{sessionID}/delegates/{index}", cartController.UpdateDelegate)
	mux.HandleFunc("GET /carts/{sessionID}/booking", cartController.DraftBooking)
	mux.HandleFunc("POST /carts/{sessionID}/commit", cartController.Commit)

	// Booking
	mux.HandleFunc("POST /bookings/login", bookingController.Login)
	mux.HandleFunc("GET /bookings/me", requireBooking(bookingController.Show))
	mux.HandleFunc("GET /bookings/me/receipt", requireBooking(bookingController.Receipt))
	mux.HandleFunc("PUT /bookings/me/billing", requireBooking(bookingController.UpdateBilling))
	mux.HandleFunc("GET /bookings/me/options", requireBooking(bookingController.Options))
	mux.HandleFunc("POST /bookings/me/remind", requireBooking(bookingController.Remind))
	mux.HandleFunc("POST /bookings/me/cart", requireBooking(cartController.LoadBooking))

	// Metrics
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
