package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"delegatebooking/internal/delivery/http/helpers"
	"delegatebooking/internal/delivery/http/middleware"
	"delegatebooking/internal/domain"
)

type BookingController struct {
	Logger   *slog.Logger
	Bookings domain.BookingService
	Hasher   domain.PasswordHasher
	Tokens   domain.BookingTokenIssuer
	TokenTTL time.Duration
}

func NewBookingController(
	logger *slog.Logger,
	bookings domain.BookingService,
	hasher domain.PasswordHasher,
	tokens domain.BookingTokenIssuer,
	tokenTTL time.Duration,
) *BookingController {
	return &BookingController{
		Logger:   logger,
		Bookings: bookings,
		Hasher:   hasher,
		Tokens:   tokens,
		TokenTTL: tokenTTL,
	}
}

// LoginRequest is the request body for POST /bookings/login.
type LoginRequest struct {
	RefNumber string `json:"ref_number"`
	Password  string `json:"password"`
}

// Validate implements helpers.Validator.
func (req *LoginRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(req.RefNumber) == "" {
		errs = append(errs, "ref_number is required")
	}
	if req.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// LoginResponse carries the booking access token.
// swagger:model LoginResponse
type LoginResponse struct {
	Token     string `json:"token"`
	BookingID int64  `json:"booking_id"`
	EventID   string `json:"event_id"`
}

// LoginSuccessResponse is the success envelope for POST /bookings/login (200).
type LoginSuccessResponse struct {
	Data  *LoginResponse    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Login godoc
// @Summary Log in to a booking
// @Description Exchanges a booking reference number and its access password for a bearer token.
// @Tags booking
// @Accept json
// @Produce json
// @Param body body controllers.LoginRequest true "Reference number and password"
// @Success 200 {object} controllers.LoginSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/login [post]
func (c *BookingController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	b, err := c.Bookings.FindByRefNumber(r.Context(), strings.TrimSpace(req.RefNumber))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidBookingReference) {
			helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "invalid reference number or password")
			return
		}
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if b.PasswordHash == "" || c.Hasher.Compare(b.PasswordHash, req.Password) != nil {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "invalid reference number or password")
		return
	}
	token, err := c.Tokens.Issue(b.ID, b.EventID, c.TokenTTL)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, &LoginResponse{Token: token, BookingID: b.ID, EventID: b.EventID})
}

func (c *BookingController) bookingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.BookingIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
	}
	return id, ok
}

// BookingViewSuccessResponse is the success envelope for GET /bookings/me (200).
type BookingViewSuccessResponse struct {
	Data  *domain.BookingView `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// Show godoc
// @Summary Show the authorised booking
// @Description Returns the booking with its reference number, active delegates, current payment receipt and totals.
// @Tags booking
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.BookingViewSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /bookings/me [get]
func (c *BookingController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := c.bookingID(w, r)
	if !ok {
		return
	}
	view, err := c.Bookings.Show(r.Context(), id)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}

// Receipt godoc
// @Summary Current payment receipt
// @Description Returns the most recent receipt of the authorised booking.
// @Tags booking
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data is a Receipt"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /bookings/me/receipt [get]
func (c *BookingController) Receipt(w http.ResponseWriter, r *http.Request) {
	id, ok := c.bookingID(w, r)
	if !ok {
		return
	}
	rc, err := c.Bookings.CurrentPaymentReceipt(r.Context(), id)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rc)
}

// UpdateBilling godoc
// @Summary Change the billing details
// @Description Stores new billing details on the booking and copies them onto its current receipt.
// @Tags booking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body domain.BillingDetails true "Billing details"
// @Success 200 {object} helpers.APIResponse "data is the updated Receipt"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 422 {object} helpers.APIResponse "error.code: unprocessable"
// @Router /bookings/me/billing [put]
func (c *BookingController) UpdateBilling(w http.ResponseWriter, r *http.Request) {
	id, ok := c.bookingID(w, r)
	if !ok {
		return
	}
	var billing domain.BillingDetails
	if !helpers.DecodeAndValidate(w, r, &billing) {
		return
	}
	if err := billing.Validate(); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	rc, err := c.Bookings.UpdateBillingDetails(r.Context(), id, billing)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rc)
}

// BookingOptions lists what a booking may choose from.
// swagger:model BookingOptions
type BookingOptions struct {
	Packages      []*domain.Package `json:"packages"`
	DelegateTypes []string          `json:"delegate_types"`
}

// Options godoc
// @Summary Packages and delegate types of the booking's event
// @Tags booking
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data is a BookingOptions"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /bookings/me/options [get]
func (c *BookingController) Options(w http.ResponseWriter, r *http.Request) {
	id, ok := c.bookingID(w, r)
	if !ok {
		return
	}
	packages, err := c.Bookings.Packages(r.Context(), id)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	types, err := c.Bookings.DelegateTypes(r.Context(), id)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, &BookingOptions{Packages: packages, DelegateTypes: types})
}

// Remind godoc
// @Summary Resend the booking confirmation
// @Description Sends the booking contact a reminder matching the booking state: new, amended, cancelled or awaiting online payment.
// @Tags booking
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data is the list of notifications sent"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /bookings/me/remind [post]
func (c *BookingController) Remind(w http.ResponseWriter, r *http.Request) {
	id, ok := c.bookingID(w, r)
	if !ok {
		return
	}
	sent, err := c.Bookings.Remind(r.Context(), id)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if sent == nil {
		sent = []domain.BookingNotification{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, sent)
}
