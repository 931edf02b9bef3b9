package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"delegatebooking/internal/delivery/http/helpers"
	"delegatebooking/internal/delivery/http/middleware"
	"delegatebooking/internal/domain"
)

type CartController struct {
	Logger   *slog.Logger
	Carts    domain.CartService
	Bookings domain.BookingService
	Sessions domain.CartSessionStore
	Tokens   domain.BookingTokenIssuer
	TokenTTL time.Duration
}

func NewCartController(
	logger *slog.Logger,
	carts domain.CartService,
	bookings domain.BookingService,
	sessions domain.CartSessionStore,
	tokens domain.BookingTokenIssuer,
	tokenTTL time.Duration,
) *CartController {
	return &CartController{
		Logger:   logger,
		Carts:    carts,
		Bookings: bookings,
		Sessions: sessions,
		Tokens:   tokens,
		TokenTTL: tokenTTL,
	}
}

// CartSession is returned when a cart is opened.
type CartSession struct {
	SessionID string       `json:"session_id"`
	Cart      *domain.Cart `json:"cart"`
}

// CartSessionSuccessResponse is the success envelope for endpoints opening a cart (201).
type CartSessionSuccessResponse struct {
	Data  *CartSession      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// NewCart godoc
// @Summary Open a cart for a new booking
// @Description Creates an empty cart for the event and returns the session id used by the other cart endpoints.
// @Tags cart
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 201 {object} controllers.CartSessionSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/carts [post]
func (c *CartController) NewCart(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	cart, err := c.Carts.Create(r.Context(), eventID, 0)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.openSession(w, r, cart)
}

// LoadBooking godoc
// @Summary Open a cart editing the authorised booking
// @Description Copies the delegates of the booking into a new cart. The cart remembers the booking version it was built from.
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 201 {object} controllers.CartSessionSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/me/cart [post]
func (c *CartController) LoadBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := middleware.BookingIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	b, err := c.Bookings.Get(r.Context(), bookingID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	cart, err := c.Carts.Create(r.Context(), b.EventID, bookingID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.openSession(w, r, cart)
}

func (c *CartController) openSession(w http.ResponseWriter, r *http.Request, cart *domain.Cart) {
	sessionID := uuid.NewString()
	if err := c.Sessions.Save(r.Context(), sessionID, cart); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, &CartSession{SessionID: sessionID, Cart: cart})
}

// loadCart reads the cart of the sessionID path value, writing the error response when it fails.
func (c *CartController) loadCart(w http.ResponseWriter, r *http.Request) (string, *domain.Cart, bool) {
	sessionID := r.PathValue("sessionID")
	if _, err := uuid.Parse(sessionID); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid sessionID")
		return "", nil, false
	}
	middleware.AddLogFields(r.Context(), "cart_session", sessionID)
	cart, err := c.Sessions.Load(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "cart session not found or expired")
			return "", nil, false
		}
		helpers.WriteServiceError(w, r, c.Logger, err)
		return "", nil, false
	}
	if cart.WasLoaded() {
		middleware.AddLogFields(r.Context(), "booking_id", cart.BookingID)
	}
	return sessionID, cart, true
}

func (c *CartController) saveCart(w http.ResponseWriter, r *http.Request, sessionID string, cart *domain.Cart) bool {
	if err := c.Sessions.Save(r.Context(), sessionID, cart); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return false
	}
	return true
}

// CartView is the cart with its staged delegates and running totals.
// swagger:model CartView
type CartView struct {
	Cart         *domain.Cart           `json:"cart"`
	Delegates    []*domain.CartDelegate `json:"delegates"`
	Total        *int64                 `json:"total"`
	FreeOfCharge bool                   `json:"free_of_charge"`
	FilledForms  bool                   `json:"filled_forms"`
}

// CartViewSuccessResponse is the success envelope for GET /carts/{sessionID} (200).
type CartViewSuccessResponse struct {
	Data  *CartView         `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Show godoc
// @Summary Show a cart
// @Description Returns the staged delegates ordered by name and the total in the requested mode (gross, full or partial). total is null when no delegate is chargeable.
// @Tags cart
// @Produce json
// @Param sessionID path string true "Cart session ID"
// @Param mode query string false "Total mode: gross, full or partial"
// @Success 200 {object} controllers.CartViewSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /carts/{sessionID} [get]
func (c *CartController) Show(w http.ResponseWriter, r *http.Request) {
	_, cart, ok := c.loadCart(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	rows, err := c.Carts.Delegates(ctx, cart)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	view := &CartView{Cart: cart, Delegates: rows}
	total, chargeable, err := c.Carts.Total(ctx, cart, domain.ParseTotalMode(r.URL.Query().Get("mode")))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if chargeable {
		view.Total = &total
	}
	if view.FreeOfCharge, err = c.Carts.FreeOfCharge(ctx, cart); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if view.FilledForms, err = c.Carts.FilledForms(ctx, cart); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}

// ChoiceRequest is an option selected for a delegate.
type ChoiceRequest struct {
	OptionID     string `json:"option_id"`
	PriceGross   int64  `json:"price_gross"`
	PricePartial int64  `json:"price_partial"`
}

// StageDelegateRequest is the request body for POST /carts/{sessionID}/delegates.
type StageDelegateRequest struct {
	domain.DelegateDetails
	Choices []ChoiceRequest `json:"choices"`
}

// Validate implements helpers.Validator.
func (req *StageDelegateRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(req.PackageID) == "" {
		errs = append(errs, "package_id is required")
	}
	for _, ch := range req.Choices {
		if ch.OptionID == "" {
			errs = append(errs, "choices.option_id is required")
			break
		}
	}
	return errs
}

// StagedDelegate is the position and row of a staged delegate.
type StagedDelegate struct {
	Index    int                  `json:"index"`
	Delegate *domain.CartDelegate `json:"delegate,omitempty"`
}

// StagedDelegateSuccessResponse is the success envelope for staging endpoints.
type StagedDelegateSuccessResponse struct {
	Data  *StagedDelegate   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// StageDelegate godoc
// @Summary Stage a new delegate
// @Description Adds a delegate with its package and choices to the cart. Rejected when the package belongs to another event or the event's delegate limit would be exceeded.
// @Tags cart
// @Accept json
// @Produce json
// @Param sessionID path string true "Cart session ID"
// @Param body body controllers.StageDelegateRequest true "Delegate"
// @Success 201 {object} controllers.StagedDelegateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: unprocessable"
// @Router /carts/{sessionID}/delegates [post]
func (c *CartController) StageDelegate(w http.ResponseWriter, r *http.Request) {
	var req StageDelegateRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	sessionID, cart, ok := c.loadCart(w, r)
	if !ok {
		return
	}
	row := &domain.CartDelegate{DelegateDetails: req.DelegateDetails}
	for _, ch := range req.Choices {
		row.Choices = append(row.Choices, domain.CartChoice{
			OptionID: ch.OptionID,
			Price:    domain.Price{Gross: ch.PriceGross, Partial: ch.PricePartial},
		})
	}
	idx, err := c.Carts.StageDelegate(r.Context(), cart, row)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if !c.saveCart(w, r, sessionID, cart) {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, &StagedDelegate{Index: idx, Delegate: row})
}

// AddDelegateRequest is the request body for POST /carts/{sessionID}/delegates/existing.
type AddDelegateRequest struct {
	DelegateID string `json:"delegate_id"`
}

// AddDelegate godoc
// @Summary Index an already staged delegate row
// @Description Registers an existing staged row id in the cart and returns its position. Indexing the same row twice returns the same position.
// @Tags cart
// @Accept json
// @Produce json
// @Param sessionID path string true "Cart session ID"
// @Param body body controllers.AddDelegateRequest true "Staged row id"
// @Success 200 {object} controllers.StagedDelegateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 422 {object} helpers.APIResponse "error.code: unprocessable"
// @Router /carts/{sessionID}/delegates/existing [post]
func (c *CartController) AddDelegate(w http.ResponseWriter, r *http.Request) {
	var req AddDelegateRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	sessionID, cart, ok := c.loadCart(w, r)
	if !ok {
		return
	}
	idx, err := c.Carts.AddDelegate(r.Context(), cart, req.DelegateID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if !c.saveCart(w, r, sessionID, cart) {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, &StagedDelegate{Index: idx})
}

// ListDelegates godoc
// @Summary List staged delegates
// @Description Returns the staged delegates ordered by forename then surname. active=true hides cancelled delegates.
// @Tags cart
// @Produce json
// @Param sessionID path string true "Cart session ID"
// @Param active query bool false "Only delegates that are not cancelled"
// @Success 200 {object} helpers.APIResponse "data is an array of CartDelegate"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /carts/{sessionID}/delegates [get]
func (c *CartController) ListDelegates(w http.ResponseWriter, r *http.Request) {
	_, cart, ok := c.loadCart(w, r)
	if !ok {
		return
	}
	var (
		rows []*domain.CartDelegate
		err  error
	)
	if r.URL.Query().Get("active") == "true" {
		rows, err = c.Carts.ActiveDelegates(r.Context(), cart)
	} else {
		rows, err = c.Carts.Delegates(r.Context(), cart)
	}
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rows)
}

// GetDelegate godoc
// @Summary Get the delegate at a cart position
// @Tags cart
// @Produce json
// @Param sessionID path string true "Cart session ID"
// @Param index path int true "Position (0-100)"
// @Success 200 {object} helpers.APIResponse "data is a CartDelegate"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /carts/{sessionID}/delegates/{index} [get]
func (c *CartController) GetDelegate(w http.ResponseWriter, r *http.Request) {
	idx, err := domain.ParseDelegateIndex(r.PathValue("index"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	_, cart, ok := c.loadCart(w, r)
	if !ok {
		return
	}
	row, err := c.Carts.DelegateAt(r.Context(), cart, idx)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if row == nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no delegate at this position")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, row)
}

// UpdateDelegate godoc
// @Summary Edit the delegate at a cart position
// @Description Replaces the delegate details. A package change or a reactivation is checked against the event's delegate limit.
// @Tags cart
// @Accept json
// @Produce json
// @Param sessionID path string true "Cart session ID"
// @Param index path int true "Position (0-100)"
// @Param body body domain.DelegateDetails true "Delegate details"
// @Success 200 {object} helpers.APIResponse "data is a CartDelegate"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: unprocessable"
// @Router /carts/{sessionID}/delegates/{index} [put]
func (c *CartController) UpdateDelegate(w http.ResponseWriter, r *http.Request) {
	idx, err := domain.ParseDelegateIndex(r.PathValue("index"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	var details domain.DelegateDetails
	if !helpers.DecodeAndValidate(w, r, &details) {
		return
	}
	_, cart, ok := c.loadCart(w, r)
	if !ok {
		return
	}
	row, err := c.Carts.UpdateDelegate(r.Context(), cart, idx, details)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, row)
}

// DraftBooking godoc
// @Summary Booking form defaults
// @Description Returns the booking the commit form starts from: the saved booking for a loaded cart, otherwise defaults from the event.
// @Tags cart
// @Produce json
// @Param sessionID path string true "Cart session ID"
// @Success 200 {object} helpers.APIResponse "data is a Booking"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /carts/{sessionID}/booking [get]
func (c *CartController) DraftBooking(w http.ResponseWriter, r *http.Request) {
	_, cart, ok := c.loadCart(w, r)
	if !ok {
		return
	}
	b, err := c.Carts.Booking(r.Context(), cart)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, b)
}

// CommitRequest is the request body for POST /carts/{sessionID}/commit.
type CommitRequest struct {
	Contact            domain.ContactDetails `json:"contact"`
	EmailConfirmation  string                `json:"email_confirmation"`
	Billing            domain.BillingDetails `json:"billing"`
	TermsAccepted      bool                  `json:"terms_accepted"`
	CopyBillingContact bool                  `json:"copy_billing_contact"`
	PaymentMethod      domain.PaymentMethod  `json:"payment_method"`
}

// CommitResponse is returned by a successful commit. Password is only set on a
// booking's first save and is never shown again.
type CommitResponse struct {
	*domain.CommitResult
	RefNumber string `json:"ref_number,omitempty"`
	Password  string `json:"password,omitempty"`
	Token     string `json:"token"`
}

// CommitSuccessResponse is the success envelope for POST /carts/{sessionID}/commit (200).
type CommitSuccessResponse struct {
	Data  *CommitResponse   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Commit godoc
// @Summary Save the cart into a booking
// @Description Validates the booking form and writes the booking, its receipt and every staged delegate in one transaction. Fails with 409 when the booking changed since the cart was loaded. A successful commit closes the cart session.
// @Tags cart
// @Accept json
// @Produce json
// @Param sessionID path string true "Cart session ID"
// @Param body body controllers.CommitRequest true "Booking form"
// @Success 200 {object} controllers.CommitSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 422 {object} helpers.APIResponse "error.code: unprocessable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /carts/{sessionID}/commit [post]
func (c *CartController) Commit(w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	sessionID, cart, ok := c.loadCart(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	filled, err := c.Carts.FilledForms(ctx, cart)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if !filled {
		helpers.WriteServiceError(w, r, c.Logger, domain.ErrIncompleteForms)
		return
	}

	draft, err := c.Carts.Booking(ctx, cart)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	draft.Contact = req.Contact
	draft.EmailConfirmation = req.EmailConfirmation
	draft.Billing = req.Billing
	draft.TermsAccepted = req.TermsAccepted
	draft.CopyBillingContact = req.CopyBillingContact
	if req.PaymentMethod != "" {
		draft.PaymentMethod = req.PaymentMethod
	}

	result, err := c.Carts.Commit(ctx, cart, draft)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	// The booking is saved; the staged rows are spent and further edits start from POST /bookings/me/cart.
	if err := c.Carts.Clear(ctx, cart); err != nil {
		c.Logger.WarnContext(ctx, "clear committed cart", "cart_id", cart.ID, "err", err)
	}
	if err := c.Sessions.Delete(ctx, sessionID); err != nil {
		c.Logger.WarnContext(ctx, "delete cart session", "err", err)
	}

	token, err := c.Tokens.Issue(result.Booking.ID, result.Booking.EventID, c.TokenTTL)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	resp := &CommitResponse{CommitResult: result, Password: result.Password, Token: token}
	if view, err := c.Bookings.Show(ctx, result.Booking.ID); err == nil {
		resp.RefNumber = view.RefNumber
	} else {
		c.Logger.WarnContext(ctx, "reference number unavailable", "booking_id", result.Booking.ID, "err", err)
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, resp)
}

// Exit godoc
// @Summary Leave a cart without saving
// @Description Discards the staged delegates and closes the cart session.
// @Tags cart
// @Param sessionID path string true "Cart session ID"
// @Success 204
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /carts/{sessionID} [delete]
func (c *CartController) Exit(w http.ResponseWriter, r *http.Request) {
	sessionID, cart, ok := c.loadCart(w, r)
	if !ok {
		return
	}
	if err := c.Carts.Clear(r.Context(), cart); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if err := c.Sessions.Delete(r.Context(), sessionID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
