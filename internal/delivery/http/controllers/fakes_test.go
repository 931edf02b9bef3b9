package controllers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"delegatebooking/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeCartService implements domain.CartService for handler tests.
type fakeCartService struct {
	err         error
	commitErr   error
	rows        []*domain.CartDelegate
	total       int64
	chargeable  bool
	filled      bool
	draft       *domain.Booking
	lastEventID string
	lastBooking int64
	lastStaged  *domain.CartDelegate
	lastAdded   string
	lastDetails domain.DelegateDetails
	lastDraft   *domain.Booking
	cleared     bool
}

func (f *fakeCartService) Create(ctx context.Context, eventID string, bookingID int64) (*domain.Cart, error) {
	f.lastEventID, f.lastBooking = eventID, bookingID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Cart{ID: "cart-1", EventID: eventID, BookingID: bookingID, DelegateIDs: map[int]string{}}, nil
}

func (f *fakeCartService) AddDelegate(ctx context.Context, cart *domain.Cart, delegateID string) (int, error) {
	f.lastAdded = delegateID
	if f.err != nil {
		return 0, f.err
	}
	cart.DelegateIDs[cart.NextIndex] = delegateID
	cart.NextIndex++
	return cart.NextIndex - 1, nil
}

func (f *fakeCartService) StageDelegate(ctx context.Context, cart *domain.Cart, d *domain.CartDelegate) (int, error) {
	f.lastStaged = d
	if f.err != nil {
		return 0, f.err
	}
	d.ID = "cd-new"
	d.CartID = cart.ID
	return f.AddDelegate(ctx, cart, d.ID)
}

func (f *fakeCartService) UpdateDelegate(ctx context.Context, cart *domain.Cart, idx int, details domain.DelegateDetails) (*domain.CartDelegate, error) {
	f.lastDetails = details
	if f.err != nil {
		return nil, f.err
	}
	id, ok := cart.DelegateIDs[idx]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.CartDelegate{ID: id, CartID: cart.ID, DelegateDetails: details}, nil
}

func (f *fakeCartService) Delegates(ctx context.Context, cart *domain.Cart) ([]*domain.CartDelegate, error) {
	return f.rows, f.err
}

func (f *fakeCartService) ActiveDelegates(ctx context.Context, cart *domain.Cart) ([]*domain.CartDelegate, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.CartDelegate
	for _, d := range f.rows {
		if !d.Cancelled {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeCartService) DelegateAt(ctx context.Context, cart *domain.Cart, idx int) (*domain.CartDelegate, error) {
	if f.err != nil {
		return nil, f.err
	}
	id, ok := cart.DelegateIDs[idx]
	if !ok {
		return nil, nil
	}
	return &domain.CartDelegate{ID: id, CartID: cart.ID}, nil
}

func (f *fakeCartService) FilledForms(ctx context.Context, cart *domain.Cart) (bool, error) {
	return f.filled, f.err
}

func (f *fakeCartService) FreeOfCharge(ctx context.Context, cart *domain.Cart) (bool, error) {
	return !f.chargeable, f.err
}

func (f *fakeCartService) Total(ctx context.Context, cart *domain.Cart, mode domain.TotalMode) (int64, bool, error) {
	return f.total, f.chargeable, f.err
}

func (f *fakeCartService) Clear(ctx context.Context, cart *domain.Cart) error {
	f.cleared = true
	return f.err
}

func (f *fakeCartService) Booking(ctx context.Context, cart *domain.Cart) (*domain.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.draft != nil {
		return f.draft, nil
	}
	return &domain.Booking{EventID: cart.EventID, PaymentMethod: domain.PaymentInvoice}, nil
}

func (f *fakeCartService) Commit(ctx context.Context, cart *domain.Cart, draft *domain.Booking) (*domain.CommitResult, error) {
	f.lastDraft = draft
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	saved := *draft
	saved.ID = 42
	saved.Version = cart.BookingVersion + 1
	cart.BookingID = saved.ID
	cart.BookingVersion = saved.Version
	return &domain.CommitResult{
		Booking:  &saved,
		Receipt:  &domain.Receipt{ID: "rc-1", BookingID: saved.ID},
		Password: "s3cretPw",
	}, nil
}

// fakeSessions implements domain.CartSessionStore in memory.
type fakeSessions struct {
	carts   map[string]*domain.Cart
	saveErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{carts: map[string]*domain.Cart{}}
}

func (f *fakeSessions) Save(ctx context.Context, sessionID string, c *domain.Cart) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *c
	f.carts[sessionID] = &cp
	return nil
}

func (f *fakeSessions) Load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	c, ok := f.carts[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeSessions) Delete(ctx context.Context, sessionID string) error {
	delete(f.carts, sessionID)
	return nil
}

// fakeBookingService implements domain.BookingService for handler tests.
type fakeBookingService struct {
	booking     *domain.Booking
	err         error
	findErr     error
	receipt     *domain.Receipt
	packages    []*domain.Package
	types       []string
	sent        []domain.BookingNotification
	lastBilling domain.BillingDetails
}

func (f *fakeBookingService) Get(ctx context.Context, id int64) (*domain.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.booking == nil || f.booking.ID != id {
		return nil, domain.ErrNotFound
	}
	return f.booking, nil
}

func (f *fakeBookingService) FindByRefNumber(ctx context.Context, ref string) (*domain.Booking, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.booking == nil || f.booking.RefNumber("ABC") != ref {
		return nil, domain.ErrNotFound
	}
	return f.booking, nil
}

func (f *fakeBookingService) Show(ctx context.Context, id int64) (*domain.BookingView, error) {
	if f.err != nil {
		return nil, f.err
	}
	b := f.booking
	if b == nil || b.ID != id {
		b = &domain.Booking{ID: id}
	}
	return &domain.BookingView{Booking: b, RefNumber: b.RefNumber("ABC")}, nil
}

func (f *fakeBookingService) Total(b *domain.Booking, mode domain.TotalMode) (int64, bool) {
	return b.Total(mode)
}

func (f *fakeBookingService) CurrentPaymentReceipt(ctx context.Context, id int64) (*domain.Receipt, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.receipt == nil {
		return nil, domain.ErrNotFound
	}
	return f.receipt, nil
}

func (f *fakeBookingService) UpdateBillingDetails(ctx context.Context, id int64, billing domain.BillingDetails) (*domain.Receipt, error) {
	f.lastBilling = billing
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Receipt{ID: "rc-1", BookingID: id, Billing: billing}, nil
}

func (f *fakeBookingService) Packages(ctx context.Context, id int64) ([]*domain.Package, error) {
	return f.packages, f.err
}

func (f *fakeBookingService) DelegateTypes(ctx context.Context, id int64) ([]string, error) {
	return f.types, f.err
}

func (f *fakeBookingService) Remind(ctx context.Context, id int64) ([]domain.BookingNotification, error) {
	return f.sent, f.err
}

// fakeTokens issues predictable tokens.
type fakeTokens struct {
	err error
}

func (f *fakeTokens) Issue(bookingID int64, eventID string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-" + eventID, nil
}

// fakeHasher treats "hash:<pw>" as the hash of pw.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hash:" + password, nil }

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hash:"+password {
		return errors.New("mismatch")
	}
	return nil
}
