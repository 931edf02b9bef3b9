package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"delegatebooking/internal/domain"
	"delegatebooking/internal/metrics"
	"delegatebooking/internal/repository/memory"
)

// fakeNotifier records notifications and fails with err when set.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.BookingNotification
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, n domain.BookingNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, n := range f.sent {
		out = append(out, n.Key)
	}
	return out
}

// fakePasswordHasher implements domain.PasswordHasher for tests.
type fakePasswordHasher struct{}

func (fakePasswordHasher) Hash(password string) (string, error) { return "hash-" + password, nil }
func (fakePasswordHasher) Compare(hash, password string) error {
	if hash != "hash-"+password {
		return domain.ErrInvalidToken
	}
	return nil
}

// fakePasswordGenerator always returns the same password.
type fakePasswordGenerator struct{ password string }

func (f fakePasswordGenerator) Generate() (string, error) { return f.password, nil }

const (
	testEventID      = "ev-1"
	otherEventID     = "ev-2"
	testPassword     = "Abc12345"
	coordinatorEmail = "office@example.com"
)

type testEnv struct {
	store    *memory.Store
	notifier *fakeNotifier
	event    *domain.Event
	paid     *domain.Package
	free     *domain.Package
	foreign  *domain.Package
	carts    domain.CartService
	bookings domain.BookingService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, maxDelegates int) *testEnv {
	t.Helper()
	store := memory.NewStore()
	event := &domain.Event{
		ID:                     testEventID,
		Name:                   "Annual Conference",
		MaxDelegatesPerBooking: maxDelegates,
		PaymentMethods:         []domain.PaymentMethod{domain.PaymentInvoice, domain.PaymentPaypal},
		Coordinator:            &domain.Coordinator{ID: "co-1", Prefix: "ABC", Country: "GB"},
	}
	store.AddEvent(event)
	store.AddEvent(&domain.Event{
		ID:                     otherEventID,
		Name:                   "Other Event",
		MaxDelegatesPerBooking: 10,
		Coordinator:            &domain.Coordinator{ID: "co-2", Prefix: "XYZ", Country: "FR"},
	})
	env := &testEnv{
		store:    store,
		notifier: &fakeNotifier{},
		event:    event,
		paid:     &domain.Package{ID: "pkg-paid", DelegateTypeID: "dt-member", EventID: testEventID, Name: "Full", Price: domain.Price{Gross: 10, Partial: 5}},
		free:     &domain.Package{ID: "pkg-free", DelegateTypeID: "dt-guest", EventID: testEventID, Name: "Guest", FreeOfCharge: true},
		foreign:  &domain.Package{ID: "pkg-foreign", DelegateTypeID: "dt-other", EventID: otherEventID, Name: "Other"},
	}
	store.AddPackage(env.paid)
	store.AddPackage(env.free)
	store.AddPackage(env.foreign)

	m := metrics.New(prometheus.NewRegistry())
	dispatcher := NewNotificationDispatcher(env.notifier, coordinatorEmail, discardLogger(), m)
	env.carts = NewCartService(store, store.Stores(), store, dispatcher,
		fakePasswordHasher{}, fakePasswordGenerator{password: testPassword},
		discardLogger(), m, 5*time.Second)
	env.bookings = NewBookingService(store, store.Stores(), store, dispatcher, discardLogger(), 5*time.Second)
	return env
}

func (e *testEnv) newCart(t *testing.T) *domain.Cart {
	t.Helper()
	cart, err := e.carts.Create(context.Background(), testEventID, 0)
	require.NoError(t, err)
	return cart
}

// stage adds a filled delegate on pkg and returns its index.
func (e *testEnv) stage(t *testing.T, cart *domain.Cart, forename string, pkg *domain.Package) int {
	t.Helper()
	idx, err := e.carts.StageDelegate(context.Background(), cart, newDelegate(forename, pkg.ID))
	require.NoError(t, err)
	return idx
}

func newDelegate(forename, packageID string) *domain.CartDelegate {
	return &domain.CartDelegate{DelegateDetails: domain.DelegateDetails{
		PackageID:  packageID,
		Title:      "Dr",
		Forename:   forename,
		Surname:    "Smith",
		Email:      forename + "@example.com",
		Tel:        "0123",
		FormFilled: true,
	}}
}

func validDraft() *domain.Booking {
	return &domain.Booking{
		Contact: domain.ContactDetails{
			Forename:     "Jane",
			Surname:      "Doe",
			Organisation: "Acme",
			Address:      domain.AddressLines{"1 High St", "Leeds"},
			Postcode:     "LS1 1AA",
			Country:      "GB",
			Email:        "jane@example.com",
		},
		EmailConfirmation: "jane@example.com",
		Billing:           domain.BillingDetails{Contact: "Accounts", Email: "accounts@example.com"},
		TermsAccepted:     true,
		PaymentMethod:     domain.PaymentInvoice,
	}
}

// commitNew stages the given forenames on the paid package and commits a new booking.
func (e *testEnv) commitNew(t *testing.T, forenames ...string) *domain.CommitResult {
	t.Helper()
	cart := e.newCart(t)
	for _, f := range forenames {
		e.stage(t, cart, f, e.paid)
	}
	res, err := e.carts.Commit(context.Background(), cart, validDraft())
	require.NoError(t, err)
	return res
}
