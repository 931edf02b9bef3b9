package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delegatebooking/internal/domain"
)

func TestCartService_Commit_newBooking(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 5)
	cart := env.newCart(t)
	env.stage(t, cart, "Ann", env.paid)
	env.stage(t, cart, "Bob", env.paid)

	res, err := env.carts.Commit(ctx, cart, validDraft())
	require.NoError(t, err)

	b := res.Booking
	assert.NotZero(t, b.ID)
	assert.Equal(t, 0, b.Version)
	assert.Equal(t, testEventID, b.EventID)
	assert.Len(t, b.Delegates, 2)
	assert.Equal(t, b.ID, cart.BookingID, "cart is bound to the new booking")
	assert.Equal(t, testPassword, res.Password)
	assert.Equal(t, "hash-"+testPassword, b.PasswordHash)

	require.NotNil(t, res.Receipt)
	assert.Equal(t, b.Billing, res.Receipt.Billing)
	assert.Equal(t, domain.PaymentInvoice, res.Receipt.PaymentMethod)
	assert.Equal(t, domain.ReceiptOfflinePayment, res.Receipt.Type)

	bookings, delegates, receipts := env.store.Counts()
	assert.Equal(t, 1, bookings)
	assert.Equal(t, 2, delegates)
	assert.Equal(t, 1, receipts)

	assert.ElementsMatch(t, []string{"coordinator_new_booking", "delegate_new_booking"}, env.notifier.keys())
	assert.Empty(t, res.Warnings)
}

func TestCartService_Commit_emptyCart(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 5)

	t.Run("new booking", func(t *testing.T) {
		cart := env.newCart(t)
		_, err := env.carts.Commit(ctx, cart, validDraft())
		require.ErrorIs(t, err, domain.ErrEmptyCartOnCommit)

		bookings, delegates, receipts := env.store.Counts()
		assert.Zero(t, bookings)
		assert.Zero(t, delegates)
		assert.Zero(t, receipts)
		assert.Zero(t, cart.BookingID)
		assert.Empty(t, env.notifier.keys())
	})

	t.Run("caller draft untouched", func(t *testing.T) {
		cart := env.newCart(t)
		draft := validDraft()
		_, err := env.carts.Commit(ctx, cart, draft)
		require.ErrorIs(t, err, domain.ErrEmptyCartOnCommit)
		assert.True(t, draft.IsNew(), "caller draft is left untouched")
		assert.Equal(t, "Accounts", draft.Billing.Contact)
	})
}

func TestCartService_Commit_validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*domain.Booking)
		field  string
	}{
		{name: "email confirmation mismatch", mutate: func(b *domain.Booking) { b.EmailConfirmation = "other@example.com" }, field: "email"},
		{name: "terms not accepted", mutate: func(b *domain.Booking) { b.TermsAccepted = false }, field: "terms_accepted"},
		{name: "malformed email", mutate: func(b *domain.Booking) {
			b.Contact.Email = "not-an-email"
			b.EmailConfirmation = "not-an-email"
		}, field: "email"},
		{name: "malformed billing email", mutate: func(b *domain.Booking) { b.Billing.Email = "nope" }, field: "bill_email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 5)
			cart := env.newCart(t)
			env.stage(t, cart, "Ann", env.paid)
			draft := validDraft()
			tt.mutate(draft)

			_, err := env.carts.Commit(ctx, cart, draft)
			require.ErrorIs(t, err, domain.ErrValidation)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)

			bookings, _, receipts := env.store.Counts()
			assert.Zero(t, bookings)
			assert.Zero(t, receipts)
		})
	}
}

func TestCartService_Commit_staleVersion(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 5)
	saved := env.commitNew(t, "Ann", "Bob")

	first, err := env.carts.Create(ctx, testEventID, saved.Booking.ID)
	require.NoError(t, err)
	second, err := env.carts.Create(ctx, testEventID, saved.Booking.ID)
	require.NoError(t, err)

	draftA, err := env.carts.Booking(ctx, first)
	require.NoError(t, err)
	draftB, err := env.carts.Booking(ctx, second)
	require.NoError(t, err)

	_, err = env.carts.Commit(ctx, first, draftA)
	require.NoError(t, err)
	_, err = env.carts.Commit(ctx, second, draftB)
	require.ErrorIs(t, err, domain.ErrStaleBookingVersion)

	b, err := env.bookings.Get(ctx, saved.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Version)
	_, delegates, receipts := env.store.Counts()
	assert.Equal(t, 2, delegates)
	assert.Equal(t, 2, receipts, "the stale commit left no receipt behind")
}

func TestCartService_Commit_concurrentEditors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 5)
	saved := env.commitNew(t, "Ann")

	const editors = 2
	carts := make([]*domain.Cart, editors)
	drafts := make([]*domain.Booking, editors)
	for i := range carts {
		cart, err := env.carts.Create(ctx, testEventID, saved.Booking.ID)
		require.NoError(t, err)
		draft, err := env.carts.Booking(ctx, cart)
		require.NoError(t, err)
		carts[i], drafts[i] = cart, draft
	}

	errs := make([]error, editors)
	var wg sync.WaitGroup
	for i := range carts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.carts.Commit(ctx, carts[i], drafts[i])
		}()
	}
	wg.Wait()

	var ok, stale int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrStaleBookingVersion):
			stale++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, stale)
}

func TestCartService_Commit_roundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 5)
	saved := env.commitNew(t, "Ann", "Bob", "Cid")

	// cancel one delegate so the round trip covers a mixed booking
	edit, err := env.carts.Create(ctx, testEventID, saved.Booking.ID)
	require.NoError(t, err)
	row, err := env.carts.DelegateAt(ctx, edit, 2)
	require.NoError(t, err)
	details := row.DelegateDetails
	details.Cancelled = true
	_, err = env.carts.UpdateDelegate(ctx, edit, 2, details)
	require.NoError(t, err)
	draft, err := env.carts.Booking(ctx, edit)
	require.NoError(t, err)
	_, err = env.carts.Commit(ctx, edit, draft)
	require.NoError(t, err)

	before, err := env.bookings.Get(ctx, saved.Booking.ID)
	require.NoError(t, err)

	cart, err := env.carts.Create(ctx, testEventID, saved.Booking.ID)
	require.NoError(t, err)
	draft, err = env.carts.Booking(ctx, cart)
	require.NoError(t, err)
	res, err := env.carts.Commit(ctx, cart, draft)
	require.NoError(t, err)

	after, err := env.bookings.Get(ctx, saved.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, activeIDs(before), activeIDs(after))
	assert.Len(t, activeIDs(after), 2)
	assert.Equal(t, before.Version+1, after.Version)
	assert.Equal(t, after.Version, res.Booking.Version)
	assert.Empty(t, res.Password, "password is generated on the first save only")
	assert.Equal(t, "hash-"+testPassword, after.PasswordHash)

	_, delegates, _ := env.store.Counts()
	assert.Equal(t, 3, delegates, "persisted delegates are overwritten, not duplicated")
}

func activeIDs(b *domain.Booking) []string {
	ids := make([]string, 0, len(b.Delegates))
	for _, d := range b.ActiveDelegates() {
		ids = append(ids, d.ID)
	}
	sort.Strings(ids)
	return ids
}

func TestCartService_Commit_billingDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("free of charge", func(t *testing.T) {
		env := newTestEnv(t, 5)
		cart := env.newCart(t)
		env.stage(t, cart, "Ann", env.free)
		env.stage(t, cart, "Bob", env.free)

		res, err := env.carts.Commit(ctx, cart, validDraft())
		require.NoError(t, err)
		billing := res.Booking.Billing
		assert.Equal(t, domain.BillingPlaceholder, billing.Contact)
		assert.Equal(t, domain.BillingPlaceholder, billing.Address[4])
		assert.Equal(t, domain.BillingPlaceholder, billing.Country)
		assert.Equal(t, "jane@example.com", billing.Email)
		assert.Equal(t, domain.PaymentNone, res.Booking.PaymentMethod)
		assert.Equal(t, domain.ReceiptNullPayment, res.Receipt.Type)
	})

	t.Run("single delegate fills blank contact fields", func(t *testing.T) {
		env := newTestEnv(t, 5)
		cart := env.newCart(t)
		env.stage(t, cart, "Ann", env.paid)
		draft := validDraft()
		draft.Contact.Forename = ""
		draft.Contact.Title = ""

		res, err := env.carts.Commit(ctx, cart, draft)
		require.NoError(t, err)
		assert.Equal(t, "Ann", res.Booking.Contact.Forename)
		assert.Equal(t, "Dr", res.Booking.Contact.Title)
		assert.Equal(t, "Doe", res.Booking.Contact.Surname, "non-blank fields are kept")
		assert.Equal(t, "0123", res.Booking.Contact.Tel)
	})

	t.Run("copy billing contact wins", func(t *testing.T) {
		env := newTestEnv(t, 5)
		cart := env.newCart(t)
		env.stage(t, cart, "Ann", env.free)
		draft := validDraft()
		draft.CopyBillingContact = true

		res, err := env.carts.Commit(ctx, cart, draft)
		require.NoError(t, err)
		billing := res.Booking.Billing
		assert.Equal(t, "Jane Doe", billing.Contact)
		assert.Equal(t, "Acme", billing.Organisation)
		assert.Equal(t, "1 High St", billing.Address[0])
		assert.Equal(t, "LS1 1AA", billing.Postcode)
		assert.Equal(t, billing, res.Receipt.Billing)
	})

	t.Run("existing booking keeps its billing", func(t *testing.T) {
		env := newTestEnv(t, 5)
		saved := env.commitNew(t, "Ann")
		cart, err := env.carts.Create(ctx, testEventID, saved.Booking.ID)
		require.NoError(t, err)
		draft, err := env.carts.Booking(ctx, cart)
		require.NoError(t, err)
		draft.Contact.Tel = ""

		res, err := env.carts.Commit(ctx, cart, draft)
		require.NoError(t, err)
		assert.Empty(t, res.Booking.Contact.Tel)
		assert.Equal(t, "Accounts", res.Booking.Billing.Contact)
	})
}

func TestCartService_Commit_notifications(t *testing.T) {
	ctx := context.Background()

	t.Run("amended", func(t *testing.T) {
		env := newTestEnv(t, 5)
		saved := env.commitNew(t, "Ann", "Bob")
		env.notifier.sent = nil

		cart, err := env.carts.Create(ctx, testEventID, saved.Booking.ID)
		require.NoError(t, err)
		draft, err := env.carts.Booking(ctx, cart)
		require.NoError(t, err)
		res, err := env.carts.Commit(ctx, cart, draft)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"coordinator_amended_booking", "delegate_amended_booking"}, env.notifier.keys())
		for _, n := range res.Notifications {
			assert.Equal(t, "ABC"+strconv.FormatInt(saved.Booking.ID, 10), n.RefNumber)
			assert.Empty(t, n.Password)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		env := newTestEnv(t, 5)
		saved := env.commitNew(t, "Ann")
		env.notifier.sent = nil

		cart, err := env.carts.Create(ctx, testEventID, saved.Booking.ID)
		require.NoError(t, err)
		row, err := env.carts.DelegateAt(ctx, cart, 0)
		require.NoError(t, err)
		details := row.DelegateDetails
		details.Cancelled = true
		_, err = env.carts.UpdateDelegate(ctx, cart, 0, details)
		require.NoError(t, err)
		draft, err := env.carts.Booking(ctx, cart)
		require.NoError(t, err)
		_, err = env.carts.Commit(ctx, cart, draft)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"coordinator_cancelled_booking", "delegate_cancelled_booking"}, env.notifier.keys())
	})

	t.Run("pending online payment", func(t *testing.T) {
		env := newTestEnv(t, 5)
		cart := env.newCart(t)
		env.stage(t, cart, "Ann", env.paid)
		draft := validDraft()
		draft.PaymentMethod = domain.PaymentPaypal

		res, err := env.carts.Commit(ctx, cart, draft)
		require.NoError(t, err)
		assert.Equal(t, domain.ReceiptOnlinePayment, res.Receipt.Type)
		assert.ElementsMatch(t, []string{"coordinator_new_booking", "delegate_before_paypal_booking"}, env.notifier.keys())
	})

	t.Run("disallowed method falls back to the event default", func(t *testing.T) {
		env := newTestEnv(t, 5)
		cart := env.newCart(t)
		env.stage(t, cart, "Ann", env.paid)
		draft := validDraft()
		draft.PaymentMethod = domain.PaymentDatacash

		res, err := env.carts.Commit(ctx, cart, draft)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentInvoice, res.Booking.PaymentMethod)
	})

	t.Run("notifier failure is a warning", func(t *testing.T) {
		env := newTestEnv(t, 5)
		env.notifier.err = errors.New("broker down")
		cart := env.newCart(t)
		env.stage(t, cart, "Ann", env.paid)

		res, err := env.carts.Commit(ctx, cart, validDraft())
		require.NoError(t, err)
		assert.Len(t, res.Warnings, 2)
		assert.Contains(t, res.Warnings[0], "broker down")
		bookings, _, _ := env.store.Counts()
		assert.Equal(t, 1, bookings)
	})
}
