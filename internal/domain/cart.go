package domain

import (
	"context"
	"strconv"
	"time"
)

// MaxDelegateIndex is the highest staged position a cart addresses.
const MaxDelegateIndex = 100

// Cart is the staging handle for delegate registrations against one event. It owns
// a container row (ID) under which staged delegates live until Commit or Clear.
// Cart is plain data so it can be kept in a session between requests.
// swagger:model Cart
type Cart struct {
	ID             string         `json:"id"`
	EventID        string         `json:"event_id"`
	BookingID      int64          `json:"booking_id"`
	BookingVersion int            `json:"booking_version"`
	DelegateIDs    map[int]string `json:"delegate_ids"`
	NextIndex      int            `json:"next_index"`
	CreatedAt      time.Time      `json:"created_at"`
}

// WasLoaded reports whether the cart edits an existing booking.
func (c *Cart) WasLoaded() bool { return c.BookingID != 0 }

// ParseDelegateIndex parses a staged position from request input.
func ParseDelegateIndex(s string) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrInvalidIndex
	}
	if err := CheckDelegateIndex(idx); err != nil {
		return 0, err
	}
	return idx, nil
}

// CheckDelegateIndex rejects positions outside [0, MaxDelegateIndex].
func CheckDelegateIndex(idx int) error {
	if idx < 0 || idx > MaxDelegateIndex {
		return ErrInvalidIndex
	}
	return nil
}

// CartRepository stores cart containers and their staged rows.
type CartRepository interface {
	CreateCart(ctx context.Context, c *Cart) error
	DeleteCart(ctx context.Context, id string) error
	// CreateDelegate inserts a staged row with its choices and sets the ids.
	CreateDelegate(ctx context.Context, d *CartDelegate) error
	UpdateDelegate(ctx context.Context, d *CartDelegate) error
	GetDelegate(ctx context.Context, cartID, id string) (*CartDelegate, error)
	// ListDelegates returns the staged rows ordered by forename, then surname.
	ListDelegates(ctx context.Context, cartID string) ([]*CartDelegate, error)
	DeleteDelegate(ctx context.Context, cartID, id string) error
	DeleteDelegates(ctx context.Context, cartID string) error
	DeleteChoices(ctx context.Context, cartID string) error
}

// CartSweeper removes staging carts with no row written since before,
// together with their staged delegates and choices.
type CartSweeper interface {
	DeleteIdleCarts(ctx context.Context, before time.Time) (int64, error)
}

// TxStores are the repositories bound to one transaction.
type TxStores struct {
	Carts     CartRepository
	Bookings  BookingRepository
	Delegates DelegateRepository
	Receipts  ReceiptRepository
}

// TxRunner runs fn in a single transaction: every write commits together or none does.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(stores TxStores) error) error
}

// CommitResult is what a successful commit returns.
type CommitResult struct {
	Booking *Booking `json:"booking"`
	Receipt *Receipt `json:"receipt"`
	// Password is the generated access password, set on a booking's first save only.
	Password      string                `json:"-"`
	Notifications []BookingNotification `json:"notifications"`
	// Warnings holds notifier failures; they never undo the commit.
	Warnings []string `json:"warnings,omitempty"`
}

// CartService stages delegates for an event and commits them into a booking.
type CartService interface {
	Create(ctx context.Context, eventID string, bookingID int64) (*Cart, error)
	AddDelegate(ctx context.Context, cart *Cart, delegateID string) (int, error)
	StageDelegate(ctx context.Context, cart *Cart, d *CartDelegate) (int, error)
	UpdateDelegate(ctx context.Context, cart *Cart, idx int, details DelegateDetails) (*CartDelegate, error)
	Delegates(ctx context.Context, cart *Cart) ([]*CartDelegate, error)
	ActiveDelegates(ctx context.Context, cart *Cart) ([]*CartDelegate, error)
	DelegateAt(ctx context.Context, cart *Cart, idx int) (*CartDelegate, error)
	FilledForms(ctx context.Context, cart *Cart) (bool, error)
	FreeOfCharge(ctx context.Context, cart *Cart) (bool, error)
	Total(ctx context.Context, cart *Cart, mode TotalMode) (total int64, ok bool, err error)
	Clear(ctx context.Context, cart *Cart) error
	Booking(ctx context.Context, cart *Cart) (*Booking, error)
	Commit(ctx context.Context, cart *Cart, draft *Booking) (*CommitResult, error)
}

// CartSessionStore keeps carts between requests, keyed by an opaque session id.
type CartSessionStore interface {
	Save(ctx context.Context, sessionID string, c *Cart) error
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Delete(ctx context.Context, sessionID string) error
}
