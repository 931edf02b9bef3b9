package domain

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// AddressLines is the fixed five-line postal address.
type AddressLines [5]string

// Joined returns the non-blank lines separated by newlines.
func (a AddressLines) Joined() string {
	lines := make([]string, 0, len(a))
	for _, l := range a {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

// ContactDetails is the booking contact block.
type ContactDetails struct {
	Title        string       `json:"title"`
	Forename     string       `json:"forename"`
	Surname      string       `json:"surname"`
	Organisation string       `json:"organisation"`
	JobTitle     string       `json:"job_title"`
	Address      AddressLines `json:"address"`
	Postcode     string       `json:"postcode"`
	Country      string       `json:"country"`
	Tel          string       `json:"tel"`
	Fax          string       `json:"fax"`
	Email        string       `json:"email"`
}

// FullName joins title, forename and surname.
func (c ContactDetails) FullName() string {
	return strings.TrimSpace(strings.Join([]string{c.Title, c.Forename, c.Surname}, " "))
}

// BillingDetails is the billing block copied onto every receipt.
type BillingDetails struct {
	Contact      string       `json:"contact"`
	Organisation string       `json:"organisation"`
	JobTitle     string       `json:"job_title"`
	Address      AddressLines `json:"address"`
	Postcode     string       `json:"postcode"`
	Country      string       `json:"country"`
	Tel          string       `json:"tel"`
	Fax          string       `json:"fax"`
	Email        string       `json:"email"`
}

// Booking is the durable, versioned registration aggregate.
// swagger:model Booking
type Booking struct {
	ID                 int64          `json:"id"`
	EventID            string         `json:"event_id"`
	Contact            ContactDetails `json:"contact"`
	EmailConfirmation  string         `json:"-"`
	Billing            BillingDetails `json:"billing"`
	TermsAccepted      bool           `json:"terms_accepted"`
	CopyBillingContact bool           `json:"-"`
	PaymentMethod      PaymentMethod  `json:"payment_method"`
	Version            int            `json:"version"`
	PasswordHash       string         `json:"-"`
	Delegates          []*Delegate    `json:"delegates"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// IsNew reports whether the booking has not been persisted yet.
func (b *Booking) IsNew() bool { return b.ID == 0 }

// RefNumber is the human-facing reference: coordinator prefix followed by the id.
func (b *Booking) RefNumber(prefix string) string {
	return prefix + strconv.FormatInt(b.ID, 10)
}

// AllCancelled reports whether every delegate of the booking is cancelled.
// A booking without delegates counts as cancelled.
func (b *Booking) AllCancelled() bool {
	for _, d := range b.Delegates {
		if !d.Cancelled {
			return false
		}
	}
	return true
}

// ActiveDelegates returns the non-cancelled delegates.
func (b *Booking) ActiveDelegates() []*Delegate {
	out := make([]*Delegate, 0, len(b.Delegates))
	for _, d := range b.Delegates {
		if !d.Cancelled {
			out = append(out, d)
		}
	}
	return out
}

const refPrefixLen = 3

var refIDPattern = regexp.MustCompile(`^\d+$`)

// ParseRefNumber splits a reference number into coordinator prefix and booking id.
func ParseRefNumber(ref string) (prefix string, id int64, ok bool) {
	if len(ref) <= refPrefixLen {
		return "", 0, false
	}
	prefix, rest := ref[:refPrefixLen], ref[refPrefixLen:]
	if !refIDPattern.MatchString(rest) {
		return "", 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return "", 0, false
	}
	return prefix, id, true
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Validate checks the fields required before a booking may be saved.
func (b *Booking) Validate() error {
	verr := &ValidationError{}
	if !emailPattern.MatchString(b.Contact.Email) {
		verr.Add("email", "is invalid")
	}
	if b.Billing.Email != "" && !emailPattern.MatchString(b.Billing.Email) {
		verr.Add("bill_email", "is invalid")
	}
	if b.EmailConfirmation != b.Contact.Email {
		verr.Add("email", "doesn't match confirmation")
	}
	if !b.TermsAccepted {
		verr.Add("terms_accepted", "must be accepted")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// CleanStrings trims surrounding whitespace from every contact and billing field.
func (b *Booking) CleanStrings() {
	for _, f := range contactFields {
		p := f.field(&b.Contact)
		*p = strings.TrimSpace(*p)
	}
	for _, f := range billingFields {
		p := f.field(&b.Billing)
		*p = strings.TrimSpace(*p)
	}
	b.EmailConfirmation = strings.TrimSpace(b.EmailConfirmation)
}

// VersionCheck is the outcome of a compare-and-swap update on a booking.
type VersionCheck int

const (
	VersionApplied VersionCheck = iota
	VersionConflict
)

// BookingRepository persists bookings.
type BookingRepository interface {
	// Create inserts a new booking and sets its ID, timestamps and Version (0).
	Create(ctx context.Context, b *Booking) error
	// UpdateIfVersion writes b only when the stored version equals expected and
	// increments it. Zero affected rows yields VersionConflict, not an error.
	UpdateIfVersion(ctx context.Context, b *Booking, expected int) (VersionCheck, error)
	GetByID(ctx context.Context, id int64) (*Booking, error)
	GetForEvent(ctx context.Context, eventID string, id int64) (*Booking, error)
	UpdateBilling(ctx context.Context, id int64, billing BillingDetails) error
}

// Total sums the delegates that are not cancelled. ok is false when none qualify.
func (b *Booking) Total(mode TotalMode) (int64, bool) {
	return SumPrices(b.Delegates, mode)
}

// BookingView is a booking as shown to its contact.
// swagger:model BookingView
type BookingView struct {
	Booking         *Booking    `json:"booking"`
	RefNumber       string      `json:"ref_number"`
	ActiveDelegates []*Delegate `json:"active_delegates"`
	CurrentReceipt  *Receipt    `json:"current_receipt,omitempty"`
	Total           *int64      `json:"total"`
	PartialTotal    *int64      `json:"partial_total"`
}

// BookingService reads saved bookings and maintains their billing details.
type BookingService interface {
	Get(ctx context.Context, id int64) (*Booking, error)
	FindByRefNumber(ctx context.Context, ref string) (*Booking, error)
	Show(ctx context.Context, id int64) (*BookingView, error)
	Total(b *Booking, mode TotalMode) (int64, bool)
	CurrentPaymentReceipt(ctx context.Context, id int64) (*Receipt, error)
	UpdateBillingDetails(ctx context.Context, id int64, billing BillingDetails) (*Receipt, error)
	Packages(ctx context.Context, id int64) ([]*Package, error)
	DelegateTypes(ctx context.Context, id int64) ([]string, error)
	Remind(ctx context.Context, id int64) ([]BookingNotification, error)
}
