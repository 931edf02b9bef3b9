package domain

import (
	"context"
	"time"
)

// CartChoice is an option selected for a staged delegate (workshop, dinner, ...).
type CartChoice struct {
	ID             string `json:"id"`
	CartDelegateID string `json:"cart_delegate_id"`
	OptionID       string `json:"option_id"`
	Price          Price  `json:"price"`
}

// DelegateDetails is the attendee data shared by staged and persisted delegates.
type DelegateDetails struct {
	PackageID    string `json:"package_id"`
	Title        string `json:"title"`
	Forename     string `json:"forename"`
	Surname      string `json:"surname"`
	Email        string `json:"email"`
	Tel          string `json:"tel"`
	Organisation string `json:"organisation"`
	FormFilled   bool   `json:"form_filled"`
	Cancelled    bool   `json:"cancelled"`
}

// CartDelegate is a delegate row staged in a cart before commit.
// swagger:model CartDelegate
type CartDelegate struct {
	ID     string `json:"id"`
	CartID string `json:"cart_id"`
	// SourceDelegateID is the persisted delegate this row was loaded from, if any.
	SourceDelegateID string `json:"source_delegate_id,omitempty"`
	DelegateDetails
	Package   *Package     `json:"package,omitempty"`
	Choices   []CartChoice `json:"choices"`
	CreatedAt time.Time    `json:"created_at"`
}

// Total is the package price plus the price of every choice.
func (d *CartDelegate) Total() Price {
	var p Price
	if d.Package != nil {
		p = d.Package.Price
	}
	for _, c := range d.Choices {
		p = p.Add(c.Price)
	}
	return p
}

// IsCancelled implements Chargeable.
func (d *CartDelegate) IsCancelled() bool { return d.Cancelled }

// Delegate is a delegate persisted under a booking.
// swagger:model Delegate
type Delegate struct {
	ID        string `json:"id"`
	BookingID int64  `json:"booking_id"`
	DelegateDetails
	Package   *Package     `json:"package,omitempty"`
	Choices   []CartChoice `json:"choices"`
	CreatedAt time.Time    `json:"created_at"`
}

// ToCartDelegate duplicates d into a staged row of cartID.
func (d *Delegate) ToCartDelegate(cartID string) *CartDelegate {
	choices := make([]CartChoice, len(d.Choices))
	for i, c := range d.Choices {
		choices[i] = CartChoice{OptionID: c.OptionID, Price: c.Price}
	}
	return &CartDelegate{
		CartID:           cartID,
		SourceDelegateID: d.ID,
		DelegateDetails:  d.DelegateDetails,
		Package:          d.Package,
		Choices:          choices,
	}
}

// Total is the package price plus the price of every choice.
func (d *Delegate) Total() Price {
	var p Price
	if d.Package != nil {
		p = d.Package.Price
	}
	for _, c := range d.Choices {
		p = p.Add(c.Price)
	}
	return p
}

// IsCancelled implements Chargeable.
func (d *Delegate) IsCancelled() bool { return d.Cancelled }

// DelegateRepository persists the delegates owned by bookings.
type DelegateRepository interface {
	// SaveFromCart copies a staged row into the booking. A row loaded from a persisted
	// delegate overwrites that delegate (same id); any other row creates a new delegate.
	SaveFromCart(ctx context.Context, bookingID int64, staged *CartDelegate) (*Delegate, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]*Delegate, error)
}
