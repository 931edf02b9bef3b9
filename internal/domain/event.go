package domain

import (
	"context"
	"time"
)

// Coordinator organises events and owns the booking reference prefix.
type Coordinator struct {
	ID      string `json:"id"`
	Prefix  string `json:"prefix"`
	Country string `json:"country"`
}

// Event is a bookable event.
// swagger:model Event
type Event struct {
	ID                     string          `json:"id"`
	Name                   string          `json:"name"`
	MaxDelegatesPerBooking int             `json:"max_delegates_per_booking"`
	PaymentMethods         []PaymentMethod `json:"payment_methods"`
	Coordinator            *Coordinator    `json:"coordinator"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// DefaultPaymentMethod is the first allowed payment method, or PaymentNone.
func (e *Event) DefaultPaymentMethod() PaymentMethod {
	if len(e.PaymentMethods) == 0 {
		return PaymentNone
	}
	return e.PaymentMethods[0]
}

// AllowsPaymentMethod reports whether m is one of the event's payment methods.
func (e *Event) AllowsPaymentMethod(m PaymentMethod) bool {
	for _, pm := range e.PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

// CoordinatorCountry is the billing-country default for new bookings.
func (e *Event) CoordinatorCountry() string {
	if e.Coordinator == nil {
		return ""
	}
	return e.Coordinator.Country
}

// DelegateType groups packages of an event (e.g. "member", "non-member").
type DelegateType struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	Name    string `json:"name"`
}

// Package is a purchasable offering of a delegate type. EventID is the event owning
// the delegate type and is what the cart validator compares.
type Package struct {
	ID             string `json:"id"`
	DelegateTypeID string `json:"delegate_type_id"`
	EventID        string `json:"event_id"`
	Name           string `json:"name"`
	FreeOfCharge   bool   `json:"free_of_charge"`
	Price          Price  `json:"price"`
}

// EventRepository defines read access to events and their packages.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
	GetPackage(ctx context.Context, id string) (*Package, error)
	GetCoordinatorByPrefix(ctx context.Context, prefix string) (*Coordinator, error)
}
