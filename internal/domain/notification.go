package domain

import "context"

// NotificationKind enumerates what a saved booking should tell its recipients.
type NotificationKind int

const (
	NotificationNone NotificationKind = iota
	NotificationNewBooking
	NotificationAmendedBooking
	NotificationCancelledBooking
	NotificationPendingPayment
)

// NotificationType is a decided notification. Provider is set for pending payments only.
type NotificationType struct {
	Kind     NotificationKind
	Provider string
}

// Name is the registry name of the type, e.g. "amended_booking" or "before_paypal_booking".
func (t NotificationType) Name() string {
	switch t.Kind {
	case NotificationNewBooking:
		return "new_booking"
	case NotificationAmendedBooking:
		return "amended_booking"
	case NotificationCancelledBooking:
		return "cancelled_booking"
	case NotificationPendingPayment:
		return "before_" + t.Provider + "_booking"
	default:
		return ""
	}
}

// Key prefixes the type name with the destination, e.g. "delegate_new_booking".
// It is empty for NotificationNone.
func (t NotificationType) Key(dest Destination) string {
	name := t.Name()
	if name == "" {
		return ""
	}
	return string(dest) + "_" + name
}

// Destination is the audience of a booking notification.
type Destination string

const (
	DestinationCoordinator Destination = "coordinator"
	DestinationDelegate    Destination = "delegate"
)

// Destinations returns who is told about a saved booking. Reminders go to the delegate only.
func Destinations(reminder bool) []Destination {
	if reminder {
		return []Destination{DestinationDelegate}
	}
	return []Destination{DestinationCoordinator, DestinationDelegate}
}

// NotificationInput is everything DecideNotification looks at.
type NotificationInput struct {
	Persisted       bool
	FirstSave       bool
	AllCancelled    bool
	VersionAdvanced bool
	Destination     Destination
	// PendingOnlineProvider is the provider of the current receipt when it awaits an
	// online payment, empty otherwise.
	PendingOnlineProvider string
}

// DecideNotification maps the state of a saved booking to the notification to send.
func DecideNotification(in NotificationInput) NotificationType {
	if !in.Persisted {
		return NotificationType{Kind: NotificationNone}
	}
	t := NotificationType{Kind: NotificationNewBooking}
	if !in.FirstSave && in.VersionAdvanced {
		if in.AllCancelled {
			t.Kind = NotificationCancelledBooking
		} else {
			t.Kind = NotificationAmendedBooking
		}
	}
	if in.Destination == DestinationDelegate && in.PendingOnlineProvider != "" {
		t = NotificationType{Kind: NotificationPendingPayment, Provider: in.PendingOnlineProvider}
	}
	return t
}

// NotificationRegistry lists the notification keys that have an email behind them.
var NotificationRegistry = map[string]bool{
	"coordinator_new_booking":          true,
	"coordinator_amended_booking":      true,
	"coordinator_cancelled_booking":    true,
	"delegate_new_booking":             true,
	"delegate_amended_booking":         true,
	"delegate_cancelled_booking":       true,
	"delegate_before_paypal_booking":   true,
	"delegate_before_datacash_booking": true,
}

// BookingNotification is the message handed to a Notifier after a booking is saved.
type BookingNotification struct {
	Key         string      `json:"key"`
	Destination Destination `json:"destination"`
	BookingID   int64       `json:"booking_id"`
	RefNumber   string      `json:"ref_number"`
	EventID     string      `json:"event_id"`
	EventName   string      `json:"event_name"`
	Recipient   string      `json:"recipient"`
	ContactName string      `json:"contact_name"`
	Delegates   []string    `json:"delegates"`
	Total       int64       `json:"total"`
	Password    string      `json:"password,omitempty"`
}

// Notifier delivers booking notifications (queue, email, ...).
type Notifier interface {
	Notify(ctx context.Context, n BookingNotification) error
}
