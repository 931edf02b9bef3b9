package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"delegatebooking/internal/domain"
	"delegatebooking/internal/metrics"
)

const maxConcurrentNotifications = 4

// NotificationDispatcher decides which booking notifications apply and hands them to a Notifier.
type NotificationDispatcher struct {
	notifier         domain.Notifier
	coordinatorEmail string
	logger           *slog.Logger
	metrics          *metrics.Metrics
}

// NewNotificationDispatcher returns a dispatcher sending coordinator copies to coordinatorEmail.
func NewNotificationDispatcher(notifier domain.Notifier, coordinatorEmail string, logger *slog.Logger, m *metrics.Metrics) *NotificationDispatcher {
	return &NotificationDispatcher{
		notifier:         notifier,
		coordinatorEmail: coordinatorEmail,
		logger:           logger,
		metrics:          m,
	}
}

// savedBooking describes a booking right after it was written.
type savedBooking struct {
	event       *domain.Event
	booking     *domain.Booking
	receipts    []*domain.Receipt
	firstSave   bool
	baseVersion int
	reminder    bool
	password    string
}

// Build returns the registered notifications for every destination of a saved booking.
func (d *NotificationDispatcher) Build(sb savedBooking) []domain.BookingNotification {
	b := sb.booking
	var pendingProvider string
	if rc := domain.CurrentPaymentReceipt(sb.receipts); rc.PendingOnline() {
		pendingProvider = rc.PaymentProvider
	}

	var prefix string
	if sb.event != nil && sb.event.Coordinator != nil {
		prefix = sb.event.Coordinator.Prefix
	}
	total, _ := b.Total(domain.TotalGross)
	names := make([]string, 0, len(b.Delegates))
	for _, del := range b.ActiveDelegates() {
		names = append(names, delegateLine(del))
	}

	var out []domain.BookingNotification
	for _, dest := range domain.Destinations(sb.reminder) {
		t := domain.DecideNotification(domain.NotificationInput{
			Persisted:             !b.IsNew(),
			FirstSave:             sb.firstSave,
			AllCancelled:          b.AllCancelled(),
			VersionAdvanced:       b.Version > sb.baseVersion,
			Destination:           dest,
			PendingOnlineProvider: pendingProvider,
		})
		key := t.Key(dest)
		if !domain.NotificationRegistry[key] {
			continue
		}
		recipient := b.Contact.Email
		if dest == domain.DestinationCoordinator {
			recipient = d.coordinatorEmail
		}
		if recipient == "" {
			d.logger.Debug("no recipient for notification", "key", key, "booking_id", b.ID)
			continue
		}
		n := domain.BookingNotification{
			Key:         key,
			Destination: dest,
			BookingID:   b.ID,
			RefNumber:   b.RefNumber(prefix),
			EventID:     b.EventID,
			Recipient:   recipient,
			ContactName: b.Contact.FullName(),
			Delegates:   names,
			Total:       total,
		}
		if sb.event != nil {
			n.EventName = sb.event.Name
		}
		if dest == domain.DestinationDelegate {
			n.Password = sb.password
		}
		out = append(out, n)
	}
	return out
}

func delegateLine(d *domain.Delegate) string {
	name := d.Forename + " " + d.Surname
	if d.Package != nil && d.Package.Name != "" {
		return fmt.Sprintf("%s (%s)", name, d.Package.Name)
	}
	return name
}

// Dispatch sends every notification and returns one warning per failure.
// Failures are logged and counted; they are never returned as errors.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, ns []domain.BookingNotification) []string {
	if d.notifier == nil || len(ns) == 0 {
		return nil
	}
	var (
		mu       sync.Mutex
		warnings []string
		g        errgroup.Group
	)
	g.SetLimit(maxConcurrentNotifications)
	for _, n := range ns {
		g.Go(func() error {
			if err := d.notifier.Notify(ctx, n); err != nil {
				d.logger.WarnContext(ctx, "booking notification failed", "key", n.Key, "booking_id", n.BookingID, "error", err)
				d.metrics.IncrementNotificationFailure()
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("notification %s not sent: %v", n.Key, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return warnings
}
