package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"delegatebooking/internal/domain"
)

type bookingService struct {
	events         domain.EventRepository
	stores         domain.TxStores
	tx             domain.TxRunner
	notifications  *NotificationDispatcher
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewBookingService returns a BookingService over saved bookings.
func NewBookingService(
	events domain.EventRepository,
	stores domain.TxStores,
	tx domain.TxRunner,
	notifications *NotificationDispatcher,
	logger *slog.Logger,
	timeout time.Duration,
) domain.BookingService {
	return &bookingService{
		events:         events,
		stores:         stores,
		tx:             tx,
		notifications:  notifications,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *bookingService) Get(ctx context.Context, id int64) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	b, err := s.stores.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	b.Delegates, err = s.stores.Delegates.ListByBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list booking delegates: %w", err)
	}
	return b, nil
}

// FindByRefNumber resolves a reference such as "ABC123". The prefix must be the
// coordinator prefix of the booking's event.
func (s *bookingService) FindByRefNumber(ctx context.Context, ref string) (*domain.Booking, error) {
	prefix, id, ok := domain.ParseRefNumber(ref)
	if !ok {
		return nil, domain.ErrInvalidBookingReference
	}
	coordinator, err := s.events.GetCoordinatorByPrefix(ctx, prefix)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get coordinator: %w", err)
	}
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, b.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.Coordinator == nil || event.Coordinator.ID != coordinator.ID {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (s *bookingService) Show(ctx context.Context, id int64) (*domain.BookingView, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, b.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	receipts, err := s.stores.Receipts.ListByBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}

	view := &domain.BookingView{
		Booking:         b,
		ActiveDelegates: b.ActiveDelegates(),
		CurrentReceipt:  domain.CurrentPaymentReceipt(receipts),
	}
	if event.Coordinator != nil {
		view.RefNumber = b.RefNumber(event.Coordinator.Prefix)
	}
	if total, ok := b.Total(domain.TotalFull); ok {
		view.Total = &total
	}
	if partial, ok := b.Total(domain.TotalPartial); ok {
		view.PartialTotal = &partial
	}
	return view, nil
}

func (s *bookingService) Total(b *domain.Booking, mode domain.TotalMode) (int64, bool) {
	return b.Total(mode)
}

func (s *bookingService) CurrentPaymentReceipt(ctx context.Context, id int64) (*domain.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	receipts, err := s.stores.Receipts.ListByBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	rc := domain.CurrentPaymentReceipt(receipts)
	if rc == nil {
		return nil, domain.ErrNotFound
	}
	return rc, nil
}

// UpdateBillingDetails stores new billing details on the booking and its current receipt together.
func (s *bookingService) UpdateBillingDetails(ctx context.Context, id int64, billing domain.BillingDetails) (*domain.Receipt, error) {
	if err := billing.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var current *domain.Receipt
	err := s.tx.RunInTx(ctx, func(st domain.TxStores) error {
		if err := st.Bookings.UpdateBilling(ctx, id, billing); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("update booking billing: %w", err)
		}
		receipts, err := st.Receipts.ListByBooking(ctx, id)
		if err != nil {
			return fmt.Errorf("list receipts: %w", err)
		}
		current = domain.CurrentPaymentReceipt(receipts)
		if current == nil {
			return nil
		}
		current.Billing = billing
		if err := st.Receipts.Update(ctx, current); err != nil {
			return fmt.Errorf("update receipt billing: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "billing details updated", "booking_id", id)
	return current, nil
}

// Packages returns the distinct packages of the active delegates.
func (s *bookingService) Packages(ctx context.Context, id int64) ([]*domain.Package, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	out := make([]*domain.Package, 0)
	for _, d := range b.ActiveDelegates() {
		if d.Package == nil || seen[d.Package.ID] {
			continue
		}
		seen[d.Package.ID] = true
		out = append(out, d.Package)
	}
	return out, nil
}

// DelegateTypes returns the distinct delegate type ids of the active delegates.
func (s *bookingService) DelegateTypes(ctx context.Context, id int64) ([]string, error) {
	pkgs, err := s.Packages(ctx, id)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	out := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		if seen[p.DelegateTypeID] {
			continue
		}
		seen[p.DelegateTypeID] = true
		out = append(out, p.DelegateTypeID)
	}
	return out, nil
}

// Remind sends the delegate a fresh copy of the booking notification. The
// notification is decided against version zero, so an amended or cancelled
// booking is reminded as such.
func (s *bookingService) Remind(ctx context.Context, id int64) ([]domain.BookingNotification, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, b.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	receipts, err := s.stores.Receipts.ListByBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	ns := s.notifications.Build(savedBooking{
		event:       event,
		booking:     b,
		receipts:    receipts,
		baseVersion: 0,
		reminder:    true,
	})
	if warnings := s.notifications.Dispatch(ctx, ns); len(warnings) > 0 {
		return ns, fmt.Errorf("%d of %d reminders not sent: %s", len(warnings), len(ns), warnings[0])
	}
	return ns, nil
}
