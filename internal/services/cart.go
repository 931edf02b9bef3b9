package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"delegatebooking/internal/domain"
	"delegatebooking/internal/metrics"
)

type cartService struct {
	events         domain.EventRepository
	stores         domain.TxStores
	tx             domain.TxRunner
	notifications  *NotificationDispatcher
	hasher         domain.PasswordHasher
	passwords      domain.PasswordGenerator
	logger         *slog.Logger
	metrics        *metrics.Metrics
	contextTimeout time.Duration
	now            func() time.Time
}

// NewCartService returns a CartService. stores serve reads outside a transaction;
// every multi-row write goes through tx.
func NewCartService(
	events domain.EventRepository,
	stores domain.TxStores,
	tx domain.TxRunner,
	notifications *NotificationDispatcher,
	hasher domain.PasswordHasher,
	passwords domain.PasswordGenerator,
	logger *slog.Logger,
	m *metrics.Metrics,
	timeout time.Duration,
) domain.CartService {
	return &cartService{
		events:         events,
		stores:         stores,
		tx:             tx,
		notifications:  notifications,
		hasher:         hasher,
		passwords:      passwords,
		logger:         logger,
		metrics:        m,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *cartService) getEvent(ctx context.Context, id string) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *cartService) Create(ctx context.Context, eventID string, bookingID int64) (*domain.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if bookingID < 0 {
		return nil, domain.ErrInvalidBookingReference
	}

	cart := &domain.Cart{
		EventID:     eventID,
		BookingID:   bookingID,
		DelegateIDs: make(map[int]string),
		CreatedAt:   s.now(),
	}
	err := s.tx.RunInTx(ctx, func(st domain.TxStores) error {
		var loaded []*domain.Delegate
		if bookingID != 0 {
			booking, err := st.Bookings.GetForEvent(ctx, eventID, bookingID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.ErrInvalidBookingReference
				}
				return fmt.Errorf("get booking: %w", err)
			}
			cart.BookingVersion = booking.Version
			loaded, err = st.Delegates.ListByBooking(ctx, bookingID)
			if err != nil {
				return fmt.Errorf("list booking delegates: %w", err)
			}
		}
		if err := st.Carts.CreateCart(ctx, cart); err != nil {
			return fmt.Errorf("create cart: %w", err)
		}
		for i, d := range loaded {
			row := d.ToCartDelegate(cart.ID)
			if err := st.Carts.CreateDelegate(ctx, row); err != nil {
				return fmt.Errorf("stage delegate %s: %w", d.ID, err)
			}
			cart.DelegateIDs[i] = row.ID
		}
		cart.NextIndex = len(loaded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "cart created", "cart_id", cart.ID, "event_id", eventID, "booking_id", bookingID, "staged", cart.NextIndex)
	return cart, nil
}

// packageEventID resolves the event that owns the package of a staged row.
func (s *cartService) packageEventID(ctx context.Context, d *domain.CartDelegate) (string, error) {
	if d.Package == nil && d.PackageID != "" {
		pkg, err := s.events.GetPackage(ctx, d.PackageID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("get package: %w", err)
		}
		d.Package = pkg
	}
	if d.Package == nil {
		return "", nil
	}
	return d.Package.EventID, nil
}

// checkDelegate runs the capacity and package rules for a row already stored in the cart.
func (s *cartService) checkDelegate(ctx context.Context, carts domain.CartRepository, event *domain.Event, cart *domain.Cart, id string) error {
	row, err := carts.GetDelegate(ctx, cart.ID, id)
	if err != nil {
		return fmt.Errorf("get staged delegate: %w", err)
	}
	pkgEventID, err := s.packageEventID(ctx, row)
	if err != nil {
		return err
	}
	rows, err := carts.ListDelegates(ctx, cart.ID)
	if err != nil {
		return fmt.Errorf("list staged delegates: %w", err)
	}
	if err := domain.ValidateDelegate(event.MaxDelegatesPerBooking, countActive(rows), pkgEventID, cart.EventID); err != nil {
		s.rejected(ctx, cart, err)
		return err
	}
	return nil
}

func (s *cartService) rejected(ctx context.Context, cart *domain.Cart, err error) {
	reason := "package_event_mismatch"
	if errors.Is(err, domain.ErrDelegateCapacityExceeded) {
		reason = "capacity_exceeded"
	}
	s.metrics.IncrementDelegateRejected(reason)
	s.logger.InfoContext(ctx, "delegate rejected", "cart_id", cart.ID, "event_id", cart.EventID, "reason", reason)
}

func countActive(rows []*domain.CartDelegate) int {
	n := 0
	for _, r := range rows {
		if !r.Cancelled {
			n++
		}
	}
	return n
}

func indexOf(cart *domain.Cart, id string) (int, bool) {
	for idx, v := range cart.DelegateIDs {
		if v == id {
			return idx, true
		}
	}
	return 0, false
}

func appendDelegate(cart *domain.Cart, id string) int {
	if cart.DelegateIDs == nil {
		cart.DelegateIDs = make(map[int]string)
	}
	idx := cart.NextIndex
	cart.DelegateIDs[idx] = id
	cart.NextIndex++
	return idx
}

func (s *cartService) AddDelegate(ctx context.Context, cart *domain.Cart, delegateID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if delegateID == "" {
		return 0, domain.ErrMissingDelegateID
	}
	if idx, ok := indexOf(cart, delegateID); ok {
		return idx, nil
	}
	event, err := s.getEvent(ctx, cart.EventID)
	if err != nil {
		return 0, err
	}
	if err := s.checkDelegate(ctx, s.stores.Carts, event, cart, delegateID); err != nil {
		return 0, err
	}
	return appendDelegate(cart, delegateID), nil
}

func (s *cartService) StageDelegate(ctx context.Context, cart *domain.Cart, d *domain.CartDelegate) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, cart.EventID)
	if err != nil {
		return 0, err
	}
	d.CartID = cart.ID
	if _, err := s.packageEventID(ctx, d); err != nil {
		return 0, err
	}
	// A rejected row is rolled back with the transaction and never reaches the cart.
	err = s.tx.RunInTx(ctx, func(st domain.TxStores) error {
		if err := st.Carts.CreateDelegate(ctx, d); err != nil {
			return fmt.Errorf("stage delegate: %w", err)
		}
		return s.checkDelegate(ctx, st.Carts, event, cart, d.ID)
	})
	if err != nil {
		return 0, err
	}
	return appendDelegate(cart, d.ID), nil
}

func (s *cartService) UpdateDelegate(ctx context.Context, cart *domain.Cart, idx int, details domain.DelegateDetails) (*domain.CartDelegate, error) {
	row, err := s.DelegateAt(ctx, cart, idx)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	packageChanged := details.PackageID != row.PackageID
	reactivated := row.Cancelled && !details.Cancelled
	row.DelegateDetails = details
	if packageChanged || reactivated {
		event, err := s.getEvent(ctx, cart.EventID)
		if err != nil {
			return nil, err
		}
		if packageChanged {
			row.Package = nil
		}
		pkgEventID, err := s.packageEventID(ctx, row)
		if err != nil {
			return nil, err
		}
		rows, err := s.stores.Carts.ListDelegates(ctx, cart.ID)
		if err != nil {
			return nil, fmt.Errorf("list staged delegates: %w", err)
		}
		active := countActive(rows)
		if reactivated {
			active++
		}
		if err := domain.ValidateDelegate(event.MaxDelegatesPerBooking, active, pkgEventID, cart.EventID); err != nil {
			s.rejected(ctx, cart, err)
			return nil, err
		}
	}
	if err := s.stores.Carts.UpdateDelegate(ctx, row); err != nil {
		return nil, fmt.Errorf("update staged delegate: %w", err)
	}
	return row, nil
}

func (s *cartService) Delegates(ctx context.Context, cart *domain.Cart) ([]*domain.CartDelegate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	rows, err := s.stores.Carts.ListDelegates(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("list staged delegates: %w", err)
	}
	if rows == nil {
		rows = []*domain.CartDelegate{}
	}
	return rows, nil
}

func (s *cartService) ActiveDelegates(ctx context.Context, cart *domain.Cart) ([]*domain.CartDelegate, error) {
	rows, err := s.Delegates(ctx, cart)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.CartDelegate, 0, len(rows))
	for _, r := range rows {
		if !r.Cancelled {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *cartService) DelegateAt(ctx context.Context, cart *domain.Cart, idx int) (*domain.CartDelegate, error) {
	if err := domain.CheckDelegateIndex(idx); err != nil {
		return nil, err
	}
	id, ok := cart.DelegateIDs[idx]
	if !ok {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	row, err := s.stores.Carts.GetDelegate(ctx, cart.ID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get staged delegate: %w", err)
	}
	return row, nil
}

func (s *cartService) FilledForms(ctx context.Context, cart *domain.Cart) (bool, error) {
	rows, err := s.ActiveDelegates(ctx, cart)
	if err != nil {
		return false, err
	}
	for _, r := range rows {
		if !r.FormFilled {
			return false, nil
		}
	}
	return true, nil
}

func (s *cartService) FreeOfCharge(ctx context.Context, cart *domain.Cart) (bool, error) {
	rows, err := s.Delegates(ctx, cart)
	if err != nil {
		return false, err
	}
	return freeOfCharge(rows), nil
}

func freeOfCharge(rows []*domain.CartDelegate) bool {
	for _, r := range rows {
		if r.Package == nil || !r.Package.FreeOfCharge {
			return false
		}
	}
	return true
}

func (s *cartService) Total(ctx context.Context, cart *domain.Cart, mode domain.TotalMode) (int64, bool, error) {
	rows, err := s.Delegates(ctx, cart)
	if err != nil {
		return 0, false, err
	}
	total, ok := domain.SumPrices(rows, mode)
	return total, ok, nil
}

func (s *cartService) Clear(ctx context.Context, cart *domain.Cart) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	err := s.tx.RunInTx(ctx, func(st domain.TxStores) error {
		if err := st.Carts.DeleteChoices(ctx, cart.ID); err != nil {
			return fmt.Errorf("delete staged choices: %w", err)
		}
		if err := st.Carts.DeleteDelegates(ctx, cart.ID); err != nil {
			return fmt.Errorf("delete staged delegates: %w", err)
		}
		if err := st.Carts.DeleteCart(ctx, cart.ID); err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cart.DelegateIDs = make(map[int]string)
	cart.NextIndex = 0
	return nil
}

func (s *cartService) Booking(ctx context.Context, cart *domain.Cart) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, cart.EventID)
	if err != nil {
		return nil, err
	}
	if !cart.WasLoaded() {
		country := event.CoordinatorCountry()
		b := &domain.Booking{
			EventID:       cart.EventID,
			PaymentMethod: event.DefaultPaymentMethod(),
		}
		b.Contact.Country = country
		b.Billing.Country = country
		return b, nil
	}
	b, err := s.stores.Bookings.GetForEvent(ctx, cart.EventID, cart.BookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidBookingReference
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	b.EmailConfirmation = b.Contact.Email
	b.Delegates, err = s.stores.Delegates.ListByBooking(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("list booking delegates: %w", err)
	}
	return b, nil
}
