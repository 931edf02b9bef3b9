package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"delegatebooking/internal/domain"
)

// Commit writes the staged delegates into a booking in one transaction.
func (s *cartService) Commit(ctx context.Context, cart *domain.Cart, draft *domain.Booking) (*domain.CommitResult, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, cart.EventID)
	if err != nil {
		return nil, err
	}

	var (
		result    = &domain.CommitResult{}
		firstSave bool
		saved     domain.Booking
	)
	err = s.tx.RunInTx(ctx, func(st domain.TxStores) error {
		// Work on a copy so a rolled back attempt leaves the caller's draft untouched.
		b := *draft
		b.EventID = cart.EventID
		b.ID = cart.BookingID
		b.Version = cart.BookingVersion

		staged, err := st.Carts.ListDelegates(ctx, cart.ID)
		if err != nil {
			return fmt.Errorf("list staged delegates: %w", err)
		}
		free := freeOfCharge(staged)
		domain.ApplyBillingDefaults(&b, staged, free)
		domain.CopyContactToBilling(&b)
		b.CleanStrings()
		b.PaymentMethod = resolvePaymentMethod(event, b.PaymentMethod, free)
		if err := b.Validate(); err != nil {
			return err
		}

		firstSave = b.IsNew()
		if firstSave {
			password, hash, err := s.newPassword()
			if err != nil {
				return err
			}
			b.PasswordHash = hash
			result.Password = password
			if err := st.Bookings.Create(ctx, &b); err != nil {
				return fmt.Errorf("create booking: %w", err)
			}
		} else {
			check, err := st.Bookings.UpdateIfVersion(ctx, &b, cart.BookingVersion)
			if err != nil {
				return fmt.Errorf("update booking: %w", err)
			}
			if check == domain.VersionConflict {
				return domain.ErrStaleBookingVersion
			}
		}

		receipt := domain.NewReceipt(&b, s.now())
		if err := st.Receipts.Create(ctx, receipt); err != nil {
			return fmt.Errorf("create receipt: %w", err)
		}

		if len(staged) == 0 {
			return domain.ErrEmptyCartOnCommit
		}
		b.Delegates = make([]*domain.Delegate, 0, len(staged))
		for _, row := range staged {
			d, err := st.Delegates.SaveFromCart(ctx, b.ID, row)
			if err != nil {
				return fmt.Errorf("save delegate: %w", err)
			}
			b.Delegates = append(b.Delegates, d)
		}

		receipt.SetPaymentDetails(b.PaymentMethod)
		if err := st.Receipts.Update(ctx, receipt); err != nil {
			return fmt.Errorf("update receipt: %w", err)
		}
		receipts, err := st.Receipts.ListByBooking(ctx, b.ID)
		if err != nil {
			return fmt.Errorf("list receipts: %w", err)
		}

		result.Receipt = receipt
		result.Notifications = s.notifications.Build(savedBooking{
			event:       event,
			booking:     &b,
			receipts:    receipts,
			firstSave:   firstSave,
			baseVersion: cart.BookingVersion,
			password:    result.Password,
		})
		saved = b
		return nil
	})
	if err != nil {
		s.metrics.ObserveCommit(start, commitOutcome(err))
		s.logger.InfoContext(ctx, "booking commit failed", "cart_id", cart.ID, "booking_id", cart.BookingID, "error", err)
		return nil, err
	}
	s.metrics.ObserveCommit(start, "committed")

	*draft = saved
	result.Booking = draft
	if cart.BookingID == 0 {
		cart.BookingID = saved.ID
	}
	cart.BookingVersion = saved.Version

	result.Warnings = s.notifications.Dispatch(ctx, result.Notifications)
	s.logger.InfoContext(ctx, "booking committed",
		"booking_id", saved.ID,
		"event_id", saved.EventID,
		"version", saved.Version,
		"first_save", firstSave,
		"delegates", len(saved.Delegates),
		"notifications", len(result.Notifications),
		"warnings", len(result.Warnings),
	)
	return result, nil
}

func (s *cartService) newPassword() (password, hash string, err error) {
	password, err = s.passwords.Generate()
	if err != nil {
		return "", "", fmt.Errorf("generate password: %w", err)
	}
	hash, err = s.hasher.Hash(password)
	if err != nil {
		return "", "", fmt.Errorf("hash password: %w", err)
	}
	return password, hash, nil
}

// resolvePaymentMethod keeps an allowed requested method and otherwise falls back to
// the event default. Free-of-charge bookings take no payment.
func resolvePaymentMethod(event *domain.Event, requested domain.PaymentMethod, free bool) domain.PaymentMethod {
	if free {
		return domain.PaymentNone
	}
	if event.AllowsPaymentMethod(requested) {
		return requested
	}
	return event.DefaultPaymentMethod()
}

func commitOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrStaleBookingVersion):
		return "stale"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrEmptyCartOnCommit):
		return "empty"
	default:
		return "error"
	}
}
