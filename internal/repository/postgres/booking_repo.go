package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"delegatebooking/internal/domain"
)

type bookingRepository struct {
	DB dbtx
}

func NewBookingRepository(db *sql.DB) domain.BookingRepository {
	return &bookingRepository{DB: db}
}

// bookingColumns are written on every save; password_hash and version are handled separately.
var bookingColumns = func() []string {
	cols := append([]string{"event_id"}, domain.ContactColumns()...)
	cols = append(cols, "terms_accepted", "payment_method")
	return append(cols, domain.BillingColumns()...)
}()

func bookingValues(b *domain.Booking) []any {
	vals := append([]any{b.EventID}, domain.ContactValues(b.Contact)...)
	vals = append(vals, b.TermsAccepted, string(b.PaymentMethod))
	return append(vals, domain.BillingValues(b.Billing)...)
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	now := time.Now()
	n := len(bookingColumns)
	query := fmt.Sprintf(`
		INSERT INTO bookings (%s, password_hash, version, created_at, updated_at)
		VALUES (%s, $%d, 0, $%d, $%d)
		RETURNING id
	`, strings.Join(bookingColumns, ", "), placeholders(1, n), n+1, n+2, n+2)
	args := append(bookingValues(b), b.PasswordHash, now)
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&b.ID); err != nil {
		return err
	}
	b.Version = 0
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

func (r *bookingRepository) UpdateIfVersion(ctx context.Context, b *domain.Booking, expected int) (domain.VersionCheck, error) {
	now := time.Now()
	n := len(bookingColumns)
	query := fmt.Sprintf(`
		UPDATE bookings SET %s, updated_at = $%d, version = version + 1
		WHERE id = $%d AND version = $%d
		RETURNING version, created_at
	`, assignments(bookingColumns, 1), n+1, n+2, n+3)
	args := append(bookingValues(b), now, b.ID, expected)
	var version int
	var createdAt time.Time
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(&version, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.VersionConflict, nil
		}
		return domain.VersionConflict, err
	}
	b.Version = version
	b.CreatedAt = createdAt
	b.UpdatedAt = now
	return domain.VersionApplied, nil
}

func (r *bookingRepository) get(ctx context.Context, where string, args ...any) (*domain.Booking, error) {
	query := fmt.Sprintf(`
		SELECT id, %s, password_hash, version, created_at, updated_at
		FROM bookings
		WHERE %s
	`, strings.Join(bookingColumns, ", "), where)
	b := &domain.Booking{}
	var method string
	dest := append([]any{&b.ID, &b.EventID}, domain.ContactTargets(&b.Contact)...)
	dest = append(dest, &b.TermsAccepted, &method)
	dest = append(dest, domain.BillingTargets(&b.Billing)...)
	dest = append(dest, &b.PasswordHash, &b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	b.PaymentMethod = domain.PaymentMethod(method)
	return b, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.get(ctx, "id = $1", id)
}

func (r *bookingRepository) GetForEvent(ctx context.Context, eventID string, id int64) (*domain.Booking, error) {
	return r.get(ctx, "id = $1 AND event_id = $2", id, eventID)
}

func (r *bookingRepository) UpdateBilling(ctx context.Context, id int64, billing domain.BillingDetails) error {
	cols := domain.BillingColumns()
	n := len(cols)
	query := fmt.Sprintf(`UPDATE bookings SET %s, updated_at = $%d WHERE id = $%d`, assignments(cols, 1), n+1, n+2)
	args := append(domain.BillingValues(billing), time.Now(), id)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
