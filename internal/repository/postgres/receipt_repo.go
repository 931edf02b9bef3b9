package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"delegatebooking/internal/domain"
)

type receiptRepository struct {
	DB dbtx
}

func NewReceiptRepository(db *sql.DB) domain.ReceiptRepository {
	return &receiptRepository{DB: db}
}

var receiptColumns = append([]string{"payment_method", "receipt_type", "payment_provider", "payment_received_at"}, domain.BillingColumns()...)

func receiptValues(rc *domain.Receipt) []any {
	var received sql.NullTime
	if rc.PaymentReceivedAt != nil {
		received = sql.NullTime{Time: *rc.PaymentReceivedAt, Valid: true}
	}
	vals := []any{string(rc.PaymentMethod), string(rc.Type), rc.PaymentProvider, received}
	return append(vals, domain.BillingValues(rc.Billing)...)
}

func (r *receiptRepository) Create(ctx context.Context, rc *domain.Receipt) error {
	rc.ID = uuid.NewString()
	if rc.CreatedAt.IsZero() {
		rc.CreatedAt = time.Now()
	}
	query := fmt.Sprintf(`
		INSERT INTO receipts (id, booking_id, %s, created_at)
		VALUES ($1, $2, %s, $%d)
	`, strings.Join(receiptColumns, ", "), placeholders(3, len(receiptColumns)), 3+len(receiptColumns))
	args := append([]any{rc.ID, rc.BookingID}, receiptValues(rc)...)
	args = append(args, rc.CreatedAt)
	_, err := r.DB.ExecContext(ctx, query, args...)
	return err
}

func (r *receiptRepository) Update(ctx context.Context, rc *domain.Receipt) error {
	query := fmt.Sprintf(`UPDATE receipts SET %s WHERE id = $1`, assignments(receiptColumns, 2))
	args := append([]any{rc.ID}, receiptValues(rc)...)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *receiptRepository) ListByBooking(ctx context.Context, bookingID int64) ([]*domain.Receipt, error) {
	query := fmt.Sprintf(`
		SELECT id, booking_id, %s, created_at
		FROM receipts
		WHERE booking_id = $1
		ORDER BY created_at, seq
	`, strings.Join(receiptColumns, ", "))
	rows, err := r.DB.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.Receipt, 0)
	for rows.Next() {
		rc := &domain.Receipt{}
		var method, typ string
		var received sql.NullTime
		dest := []any{&rc.ID, &rc.BookingID, &method, &typ, &rc.PaymentProvider, &received}
		dest = append(dest, domain.BillingTargets(&rc.Billing)...)
		dest = append(dest, &rc.CreatedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		rc.PaymentMethod = domain.PaymentMethod(method)
		rc.Type = domain.ReceiptType(typ)
		if received.Valid {
			t := received.Time
			rc.PaymentReceivedAt = &t
		}
		list = append(list, rc)
	}
	return list, rows.Err()
}
