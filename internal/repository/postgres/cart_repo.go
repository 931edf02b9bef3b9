package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"delegatebooking/internal/domain"
)

type cartRepository struct {
	DB dbtx
}

func NewCartRepository(db *sql.DB) domain.CartRepository {
	return &cartRepository{DB: db}
}

// NewCartSweeper returns the CartSweeper over the staging tables.
func NewCartSweeper(db *sql.DB) domain.CartSweeper {
	return &cartRepository{DB: db}
}

// DeleteIdleCarts relies on ON DELETE CASCADE for cart_delegates and cart_choices.
func (r *cartRepository) DeleteIdleCarts(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM carts c
		WHERE c.created_at < $1
		AND NOT EXISTS (SELECT 1 FROM cart_delegates d WHERE d.cart_id = c.id AND d.created_at >= $1)`
	res, err := r.DB.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("delete idle carts: %w", err)
	}
	return res.RowsAffected()
}

func (r *cartRepository) CreateCart(ctx context.Context, c *domain.Cart) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	query := `INSERT INTO carts (id, event_id, booking_id, created_at) VALUES ($1, $2, $3, $4)`
	bookingID := sql.NullInt64{Int64: c.BookingID, Valid: c.BookingID != 0}
	_, err := r.DB.ExecContext(ctx, query, c.ID, c.EventID, bookingID, c.CreatedAt)
	return err
}

func (r *cartRepository) DeleteCart(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, id)
	return err
}

func (r *cartRepository) CreateDelegate(ctx context.Context, d *domain.CartDelegate) error {
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now()
	query := fmt.Sprintf(`
		INSERT INTO cart_delegates (id, cart_id, source_delegate_id, %s, created_at)
		VALUES ($1, $2, $3, %s, $%d)
	`, strings.Join(detailColumns, ", "), placeholders(4, len(detailColumns)), 4+len(detailColumns))
	source := sql.NullString{String: d.SourceDelegateID, Valid: d.SourceDelegateID != ""}
	args := append([]any{d.ID, d.CartID, source}, detailValues(d.DelegateDetails)...)
	args = append(args, d.CreatedAt)
	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return domain.ErrNotFound
		}
		return err
	}
	for i := range d.Choices {
		c := &d.Choices[i]
		c.ID = uuid.NewString()
		c.CartDelegateID = d.ID
		_, err := r.DB.ExecContext(ctx, `
			INSERT INTO cart_choices (id, cart_delegate_id, option_id, price_gross, price_partial)
			VALUES ($1, $2, $3, $4, $5)
		`, c.ID, c.CartDelegateID, c.OptionID, c.Price.Gross, c.Price.Partial)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *cartRepository) UpdateDelegate(ctx context.Context, d *domain.CartDelegate) error {
	query := fmt.Sprintf(`
		UPDATE cart_delegates SET %s
		WHERE id = $1 AND cart_id = $2
	`, assignments(detailColumns, 3))
	args := append([]any{d.ID, d.CartID}, detailValues(d.DelegateDetails)...)
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

func (r *cartRepository) selectDelegates(ctx context.Context, where string, args ...any) ([]*domain.CartDelegate, error) {
	query := fmt.Sprintf(`
		SELECT d.id, d.cart_id, d.source_delegate_id, %s, d.created_at, %s
		FROM cart_delegates d %s
		WHERE %s
		ORDER BY d.forename, d.surname, d.id
	`, qualify("d", detailColumns), packageColumns, packageJoins, where)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.CartDelegate, 0)
	byID := make(map[string]*domain.CartDelegate)
	for rows.Next() {
		d := &domain.CartDelegate{}
		ds := detailScan{d: &d.DelegateDetails}
		var source sql.NullString
		var pkg nullPackage
		dest := append([]any{&d.ID, &d.CartID, &source}, ds.targets()...)
		dest = append(dest, &d.CreatedAt)
		dest = append(dest, pkg.targets()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		ds.apply()
		d.SourceDelegateID = source.String
		d.Package = pkg.value()
		d.Choices = []domain.CartChoice{}
		list = append(list, d)
		byID[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}
	if err := r.loadChoices(ctx, byID); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *cartRepository) loadChoices(ctx context.Context, byID map[string]*domain.CartDelegate) error {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, cart_delegate_id, option_id, price_gross, price_partial
		FROM cart_choices
		WHERE cart_delegate_id = ANY($1)
		ORDER BY id
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var c domain.CartChoice
		if err := rows.Scan(&c.ID, &c.CartDelegateID, &c.OptionID, &c.Price.Gross, &c.Price.Partial); err != nil {
			return err
		}
		if d, ok := byID[c.CartDelegateID]; ok {
			d.Choices = append(d.Choices, c)
		}
	}
	return rows.Err()
}

func (r *cartRepository) GetDelegate(ctx context.Context, cartID, id string) (*domain.CartDelegate, error) {
	list, err := r.selectDelegates(ctx, "d.cart_id = $1 AND d.id = $2", cartID, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.ErrNotFound
	}
	return list[0], nil
}

func (r *cartRepository) ListDelegates(ctx context.Context, cartID string) ([]*domain.CartDelegate, error) {
	return r.selectDelegates(ctx, "d.cart_id = $1", cartID)
}

func (r *cartRepository) DeleteDelegate(ctx context.Context, cartID, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM cart_delegates WHERE id = $1 AND cart_id = $2`, id, cartID)
	return err
}

func (r *cartRepository) DeleteDelegates(ctx context.Context, cartID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM cart_delegates WHERE cart_id = $1`, cartID)
	return err
}

func (r *cartRepository) DeleteChoices(ctx context.Context, cartID string) error {
	_, err := r.DB.ExecContext(ctx, `
		DELETE FROM cart_choices
		WHERE cart_delegate_id IN (SELECT id FROM cart_delegates WHERE cart_id = $1)
	`, cartID)
	return err
}
