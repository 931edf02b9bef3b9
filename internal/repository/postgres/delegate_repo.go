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

// detailColumns are the delegate columns shared by cart_delegates and delegates.
var detailColumns = []string{"package_id", "title", "forename", "surname", "email", "tel", "organisation", "form_filled", "cancelled"}

func detailValues(d domain.DelegateDetails) []any {
	return []any{
		sql.NullString{String: d.PackageID, Valid: d.PackageID != ""},
		d.Title, d.Forename, d.Surname, d.Email, d.Tel, d.Organisation, d.FormFilled, d.Cancelled,
	}
}

// detailScan collects scan targets for detailColumns; call apply after Scan.
type detailScan struct {
	packageID sql.NullString
	d         *domain.DelegateDetails
}

func (s *detailScan) targets() []any {
	return []any{&s.packageID, &s.d.Title, &s.d.Forename, &s.d.Surname, &s.d.Email, &s.d.Tel, &s.d.Organisation, &s.d.FormFilled, &s.d.Cancelled}
}

func (s *detailScan) apply() { s.d.PackageID = s.packageID.String }

type delegateRepository struct {
	DB dbtx
}

func NewDelegateRepository(db *sql.DB) domain.DelegateRepository {
	return &delegateRepository{DB: db}
}

func (r *delegateRepository) SaveFromCart(ctx context.Context, bookingID int64, staged *domain.CartDelegate) (*domain.Delegate, error) {
	d := &domain.Delegate{
		BookingID:       bookingID,
		DelegateDetails: staged.DelegateDetails,
		Package:         staged.Package,
	}

	updated := false
	if staged.SourceDelegateID != "" {
		query := fmt.Sprintf(`
			UPDATE delegates SET %s
			WHERE id = $1 AND booking_id = $2
			RETURNING id, created_at
		`, assignments(detailColumns, 3))
		args := append([]any{staged.SourceDelegateID, bookingID}, detailValues(d.DelegateDetails)...)
		err := r.DB.QueryRowContext(ctx, query, args...).Scan(&d.ID, &d.CreatedAt)
		switch {
		case err == nil:
			updated = true
		case !errors.Is(err, sql.ErrNoRows):
			return nil, err
		}
	}
	if !updated {
		d.ID = uuid.NewString()
		d.CreatedAt = time.Now()
		query := fmt.Sprintf(`
			INSERT INTO delegates (id, booking_id, %s, created_at)
			VALUES ($1, $2, %s, $%d)
		`, strings.Join(detailColumns, ", "), placeholders(3, len(detailColumns)), 3+len(detailColumns))
		args := append([]any{d.ID, bookingID}, detailValues(d.DelegateDetails)...)
		args = append(args, d.CreatedAt)
		if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
			return nil, err
		}
	}

	if updated {
		if _, err := r.DB.ExecContext(ctx, `DELETE FROM delegate_choices WHERE delegate_id = $1`, d.ID); err != nil {
			return nil, err
		}
	}
	d.Choices = make([]domain.CartChoice, len(staged.Choices))
	for i, c := range staged.Choices {
		choice := domain.CartChoice{ID: uuid.NewString(), CartDelegateID: d.ID, OptionID: c.OptionID, Price: c.Price}
		_, err := r.DB.ExecContext(ctx, `
			INSERT INTO delegate_choices (id, delegate_id, option_id, price_gross, price_partial)
			VALUES ($1, $2, $3, $4, $5)
		`, choice.ID, d.ID, choice.OptionID, choice.Price.Gross, choice.Price.Partial)
		if err != nil {
			return nil, err
		}
		d.Choices[i] = choice
	}
	return d, nil
}

func (r *delegateRepository) ListByBooking(ctx context.Context, bookingID int64) ([]*domain.Delegate, error) {
	query := fmt.Sprintf(`
		SELECT d.id, d.booking_id, %s, d.created_at, %s
		FROM delegates d %s
		WHERE d.booking_id = $1
		ORDER BY d.created_at, d.id
	`, qualify("d", detailColumns), packageColumns, packageJoins)
	rows, err := r.DB.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*domain.Delegate
	byID := make(map[string]*domain.Delegate)
	for rows.Next() {
		d := &domain.Delegate{}
		ds := detailScan{d: &d.DelegateDetails}
		var pkg nullPackage
		dest := append([]any{&d.ID, &d.BookingID}, ds.targets()...)
		dest = append(dest, &d.CreatedAt)
		dest = append(dest, pkg.targets()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		ds.apply()
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

	ids := make([]string, len(list))
	for i, d := range list {
		ids[i] = d.ID
	}
	choiceRows, err := r.DB.QueryContext(ctx, `
		SELECT id, delegate_id, option_id, price_gross, price_partial
		FROM delegate_choices
		WHERE delegate_id = ANY($1)
		ORDER BY id
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer choiceRows.Close()
	for choiceRows.Next() {
		var c domain.CartChoice
		if err := choiceRows.Scan(&c.ID, &c.CartDelegateID, &c.OptionID, &c.Price.Gross, &c.Price.Partial); err != nil {
			return nil, err
		}
		if d, ok := byID[c.CartDelegateID]; ok {
			d.Choices = append(d.Choices, c)
		}
	}
	return list, choiceRows.Err()
}
