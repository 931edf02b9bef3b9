package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"delegatebooking/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT e.id, e.name, e.max_delegates_per_booking, e.payment_methods, e.created_at, e.updated_at,
			c.id, c.prefix, c.country
		FROM events e
		LEFT JOIN coordinators c ON c.id = e.coordinator_id
		WHERE e.id = $1
	`
	e := &domain.Event{}
	var methods pq.StringArray
	var coID, coPrefix, coCountry sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Name, &e.MaxDelegatesPerBooking, &methods, &e.CreatedAt, &e.UpdatedAt,
		&coID, &coPrefix, &coCountry,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	e.PaymentMethods = make([]domain.PaymentMethod, len(methods))
	for i, m := range methods {
		e.PaymentMethods[i] = domain.PaymentMethod(m)
	}
	if coID.Valid {
		e.Coordinator = &domain.Coordinator{ID: coID.String, Prefix: coPrefix.String, Country: coCountry.String}
	}
	return e, nil
}

func (r *eventRepository) GetPackage(ctx context.Context, id string) (*domain.Package, error) {
	query := `
		SELECT p.id, p.delegate_type_id, dt.event_id, p.name, p.free_of_charge, p.price_gross, p.price_partial
		FROM packages p
		JOIN delegate_types dt ON dt.id = p.delegate_type_id
		WHERE p.id = $1
	`
	p := &domain.Package{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.DelegateTypeID, &p.EventID, &p.Name, &p.FreeOfCharge, &p.Price.Gross, &p.Price.Partial,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *eventRepository) GetCoordinatorByPrefix(ctx context.Context, prefix string) (*domain.Coordinator, error) {
	query := `SELECT id, prefix, country FROM coordinators WHERE prefix = $1`
	c := &domain.Coordinator{}
	if err := r.DB.QueryRowContext(ctx, query, prefix).Scan(&c.ID, &c.Prefix, &c.Country); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// packageColumns selects the package of a delegate row through LEFT JOINs on p and dt.
const packageColumns = `p.id, p.delegate_type_id, dt.event_id, p.name, p.free_of_charge, p.price_gross, p.price_partial`

const packageJoins = `
		LEFT JOIN packages p ON p.id = d.package_id
		LEFT JOIN delegate_types dt ON dt.id = p.delegate_type_id`

// nullPackage scans packageColumns, which are all NULL when the delegate has no package.
type nullPackage struct {
	id, delegateTypeID, eventID, name sql.NullString
	free                              sql.NullBool
	gross, partial                    sql.NullInt64
}

func (n *nullPackage) targets() []any {
	return []any{&n.id, &n.delegateTypeID, &n.eventID, &n.name, &n.free, &n.gross, &n.partial}
}

func (n *nullPackage) value() *domain.Package {
	if !n.id.Valid {
		return nil
	}
	return &domain.Package{
		ID:             n.id.String,
		DelegateTypeID: n.delegateTypeID.String,
		EventID:        n.eventID.String,
		Name:           n.name.String,
		FreeOfCharge:   n.free.Bool,
		Price:          domain.Price{Gross: n.gross.Int64, Partial: n.partial.Int64},
	}
}
