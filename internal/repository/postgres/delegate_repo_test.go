package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"delegatebooking/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelegateRepository_SaveFromCart(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		sourceID string
		mock     func(mock sqlmock.Sqlmock)
		check    func(t *testing.T, d *domain.Delegate)
	}{
		{
			name: "new delegate",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO delegates \(id, booking_id, package_id`).
					WithArgs(append(driverArgs(sqlmock.AnyArg(), int64(3)), anyArgs(len(detailColumns)+1)...)...).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO delegate_choices`).
					WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "dinner", int64(5), int64(5)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			check: func(t *testing.T, d *domain.Delegate) {
				assert.NotEmpty(t, d.ID)
				assert.Equal(t, d.ID, d.Choices[0].CartDelegateID)
			},
		},
		{
			name:     "overwrites loaded delegate",
			sourceID: "del-1",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE delegates SET package_id = \$3, .* WHERE id = \$1 AND booking_id = \$2 RETURNING id, created_at`).
					WithArgs(append(driverArgs("del-1", int64(3)), anyArgs(len(detailColumns))...)...).
					WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("del-1", created))
				mock.ExpectExec(`DELETE FROM delegate_choices WHERE delegate_id = \$1`).
					WithArgs("del-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO delegate_choices`).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			check: func(t *testing.T, d *domain.Delegate) {
				assert.Equal(t, "del-1", d.ID)
				assert.Equal(t, created, d.CreatedAt)
			},
		},
		{
			name:     "source from another booking",
			sourceID: "del-other",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE delegates SET`).
					WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))
				mock.ExpectExec(`INSERT INTO delegates`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO delegate_choices`).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			check: func(t *testing.T, d *domain.Delegate) {
				assert.NotEqual(t, "del-other", d.ID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			staged := &domain.CartDelegate{
				SourceDelegateID: tt.sourceID,
				DelegateDetails:  domain.DelegateDetails{PackageID: "pkg-1", Forename: "Ann"},
				Choices:          []domain.CartChoice{{OptionID: "dinner", Price: domain.Price{Gross: 5, Partial: 5}}},
			}
			d, err := NewDelegateRepository(db).SaveFromCart(context.Background(), 3, staged)
			require.NoError(t, err)
			assert.Equal(t, int64(3), d.BookingID)
			assert.Equal(t, "Ann", d.Forename)
			require.Len(t, d.Choices, 1)
			tt.check(t, d)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDelegateRepository_SaveFromCart_UpdateError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`UPDATE delegates SET`).WillReturnError(sql.ErrConnDone)

	staged := &domain.CartDelegate{SourceDelegateID: "del-1"}
	_, err = NewDelegateRepository(db).SaveFromCart(context.Background(), 3, staged)
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelegateRepository_ListByBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cols := append(append([]string{"id", "booking_id"}, detailColumns...),
		"created_at", "p_id", "p_delegate_type_id", "dt_event_id", "p_name", "p_free_of_charge", "p_price_gross", "p_price_partial")
	mock.ExpectQuery(`FROM delegates d .*WHERE d.booking_id = \$1 ORDER BY d.created_at, d.id`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("del-1", int64(3), "pkg-1", "", "Ann", "Lee", "", "", "", true, false, created,
				"pkg-1", "dt-1", "ev-1", "Full", false, 100, 40))
	mock.ExpectQuery(`FROM delegate_choices\s+WHERE delegate_id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "delegate_id", "option_id", "price_gross", "price_partial"}).
			AddRow("ch-1", "del-1", "dinner", 10, 0))
	mock.ExpectQuery(`FROM delegates d`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(cols))

	repo := NewDelegateRepository(db)
	list, err := repo.ListByBooking(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.Price{Gross: 110, Partial: 40}, list[0].Total())

	empty, err := repo.ListByBooking(context.Background(), 4)
	require.NoError(t, err)
	assert.Empty(t, empty)
	require.NoError(t, mock.ExpectationsWereMet())
}
