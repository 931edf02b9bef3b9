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

func sampleBooking() *domain.Booking {
	return &domain.Booking{
		EventID:       "ev-1",
		Contact:       domain.ContactDetails{Forename: "Jane", Surname: "Doe", Email: "jane@example.com"},
		Billing:       domain.BillingDetails{Contact: "Accounts", Email: "accounts@example.com"},
		TermsAccepted: true,
		PaymentMethod: domain.PaymentInvoice,
		PasswordHash:  "hash",
	}
}

func bookingRow(b *domain.Booking, version int, created time.Time) []any {
	row := append([]any{b.ID}, bookingValues(b)...)
	return append(row, b.PasswordHash, version, created, created)
}

func bookingRowColumns() []string {
	cols := append([]string{"id"}, bookingColumns...)
	return append(cols, "password_hash", "version", "created_at", "updated_at")
}

func TestBookingRepository_Create(t *testing.T) {
	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock, b *domain.Booking)
		wantID  int64
		wantErr bool
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock, b *domain.Booking) {
				args := driverArgs(append(bookingValues(b), "hash", sqlmock.AnyArg())...)
				mock.ExpectQuery(`INSERT INTO bookings \(event_id, title, forename`).
					WithArgs(args...).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
			},
			wantID: 42,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock, _ *domain.Booking) {
				mock.ExpectQuery(`INSERT INTO bookings`).WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			b := sampleBooking()
			tt.mock(mock, b)
			err = NewBookingRepository(db).Create(context.Background(), b)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, b.ID)
			assert.Equal(t, 0, b.Version)
			assert.False(t, b.CreatedAt.IsZero())
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookingRepository_UpdateIfVersion(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		rows        *sqlmock.Rows
		want        domain.VersionCheck
		wantVersion int
	}{
		{
			name:        "applied",
			rows:        sqlmock.NewRows([]string{"version", "created_at"}).AddRow(3, created),
			want:        domain.VersionApplied,
			wantVersion: 3,
		},
		{
			name:        "stale version",
			rows:        sqlmock.NewRows([]string{"version", "created_at"}),
			want:        domain.VersionConflict,
			wantVersion: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			b := sampleBooking()
			b.ID = 7
			b.Version = 2
			args := driverArgs(append(bookingValues(b), sqlmock.AnyArg(), int64(7), 2)...)
			mock.ExpectQuery(`UPDATE bookings SET event_id = \$1, .*version = version \+ 1\s+WHERE id = \$\d+ AND version = \$\d+`).
				WithArgs(args...).
				WillReturnRows(tt.rows)

			got, err := NewBookingRepository(db).UpdateIfVersion(context.Background(), b, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantVersion, b.Version)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookingRepository_GetForEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stored := sampleBooking()
	stored.ID = 9
	mock.ExpectQuery(`FROM bookings\s+WHERE id = \$1 AND event_id = \$2`).
		WithArgs(int64(9), "ev-1").
		WillReturnRows(sqlmock.NewRows(bookingRowColumns()).AddRow(driverArgs(bookingRow(stored, 4, created)...)...))
	mock.ExpectQuery(`FROM bookings\s+WHERE id = \$1 AND event_id = \$2`).
		WithArgs(int64(9), "ev-2").
		WillReturnRows(sqlmock.NewRows(bookingRowColumns()))

	repo := NewBookingRepository(db)
	got, err := repo.GetForEvent(context.Background(), "ev-1", 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.ID)
	assert.Equal(t, 4, got.Version)
	assert.Equal(t, "jane@example.com", got.Contact.Email)
	assert.Equal(t, "Accounts", got.Billing.Contact)
	assert.Equal(t, domain.PaymentInvoice, got.PaymentMethod)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = repo.GetForEvent(context.Background(), "ev-2", 9)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_UpdateBilling(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	billing := domain.BillingDetails{Contact: "Finance", Email: "fin@example.com"}
	args := driverArgs(append(domain.BillingValues(billing), sqlmock.AnyArg(), int64(5))...)
	mock.ExpectExec(`UPDATE bookings SET bill_contact = \$1`).WithArgs(args...).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bookings SET bill_contact`).WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewBookingRepository(db)
	require.NoError(t, repo.UpdateBilling(context.Background(), 5, billing))
	require.ErrorIs(t, repo.UpdateBilling(context.Background(), 6, billing), domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
