package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"delegatebooking/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func driverArgs(vals ...any) []driver.Value {
	out := make([]driver.Value, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func anyArgs(n int) []driver.Value {
	out := make([]driver.Value, n)
	for i := range out {
		out[i] = sqlmock.AnyArg()
	}
	return out
}

func TestTxRunner_RunInTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM carts WHERE id = \$1`).WithArgs("cart-1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = NewTxRunner(db).RunInTx(ctx, func(stores domain.TxStores) error {
			return stores.Carts.DeleteCart(ctx, "cart-1")
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err = NewTxRunner(db).RunInTx(ctx, func(domain.TxStores) error { return boom })
		require.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin().WillReturnError(errors.New("no connection"))
		called := false
		err = NewTxRunner(db).RunInTx(ctx, func(domain.TxStores) error {
			called = true
			return nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "begin transaction")
		assert.False(t, called)
	})

	t.Run("cancelled context", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err = NewTxRunner(db).RunInTx(cancelled, func(domain.TxStores) error { return nil })
		require.ErrorIs(t, err, context.Canceled)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$3, $4, $5", placeholders(3, 3))
	assert.Equal(t, "a = $2, b = $3", assignments([]string{"a", "b"}, 2))
	assert.Equal(t, "d.a, d.b", qualify("d", []string{"a", "b"}))
}
