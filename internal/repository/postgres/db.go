package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"delegatebooking/internal/domain"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so repositories run inside or outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewStores returns the booking repositories bound to db, which may be a *sql.DB or a *sql.Tx.
func NewStores(db dbtx) domain.TxStores {
	return domain.TxStores{
		Carts:     &cartRepository{DB: db},
		Bookings:  &bookingRepository{DB: db},
		Delegates: &delegateRepository{DB: db},
		Receipts:  &receiptRepository{DB: db},
	}
}

const defaultTxTimeout = 5 * time.Second

// TxRunner runs repository work in a database transaction.
type TxRunner struct {
	DB      *sql.DB
	Timeout time.Duration
}

// NewTxRunner returns a TxRunner using the default transaction timeout.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{DB: db, Timeout: defaultTxTimeout}
}

// RunInTx commits when fn returns nil and rolls back otherwise.
func (t *TxRunner) RunInTx(ctx context.Context, fn func(stores domain.TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}
	timeout := t.Timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(NewStores(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// placeholders returns "$start, $start+1, ..." for n parameters.
func placeholders(start, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(ps, ", ")
}

// assignments returns "col = $start, ..." for an UPDATE ... SET clause.
func assignments(cols []string, start int) string {
	as := make([]string, len(cols))
	for i, c := range cols {
		as[i] = fmt.Sprintf("%s = $%d", c, start+i)
	}
	return strings.Join(as, ", ")
}

func qualify(alias string, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return strings.Join(out, ", ")
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
