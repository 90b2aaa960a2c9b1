package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

var ErrRecordNotFound = errors.New("record not found")

const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// isRetryable reports whether MySQL rolled the statement back because of lock
// contention, in which case running it again is safe.
func isRetryable(err error) bool {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return false
	}
	return mysqlErr.Number == mysqlErrDeadlock || mysqlErr.Number == mysqlErrLockWaitTimeout
}

// execConditional runs a compare-and-set UPDATE and reports whether it changed
// exactly one row. A deadlock victim is retried once.
func execConditional(ctx context.Context, db *sql.DB, query string, args ...any) (bool, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil && isRetryable(err) {
		res, err = db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}
