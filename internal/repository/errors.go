// Package repository implements the booking ledger on MySQL.  Unlike the
// sheet-backed ledger, slot uniqueness is a database constraint: a second
// insert of the same slot key fails with a duplicate-key error, which is
// reported as ledger.ErrConflict.  Cancelled bookings are deleted.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/LytheanSem/emotionwork-sub001/internal/ledger"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a unique constraint violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// storeErr tags a database failure so handlers report it as a
// backing-store outage.
func storeErr(op string, err error) error {
	return &ledger.StoreError{Op: op, Err: err}
}
