package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrDuplicateVerification is returned when (report, verifier) already has a row
	ErrDuplicateVerification = errors.New("verification already recorded for this user")
	// ErrReportMissing is returned when a write targets a report that does not exist
	ErrReportMissing = errors.New("report does not exist")
)

const mysqlErrDuplicateEntry = 1062

// isUniqueViolation recognises unique constraint failures from the supported drivers
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrDuplicateEntry
	}

	return false
}
