package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var pgConflictCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"23505": true, // unique_violation
}

var mysqlConflictCodes = map[uint16]bool{
	1205: true, // lock wait timeout
	1213: true, // deadlock
	1062: true, // duplicate entry
}

var sqliteConflictFragments = []string{
	"database is locked",
	"sqlite_busy",
	"sqlite_locked",
	"unique constraint failed",
}

// IsConflict reports whether err is lock contention, a serialization failure or
// a unique-key race, i.e. something worth retrying as a whole transaction.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgConflictCodes[pgErr.Code]
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return mysqlConflictCodes[myErr.Number]
	}

	msg := strings.ToLower(err.Error())
	for _, f := range sqliteConflictFragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}
