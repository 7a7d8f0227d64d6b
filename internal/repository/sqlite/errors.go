package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/sakif/job-tracker/internal/model"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint. The driver exposes the extended result code; the message
// check covers errors that were re-wrapped without the *Error type.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlitedriver.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullString maps "" and nil to SQL NULL.
func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// dateArg converts an optional date into a query argument.
func dateArg(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func datePtr(nd sql.Null[model.Date]) *model.Date {
	if !nd.Valid {
		return nil
	}
	d := nd.V
	return &d
}
