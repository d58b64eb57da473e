// Package repository defines the MySQL data access layer and the error
// values it reports. Higher layers translate these into API errors:
// ErrNotFound becomes a 404, a DuplicateError a conflict naming the field.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/resort-backend/internal/database"
)

// ErrNotFound is returned when a row addressed by id or lookup key does not
// exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidReference is returned when a write points at a row that does not
// exist, such as assigning an enquiry to a deleted user.
var ErrInvalidReference = errors.New("invalid reference")

// ErrValueTooLong is returned when a value does not fit its column.
var ErrValueTooLong = errors.New("value too long for column")

// DuplicateError reports a unique constraint violation. Field is "email",
// "username" or "phone", or empty when the index could not be identified.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return "duplicate entry"
	}
	return "duplicate " + e.Field
}

const (
	mysqlDuplicateEntry   = 1062
	mysqlDataTooLong      = 1406
	mysqlForeignKeyFailed = 1452
)

// translate maps driver errors onto repository errors and passes anything
// else through unchanged.
func translate(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case mysqlDuplicateEntry:
		switch {
		case strings.Contains(me.Message, database.UniqueUserEmail):
			return &DuplicateError{Field: "email"}
		case strings.Contains(me.Message, database.UniqueUserUsername):
			return &DuplicateError{Field: "username"}
		case strings.Contains(me.Message, database.UniqueUserPhone):
			return &DuplicateError{Field: "phone"}
		}
		return &DuplicateError{}
	case mysqlDataTooLong:
		return ErrValueTooLong
	case mysqlForeignKeyFailed:
		return ErrInvalidReference
	}
	return err
}
