package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness conflict.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrInvalidReference indicates a foreign key points at a missing row.
	ErrInvalidReference = errors.New("referenced record does not exist")
)

// Postgres error codes translated by mapError.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrAlreadyExists
		case pgForeignKeyViolation:
			return ErrInvalidReference
		}
	}
	return err
}

// expectAffected turns a zero-row UPDATE or DELETE into ErrNotFound.
func expectAffected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
