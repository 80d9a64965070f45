package errx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MissingTablesError signals that required persistence tables do not exist.
// The channel layer renders it as a diagnostic reply instead of failing the turn.
type MissingTablesError struct {
	Tables []string
}

func (e *MissingTablesError) Error() string {
	return fmt.Sprintf("missing required tables: %s", strings.Join(e.Tables, ", "))
}

// WrapPostgres maps Postgres errors to the unified AppError type.
// Undefined-relation errors (SQLSTATE 42P01) are surfaced as MissingTablesError
// naming the tables the caller depends on.
func WrapPostgres(err error, tables ...string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return New(err, http.StatusNotFound, PostgresErrorMessage)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" && len(tables) > 0 {
		return New(&MissingTablesError{Tables: tables}, http.StatusFailedDependency, PostgresErrorMessage)
	}

	return New(err, http.StatusBadGateway, PostgresErrorMessage)
}
