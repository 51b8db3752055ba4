package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

// SQLSTATE codes that mean the store cannot serve us right now, in addition
// to the whole 08 (connection exception) class.
var unavailableCodes = map[string]bool{
	"53300": true, // too_many_connections
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
	"57P03": true, // cannot_connect_now
}

// SQLSTATE codes for rows the schema refuses.
var invalidCodes = map[string]bool{
	"23514": true, // check_violation
	"22001": true, // string_data_right_truncation
}

// MapError prefixes err with op and wraps the matching domain sentinel:
// ErrNotFound, ErrValidation or ErrStoreUnavailable. Context errors and
// unclassified errors are only prefixed.
func MapError(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if sentinel := classify(pgErr.Code); sentinel != nil {
			return fmt.Errorf("%s: %w: %s", op, sentinel, pgErr.Message)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func classify(code string) error {
	switch {
	case invalidCodes[code]:
		return domain.ErrValidation
	case strings.HasPrefix(code, "08"), unavailableCodes[code]:
		return domain.ErrStoreUnavailable
	}
	return nil
}
