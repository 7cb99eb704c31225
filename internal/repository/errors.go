package repository

import (
	"errors"
	"fmt"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// constraintErrors translates named schema constraints into domain errors.
var constraintErrors = map[string]error{
	"reserved_seats_flight_seat_key": domain.ErrSeatConflict,
	"reserved_seats_flight_id_fkey":  domain.ErrFlightNotFound,
	"bookings_pnr_key":               domain.ErrDuplicatePNR,
	"bookings_user_id_fkey":          domain.ErrUserNotFound,
	"users_username_key":             domain.ErrDuplicateUsername,
}

func mapWriteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == uniqueViolation || pgErr.Code == foreignKeyViolation) {
		if mapped, ok := constraintErrors[pgErr.ConstraintName]; ok {
			return mapped
		}
	}
	return persistence(op, err)
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}
