package repository

import (
	"context"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SeatRepository manages operator holds: reserved_seats rows without a booking.
// Seats that belong to a booking are written and released by BookingRepository only.
type SeatRepository interface {
	Occupied(ctx context.Context, flightID int64) (domain.SeatSet, error)
	Hold(ctx context.Context, flightID int64, seats []string) error
	ReleaseHold(ctx context.Context, flightID int64, seats []string) (int64, error)
}

type PGSeatRepository struct {
	db *pgxpool.Pool
}

func NewSeatRepository(db *pgxpool.Pool) SeatRepository {
	return &PGSeatRepository{db: db}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func occupiedSeats(ctx context.Context, q querier, flightID int64) ([]string, error) {
	rows, err := q.Query(ctx, `SELECT seat_id FROM reserved_seats WHERE flight_id=$1`, flightID)
	if err != nil {
		return nil, persistence("list reserved seats", err)
	}
	seats, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, persistence("scan reserved seats", err)
	}
	return seats, nil
}

func (r *PGSeatRepository) Occupied(ctx context.Context, flightID int64) (domain.SeatSet, error) {
	seats, err := occupiedSeats(ctx, r.db, flightID)
	if err != nil {
		return nil, err
	}
	return domain.NewSeatSet(seats...), nil
}

// Hold inserts every seat in one statement, so a single taken seat rejects the whole set.
func (r *PGSeatRepository) Hold(ctx context.Context, flightID int64, seats []string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO reserved_seats (booking_id, flight_id, seat_id)
		SELECT NULL, $1, unnest($2::text[])`, flightID, seats)
	return mapWriteErr("hold seats", err)
}

func (r *PGSeatRepository) ReleaseHold(ctx context.Context, flightID int64, seats []string) (int64, error) {
	res, err := r.db.Exec(ctx, `DELETE FROM reserved_seats WHERE flight_id=$1 AND seat_id = ANY($2) AND booking_id IS NULL`, flightID, seats)
	if err != nil {
		return 0, persistence("release seats", err)
	}
	return res.RowsAffected(), nil
}

var _ SeatRepository = (*PGSeatRepository)(nil)
