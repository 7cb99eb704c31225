package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	// Create stores the booking, its seats, the earned loyalty points and the
	// booking completion audit line in one transaction.
	Create(ctx context.Context, booking *domain.Booking) error
	GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	// Delete removes a booking owned by userID and returns the seats it released.
	Delete(ctx context.Context, pnr string, userID int64) ([]string, error)
	// MarkCheckedIn reports false when the booking was already checked in.
	MarkCheckedIn(ctx context.Context, pnr string) (bool, error)
	// PNRExists covers live bookings and the completion lines of canceled ones.
	PNRExists(ctx context.Context, pnr string) (bool, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingSelect = `SELECT b.id, b.pnr, b.user_id, u.username, b.fare_class, b.fare_multiplier::float8,
	b.total_cents, b.num_persons, b.payment_method, b.is_checked_in, b.created_at,
	f.id, f.route, f.region, f.base_fare_cents, f.total_seats, f.status, f.updated_at
	FROM bookings b
	JOIN users u ON u.id = b.user_id
	JOIN flights f ON f.id = b.flight_id`

func scanBooking(row pgx.Row) (BookingRow, error) {
	var br BookingRow
	err := row.Scan(&br.ID, &br.PNR, &br.UserID, &br.Username, &br.FareClass, &br.FareMultiplier,
		&br.TotalCents, &br.Persons, &br.PaymentMethod, &br.CheckedIn, &br.CreatedAt,
		&br.Flight.ID, &br.Flight.Route, &br.Flight.Region, &br.Flight.BaseFareCents, &br.Flight.TotalSeats, &br.Flight.Status, &br.Flight.UpdatedAt)
	return br, err
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return persistence("begin booking", err)
	}
	defer tx.Rollback(ctx)

	// FOR SHARE keeps a concurrent status change from landing between the check and the insert
	var status string
	if err := tx.QueryRow(ctx, `SELECT status FROM flights WHERE id=$1 FOR SHARE`, booking.Flight.ID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrFlightUnavailable
		}
		return persistence("lock flight", err)
	}
	if domain.FlightStatus(status) == domain.FlightStatusCanceled {
		return domain.ErrFlightUnavailable
	}

	if err := tx.QueryRow(ctx, `INSERT INTO bookings
		(pnr, user_id, flight_id, fare_class, fare_multiplier, total_cents, num_persons, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		booking.PNR, booking.UserID, booking.Flight.ID, string(booking.Fare.Class), booking.Fare.Multiplier(),
		booking.TotalCents, booking.Persons, booking.PaymentMethod).
		Scan(&booking.ID, &booking.CreatedAt); err != nil {
		return mapWriteErr("insert booking", err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO reserved_seats (booking_id, flight_id, seat_id)
		SELECT $1, $2, unnest($3::text[])`, booking.ID, booking.Flight.ID, booking.Seats); err != nil {
		return mapWriteErr("reserve seats", err)
	}

	if err := tx.QueryRow(ctx, `UPDATE users SET loyalty_points = loyalty_points + $1 WHERE id=$2 RETURNING username`,
		booking.PointsEarned(), booking.UserID).Scan(&booking.Username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		return persistence("credit loyalty points", err)
	}

	// the completion line is the lasting record of the PNR once the booking is canceled
	if _, err := tx.Exec(ctx, `INSERT INTO audit_log (message, username) VALUES ($1, $2)`,
		domain.BookingCompletedMessage(booking), booking.Username); err != nil {
		return persistence("record booking", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return persistence("commit booking", err)
	}
	return nil
}

func (r *PGBookingRepository) GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	br, err := scanBooking(r.db.QueryRow(ctx, bookingSelect+` WHERE b.pnr=$1`, pnr))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, persistence("get booking", err)
	}

	seats, err := r.bookingSeats(ctx, br.ID)
	if err != nil {
		return nil, err
	}
	b, err := BookingFromRow(br, seats)
	if err != nil {
		return nil, persistence("map booking", err)
	}
	return &b, nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, bookingSelect+` WHERE b.user_id=$1 ORDER BY b.created_at DESC, b.id DESC`, userID)
	if err != nil {
		return nil, persistence("list bookings", err)
	}
	defer rows.Close()

	var brs []BookingRow
	for rows.Next() {
		br, err := scanBooking(rows)
		if err != nil {
			return nil, persistence("scan booking", err)
		}
		brs = append(brs, br)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list bookings", err)
	}

	bookings := make([]domain.Booking, 0, len(brs))
	for _, br := range brs {
		seats, err := r.bookingSeats(ctx, br.ID)
		if err != nil {
			return nil, err
		}
		b, err := BookingFromRow(br, seats)
		if err != nil {
			return nil, persistence("map booking", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

func (r *PGBookingRepository) bookingSeats(ctx context.Context, bookingID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT seat_id FROM reserved_seats WHERE booking_id=$1`, bookingID)
	if err != nil {
		return nil, persistence("list booking seats", err)
	}
	seats, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, persistence("scan booking seats", err)
	}
	return seats, nil
}

func (r *PGBookingRepository) Delete(ctx context.Context, pnr string, userID int64) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, persistence("begin cancel", err)
	}
	defer tx.Rollback(ctx)

	var id, owner int64
	if err := tx.QueryRow(ctx, `SELECT id, user_id FROM bookings WHERE pnr=$1 FOR UPDATE`, pnr).Scan(&id, &owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, persistence("lock booking", err)
	}
	if owner != userID {
		return nil, domain.ErrNotOwner
	}

	rows, err := tx.Query(ctx, `DELETE FROM reserved_seats WHERE booking_id=$1 RETURNING seat_id`, id)
	if err != nil {
		return nil, persistence("release seats", err)
	}
	released, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, persistence("release seats", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id); err != nil {
		return nil, persistence("delete booking", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, persistence("commit cancel", err)
	}
	return released, nil
}

func (r *PGBookingRepository) MarkCheckedIn(ctx context.Context, pnr string) (bool, error) {
	res, err := r.db.Exec(ctx, `UPDATE bookings SET is_checked_in = TRUE WHERE pnr=$1 AND NOT is_checked_in`, pnr)
	if err != nil {
		return false, persistence("check in", err)
	}
	if res.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE pnr=$1)`, pnr).Scan(&exists); err != nil {
		return false, persistence("check in", err)
	}
	if !exists {
		return false, domain.ErrBookingNotFound
	}
	return false, nil
}

func (r *PGBookingRepository) PNRExists(ctx context.Context, pnr string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE pnr=$1)
		OR EXISTS (SELECT 1 FROM audit_log WHERE message LIKE $2)`,
		pnr, domain.BookingCompletedPattern(pnr)).Scan(&exists)
	if err != nil {
		return false, persistence("check pnr", err)
	}
	return exists, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
