package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlightRepository interface {
	List(ctx context.Context, region domain.Region) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	GetByRoute(ctx context.Context, route string) (*domain.Flight, error)
	UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) error
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, route, region, base_fare_cents, total_seats, status, updated_at`

func scanFlightRow(row pgx.Row) (FlightRow, error) {
	var fr FlightRow
	err := row.Scan(&fr.ID, &fr.Route, &fr.Region, &fr.BaseFareCents, &fr.TotalSeats, &fr.Status, &fr.UpdatedAt)
	return fr, err
}

func (r *PGFlightRepository) List(ctx context.Context, region domain.Region) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights WHERE ($1 = '' OR region = $1) ORDER BY route`, string(region))
	if err != nil {
		return nil, persistence("list flights", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		fr, err := scanFlightRow(rows)
		if err != nil {
			return nil, persistence("scan flight", err)
		}
		f, err := FlightFromRow(fr, nil)
		if err != nil {
			return nil, persistence("map flight", err)
		}
		flights = append(flights, f)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list flights", err)
	}
	return flights, nil
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return r.getOne(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
}

func (r *PGFlightRepository) GetByRoute(ctx context.Context, route string) (*domain.Flight, error) {
	return r.getOne(ctx, `SELECT `+flightColumns+` FROM flights WHERE route=$1`, route)
}

func (r *PGFlightRepository) getOne(ctx context.Context, query string, arg any) (*domain.Flight, error) {
	fr, err := scanFlightRow(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlightNotFound
		}
		return nil, persistence("get flight", err)
	}

	occupied, err := occupiedSeats(ctx, r.db, fr.ID)
	if err != nil {
		return nil, err
	}
	f, err := FlightFromRow(fr, occupied)
	if err != nil {
		return nil, persistence("map flight", err)
	}
	return &f, nil
}

func (r *PGFlightRepository) UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET status=$1, updated_at=now() WHERE id=$2`, string(status), id)
	if err != nil {
		return persistence("update flight status", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
