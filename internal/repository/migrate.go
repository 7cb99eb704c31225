package repository

import (
	"context"
	_ "embed"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	// no arguments: the simple protocol accepts several statements at once
	if _, err := db.Exec(ctx, schema); err != nil {
		return persistence("migrate", err)
	}
	return nil
}

// SeedFlights inserts flights whose route is not present yet and returns how many were added.
func SeedFlights(ctx context.Context, db *pgxpool.Pool, flights []domain.Flight) (int, error) {
	added := 0
	for _, f := range flights {
		status := f.Status
		if status == "" {
			status = domain.FlightStatusOnTime
		}
		res, err := db.Exec(ctx, `INSERT INTO flights (route, region, base_fare_cents, total_seats, status)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (route) DO NOTHING`, f.Route, string(f.Region), f.BaseFareCents, f.TotalSeats, string(status))
		if err != nil {
			return added, persistence("seed flight "+f.Route, err)
		}
		added += int(res.RowsAffected())
	}
	return added, nil
}
