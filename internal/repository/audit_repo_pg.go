package repository

import (
	"context"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository interface {
	// Append stores message with the given actor. An empty actor or domain.SystemActor is stored as NULL.
	Append(ctx context.Context, message, actor string) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

type StatsRepository interface {
	Stats(ctx context.Context) (domain.Stats, error)
}

type PGAuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *PGAuditRepository {
	return &PGAuditRepository{db: db}
}

func (r *PGAuditRepository) Append(ctx context.Context, message, actor string) error {
	var username *string
	if actor != "" && actor != domain.SystemActor {
		username = &actor
	}
	if _, err := r.db.Exec(ctx, `INSERT INTO audit_log (message, username) VALUES ($1, $2)`, message, username); err != nil {
		return persistence("append audit", err)
	}
	return nil
}

func (r *PGAuditRepository) Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > domain.MaxAuditEntries {
		limit = domain.MaxAuditEntries
	}
	rows, err := r.db.Query(ctx, `SELECT id, logged_at, message, username FROM audit_log ORDER BY logged_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, persistence("list audit", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0, limit)
	for rows.Next() {
		var ar AuditRow
		if err := rows.Scan(&ar.ID, &ar.LoggedAt, &ar.Message, &ar.Username); err != nil {
			return nil, persistence("scan audit", err)
		}
		entries = append(entries, AuditFromRow(ar))
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list audit", err)
	}
	return entries, nil
}

// Stats aggregates in one statement so the numbers come from a single snapshot.
func (r *PGAuditRepository) Stats(ctx context.Context) (domain.Stats, error) {
	var s domain.Stats
	var booked, seats int64
	err := r.db.QueryRow(ctx, `SELECT
		(SELECT count(*) FROM bookings)::bigint,
		(SELECT coalesce(sum(total_cents), 0) FROM bookings)::bigint,
		(SELECT count(*) FROM bookings WHERE is_checked_in)::bigint,
		(SELECT coalesce(sum(num_persons), 0) FROM bookings)::bigint,
		(SELECT coalesce(sum(total_seats), 0) FROM flights WHERE status <> 'CANCELED')::bigint`).
		Scan(&s.TotalBookings, &s.RevenueCents, &s.CheckedIn, &booked, &seats)
	if err != nil {
		return domain.Stats{}, persistence("stats", err)
	}
	s.OccupancyPercent = domain.Occupancy(booked, seats)
	return s, nil
}

var (
	_ AuditRepository = (*PGAuditRepository)(nil)
	_ StatsRepository = (*PGAuditRepository)(nil)
)
