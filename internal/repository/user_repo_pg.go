package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRow(ctx, `INSERT INTO users (username, password_hash, role, loyalty_points)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, user.Username, user.PasswordHash, string(user.Role), user.LoyaltyPoints).
		Scan(&user.ID, &user.CreatedAt)
	return mapWriteErr("create user", err)
}

func (r *PGUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT id, username, password_hash, role, loyalty_points, created_at FROM users WHERE username=$1`, username)
}

func (r *PGUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, `SELECT id, username, password_hash, role, loyalty_points, created_at FROM users WHERE id=$1`, id)
}

func (r *PGUserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var ur UserRow
	err := r.db.QueryRow(ctx, query, arg).Scan(&ur.ID, &ur.Username, &ur.PasswordHash, &ur.Role, &ur.LoyaltyPoints, &ur.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, persistence("get user", err)
	}

	rows, err := r.db.Query(ctx, `SELECT pnr FROM bookings WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, ur.ID)
	if err != nil {
		return nil, persistence("list user pnrs", err)
	}
	pnrs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, persistence("scan user pnrs", err)
	}

	u, err := UserFromRow(ur, pnrs)
	if err != nil {
		return nil, persistence("map user", err)
	}
	return &u, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
