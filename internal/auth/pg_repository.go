package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgUserRepository implements UserRepository against the users table.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

var _ UserRepository = (*PgUserRepository)(nil)

func (r *PgUserRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	if r == nil || r.pool == nil {
		return User{}, errors.New("PgUserRepository: nil pool")
	}
	var u User
	err := r.pool.QueryRow(ctx,
		"SELECT id, username, password_hash, role FROM users WHERE username = $1",
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role)
	return u, err
}

func (r *PgUserRepository) FindByID(ctx context.Context, id int64) (User, error) {
	if r == nil || r.pool == nil {
		return User{}, errors.New("PgUserRepository: nil pool")
	}
	var u User
	err := r.pool.QueryRow(ctx,
		"SELECT id, username, password_hash, role FROM users WHERE id = $1",
		id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role)
	return u, err
}
