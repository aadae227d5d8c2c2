package repository

import (
	"context"

	"github.com/Domenick1991/parking/internal/domain"
)

const userColumns = `id, username, password_hash, email, name, address, pincode, created_at`

type PGUserRepository struct {
	db Querier
}

func NewUserRepository(db Querier) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRow(ctx, `INSERT INTO users (username, password_hash, email, name, address, pincode)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		user.Username, user.PasswordHash, user.Email, user.Name, user.Address, user.Pincode).
		Scan(&user.ID, &user.CreatedAt)
	return mapError("create user", err)
}

func (r *PGUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *PGUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
}

func (r *PGUserRepository) get(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Name, &u.Address, &u.Pincode, &u.CreatedAt)
	if err != nil {
		return nil, mapLookupError("get user", err, domain.ErrUserNotFound)
	}
	return &u, nil
}

func (r *PGUserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, mapError("list users", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Name, &u.Address, &u.Pincode, &u.CreatedAt); err != nil {
			return nil, mapError("scan user", err)
		}
		users = append(users, u)
	}
	return users, mapError("list users", rows.Err())
}

var _ UserRepository = (*PGUserRepository)(nil)
