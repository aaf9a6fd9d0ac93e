package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/straintree/straintree-backend/internal/apperror"
	"github.com/straintree/straintree-backend/internal/models"
)

type usersRepo struct{ pool *pgxpool.Pool }

const userCols = `id, username, email, password_hash, created_at, updated_at`

func (r *usersRepo) Create(ctx context.Context, username, email, passwordHash string) (models.User, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users(id, username, email, password_hash) VALUES($1,$2,$3,$4)`,
		id, username, email, passwordHash,
	)
	if err != nil {
		return models.User{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	return r.get(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id)
}

func (r *usersRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return r.get(ctx, `SELECT `+userCols+` FROM users WHERE username=$1`, username)
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return r.get(ctx, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER($1)`, email)
}

func (r *usersRepo) get(ctx context.Context, query string, arg any) (models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, apperror.NotFound("User not found")
	}
	return u, err
}
