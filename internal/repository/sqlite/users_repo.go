package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/straintree/straintree-backend/internal/apperror"
	"github.com/straintree/straintree-backend/internal/models"
)

type usersRepo struct{ conn *sql.DB }

const userCols = `id, username, email, password_hash, created_at, updated_at`

func (r *usersRepo) Create(ctx context.Context, username, email, passwordHash string) (models.User, error) {
	now := time.Now().UTC()
	u := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO users(id, username, email, password_hash, created_at, updated_at)
		 VALUES(?,?,?,?,?,?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	return r.get(ctx, `SELECT `+userCols+` FROM users WHERE id=?`, id)
}

func (r *usersRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return r.get(ctx, `SELECT `+userCols+` FROM users WHERE username=?`, username)
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return r.get(ctx, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
}

func (r *usersRepo) get(ctx context.Context, query string, arg any) (models.User, error) {
	var u models.User
	err := r.conn.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperror.NotFound("User not found")
	}
	return u, err
}
