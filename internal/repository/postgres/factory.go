package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	repo "github.com/straintree/straintree-backend/internal/repository"
)

func NewRepositories(pool *pgxpool.Pool) repo.Repositories {
	return repo.Repositories{
		Users:       &usersRepo{pool},
		Sessions:    &sessionsRepo{pool},
		Strains:     &strainsRepo{pool},
		FamilyTrees: &treesRepo{pool},
		Crosses:     &crossesRepo{pool},
	}
}
