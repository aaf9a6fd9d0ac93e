// Package sqlite implements the repositories over the pure-Go SQLite driver.
// It backs local development and the test suite; production deployments use
// the postgres package against a pgx pool.
package sqlite

import (
	"database/sql"

	repo "github.com/straintree/straintree-backend/internal/repository"
)

func NewRepositories(conn *sql.DB) repo.Repositories {
	return repo.Repositories{
		Users:       &usersRepo{conn},
		Sessions:    &sessionsRepo{conn},
		Strains:     &strainsRepo{conn},
		FamilyTrees: &treesRepo{conn},
		Crosses:     &crossesRepo{conn},
	}
}
