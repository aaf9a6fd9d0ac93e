package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/straintree/straintree-backend/internal/auth"
	"github.com/straintree/straintree-backend/internal/db"
	"github.com/straintree/straintree-backend/internal/models"
	repo "github.com/straintree/straintree-backend/internal/repository"
	"github.com/straintree/straintree-backend/internal/repository/sqlite"
	"github.com/straintree/straintree-backend/internal/worker"
)

func newTestRepos(t *testing.T) repo.Repositories {
	t.Helper()
	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return sqlite.NewRepositories(conn)
}

func newTestUser(t *testing.T, repos repo.Repositories, username string) models.User {
	t.Helper()
	hash, err := auth.HashPassword("Password1")
	require.NoError(t, err)
	user, err := repos.Users.Create(context.Background(), username, username+"@example.com", hash)
	require.NoError(t, err)
	return user
}

func newTestStrain(t *testing.T, repos repo.Repositories, user models.User, name, strainType string, thc *float64) models.Strain {
	t.Helper()
	s := models.Strain{
		Name:       name,
		StrainType: strainType,
		ThcContent: thc,
		CreatedBy:  user.ID,
	}
	require.NoError(t, repos.Strains.Create(context.Background(), &s))
	return s
}

func floatPtr(v float64) *float64 { return &v }

func newTestExportService(t *testing.T, repos repo.Repositories, dir string) *ExportService {
	t.Helper()
	pool := worker.NewPool(1)
	t.Cleanup(pool.Stop)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewExportService(repos.FamilyTrees, repos.Crosses, repos.Strains, pool, tokens, dir)
}
