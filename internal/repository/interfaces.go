package repository

import (
	"context"
	"time"

	"github.com/straintree/straintree-backend/internal/models"
)

// Implementations map "no row" results to apperror.ErrNotFound so services
// never depend on driver sentinel errors.

type Users interface {
	Create(ctx context.Context, username, email, passwordHash string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

type Sessions interface {
	Create(ctx context.Context, s models.Session) error
	Get(ctx context.Context, id string) (models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Strains interface {
	Create(ctx context.Context, s *models.Strain) error
	GetByID(ctx context.Context, id string) (models.Strain, error)
	GetByName(ctx context.Context, name string) (models.Strain, error)
	GetByNameAndCreator(ctx context.Context, name, userID string) (models.Strain, error)
	List(ctx context.Context, f models.StrainFilter) ([]models.Strain, int, error)
	ListVerified(ctx context.Context, page, perPage int) ([]models.Strain, int, error)
	Search(ctx context.Context, q string, limit int) ([]models.Strain, error)
	ListByCreator(ctx context.Context, userID string) ([]models.Strain, error)
	Update(ctx context.Context, s *models.Strain) error
	CountUsage(ctx context.Context, strainID string) (int, error)
	PublicTreesReferencing(ctx context.Context, strainID string) ([]models.FamilyTree, error)
}

type FamilyTrees interface {
	Create(ctx context.Context, t *models.FamilyTree) error
	GetByID(ctx context.Context, id string) (models.FamilyTree, error)
	GetByShareToken(ctx context.Context, token string) (models.FamilyTree, error)
	ListByOwner(ctx context.Context, ownerID string, page, perPage int) ([]models.FamilyTree, int, error)
	ListPublic(ctx context.Context, page, perPage int) ([]models.FamilyTree, int, error)
	Update(ctx context.Context, t *models.FamilyTree) error
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type Crosses interface {
	Create(ctx context.Context, c *models.Cross) error
	GetByID(ctx context.Context, id string) (models.Cross, error)
	ListByTree(ctx context.Context, treeID string) ([]models.Cross, error)
	Update(ctx context.Context, c *models.Cross) error
	Delete(ctx context.Context, id string) error
}

// Repositories bundles one backend's implementations for wiring.
type Repositories struct {
	Users       Users
	Sessions    Sessions
	Strains     Strains
	FamilyTrees FamilyTrees
	Crosses     Crosses
}
