package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/straintree/straintree-backend/internal/apperror"
	"github.com/straintree/straintree-backend/internal/models"
)

func TestTreeCreateAndVisibility(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewTreeService(repos.FamilyTrees, repos.Crosses, repos.Strains)
	owner := newTestUser(t, repos, "owner")
	other := newTestUser(t, repos, "other")
	ctx := context.Background()

	private, err := svc.Create(ctx, owner, "Private garden", "", false)
	require.NoError(t, err)
	assert.NotEmpty(t, private.ShareToken)

	public, err := svc.Create(ctx, owner, "Public garden", "", true)
	require.NoError(t, err)

	_, err = svc.Create(ctx, owner, "  ", "", false)
	require.Error(t, err)
	assert.Equal(t, "Family tree name is required", err.Error())

	// Owner sees both; another user only the public one; anonymous too.
	_, err = svc.Get(ctx, &owner, private.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, &other, private.ID)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
	_, err = svc.Get(ctx, nil, private.ID)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
	_, err = svc.Get(ctx, nil, public.ID)
	require.NoError(t, err)

	// The share token bypasses the public flag.
	shared, err := svc.Shared(ctx, private.ShareToken)
	require.NoError(t, err)
	assert.Equal(t, private.ID, shared.ID)
}

func TestTreeUpdateAndDelete(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewTreeService(repos.FamilyTrees, repos.Crosses, repos.Strains)
	owner := newTestUser(t, repos, "owner")
	other := newTestUser(t, repos, "other")
	ctx := context.Background()

	tree, err := svc.Create(ctx, owner, "Garden", "", false)
	require.NoError(t, err)

	_, err = svc.Update(ctx, other, tree.ID, map[string]any{"name": "Hijacked"})
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	updated, err := svc.Update(ctx, owner, tree.ID, map[string]any{"name": "Garden v2", "is_public": true})
	require.NoError(t, err)
	assert.Equal(t, "Garden v2", updated.Name)
	assert.True(t, updated.IsPublic)

	require.Error(t, svc.Delete(ctx, other, tree.ID))
	require.NoError(t, svc.Delete(ctx, owner, tree.ID))
	_, err = svc.Get(ctx, &owner, tree.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestCreateCrossAutoOffspring(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewTreeService(repos.FamilyTrees, repos.Crosses, repos.Strains)
	user := newTestUser(t, repos, "grower")
	ctx := context.Background()

	p1 := newTestStrain(t, repos, user, "Haze", "sativa", floatPtr(20))
	p2 := newTestStrain(t, repos, user, "Kush", "indica", floatPtr(10))

	tree, err := svc.Create(ctx, user, "Garden", "", false)
	require.NoError(t, err)

	result, err := svc.CreateCross(ctx, user, tree.ID, CreateCrossInput{
		Parent1ID: p1.ID,
		Parent2ID: p2.ID,
	})
	require.NoError(t, err)
	assert.True(t, result.AutoCreated)
	assert.Equal(t, "Haze x Kush (F1)", result.Offspring.Name)
	assert.Equal(t, "Hybrid", result.Offspring.StrainType)
	require.NotNil(t, result.Offspring.ThcContent)
	assert.Equal(t, 15.0, *result.Offspring.ThcContent)
	assert.Contains(t, result.Offspring.Description, "Cross between Haze and Kush")
	assert.Equal(t, 1, result.Cross.Generation)
	assert.Equal(t, "Haze", result.Cross.Parent1Name)

	// The same cross again reuses the strain instead of recreating it.
	again, err := svc.CreateCross(ctx, user, tree.ID, CreateCrossInput{
		Parent1ID: p1.ID,
		Parent2ID: p2.ID,
	})
	require.NoError(t, err)
	assert.False(t, again.AutoCreated)
	assert.Equal(t, result.Offspring.ID, again.Offspring.ID)

	_, err = svc.CreateCross(ctx, user, tree.ID, CreateCrossInput{
		Parent1ID: "missing",
		Parent2ID: p2.ID,
	})
	require.Error(t, err)
	assert.Equal(t, "Parent strain not found", err.Error())
}

func TestCreateCrossSharedParentType(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewTreeService(repos.FamilyTrees, repos.Crosses, repos.Strains)
	user := newTestUser(t, repos, "grower")
	ctx := context.Background()

	p1 := newTestStrain(t, repos, user, "Afghan", "indica", floatPtr(12))
	p2 := newTestStrain(t, repos, user, "Hindu Kush", "indica", nil)

	tree, err := svc.Create(ctx, user, "Garden", "", false)
	require.NoError(t, err)

	result, err := svc.CreateCross(ctx, user, tree.ID, CreateCrossInput{
		Parent1ID:  p1.ID,
		Parent2ID:  p2.ID,
		Generation: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "indica", result.Offspring.StrainType)
	assert.Equal(t, "Afghan x Hindu Kush (F2)", result.Offspring.Name)
	// Only one parent has a THC value, so it carries over unchanged.
	require.NotNil(t, result.Offspring.ThcContent)
	assert.Equal(t, 12.0, *result.Offspring.ThcContent)
}

func TestUpdateAndDeleteCross(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewTreeService(repos.FamilyTrees, repos.Crosses, repos.Strains)
	user := newTestUser(t, repos, "grower")
	ctx := context.Background()

	p1 := newTestStrain(t, repos, user, "Haze", "sativa", nil)
	p2 := newTestStrain(t, repos, user, "Kush", "indica", nil)

	tree, err := svc.Create(ctx, user, "Garden", "", false)
	require.NoError(t, err)
	otherTree, err := svc.Create(ctx, user, "Other", "", false)
	require.NoError(t, err)

	result, err := svc.CreateCross(ctx, user, tree.ID, CreateCrossInput{Parent1ID: p1.ID, Parent2ID: p2.ID})
	require.NoError(t, err)

	gen := 3
	notes := "backcross candidate"
	updated, err := svc.UpdateCross(ctx, user, tree.ID, result.Cross.ID, UpdateCrossInput{
		Generation: &gen,
		Notes:      &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Generation)
	assert.Equal(t, "backcross candidate", updated.Notes)

	// A cross addressed through the wrong tree reads as missing.
	_, err = svc.UpdateCross(ctx, user, otherTree.ID, result.Cross.ID, UpdateCrossInput{})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	require.NoError(t, svc.DeleteCross(ctx, user, tree.ID, result.Cross.ID))
	detail, err := svc.Get(ctx, &user, tree.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Crosses)
}

func TestCascadeDelete(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewTreeService(repos.FamilyTrees, repos.Crosses, repos.Strains)
	user := newTestUser(t, repos, "grower")
	ctx := context.Background()

	p1 := newTestStrain(t, repos, user, "Haze", "sativa", nil)
	p2 := newTestStrain(t, repos, user, "Kush", "indica", nil)

	tree, err := svc.Create(ctx, user, "Garden", "", false)
	require.NoError(t, err)
	result, err := svc.CreateCross(ctx, user, tree.ID, CreateCrossInput{Parent1ID: p1.ID, Parent2ID: p2.ID})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user, tree.ID))
	_, err = repos.Crosses.GetByID(ctx, result.Cross.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	// The auto-created offspring strain survives the tree deletion.
	_, err = repos.Strains.GetByID(ctx, result.Offspring.ID)
	require.NoError(t, err)
}

func TestNextGeneration(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewTreeService(repos.FamilyTrees, repos.Crosses, repos.Strains)
	user := newTestUser(t, repos, "grower")
	ctx := context.Background()

	tree, err := svc.Create(ctx, user, "Garden", "", false)
	require.NoError(t, err)

	next, err := svc.NextGeneration(ctx, &user, tree.ID)
	require.NoError(t, err)
	assert.Equal(t, "F1", next)

	p1 := newTestStrain(t, repos, user, "Haze", "sativa", nil)
	p2 := newTestStrain(t, repos, user, "Kush", "indica", nil)
	_, err = svc.CreateCross(ctx, user, tree.ID, CreateCrossInput{Parent1ID: p1.ID, Parent2ID: p2.ID, Generation: 3})
	require.NoError(t, err)

	next, err = svc.NextGeneration(ctx, &user, tree.ID)
	require.NoError(t, err)
	assert.Equal(t, "F4", next)
}

func TestGenerateOffspring(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewTreeService(repos.FamilyTrees, repos.Crosses, repos.Strains)
	user := newTestUser(t, repos, "grower")
	ctx := context.Background()

	newTestStrain(t, repos, user, "Haze", "sativa", floatPtr(20))
	newTestStrain(t, repos, user, "Silver Haze", "sativa", floatPtr(18))

	tree, err := svc.Create(ctx, user, "Garden", "", false)
	require.NoError(t, err)

	result, err := svc.GenerateOffspring(ctx, user, tree.ID, GenerateOffspringInput{
		Parent1Name: "Haze",
		Parent2Name: "Silver Haze",
		Name:        "Super Silver",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sativa-dominant", result.Dominance)
	assert.Equal(t, "sativa", result.Strain.StrainType)
	require.NotNil(t, result.Strain.ThcContent)
	assert.Equal(t, 19.0, *result.Strain.ThcContent)

	_, err = svc.GenerateOffspring(ctx, user, tree.ID, GenerateOffspringInput{
		Parent1Name: "Haze",
		Parent2Name: "Silver Haze",
		Name:        "Super Silver",
	})
	require.Error(t, err)
	assert.Equal(t, "Strain with this name already exists", err.Error())

	_, err = svc.GenerateOffspring(ctx, user, tree.ID, GenerateOffspringInput{
		Parent1Name: "Haze",
		Parent2Name: "Nonexistent",
		Name:        "Another",
	})
	require.Error(t, err)
	assert.Equal(t, "Parent strain not found", err.Error())
}

func TestDominanceMatchesCompoundTypes(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewTreeService(repos.FamilyTrees, repos.Crosses, repos.Strains)
	user := newTestUser(t, repos, "grower")
	ctx := context.Background()

	newTestStrain(t, repos, user, "Haze", "sativa", nil)
	newTestStrain(t, repos, user, "Silver Haze", "Sativa-dominant hybrid", nil)
	newTestStrain(t, repos, user, "Afghan", "Indica-dominant", nil)
	newTestStrain(t, repos, user, "Hindu Kush", "indica", nil)

	tree, err := svc.Create(ctx, user, "Garden", "", false)
	require.NoError(t, err)

	// Compound labels still count toward their side.
	result, err := svc.GenerateOffspring(ctx, user, tree.ID, GenerateOffspringInput{
		Parent1Name: "Haze",
		Parent2Name: "Silver Haze",
		Name:        "Super Silver",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sativa-dominant", result.Dominance)

	result, err = svc.GenerateOffspring(ctx, user, tree.ID, GenerateOffspringInput{
		Parent1Name: "Afghan",
		Parent2Name: "Hindu Kush",
		Name:        "Deep Kush",
	})
	require.NoError(t, err)
	assert.Equal(t, "Indica-dominant", result.Dominance)

	result, err = svc.GenerateOffspring(ctx, user, tree.ID, GenerateOffspringInput{
		Parent1Name: "Haze",
		Parent2Name: "Hindu Kush",
		Name:        "Mixed",
	})
	require.NoError(t, err)
	assert.Equal(t, "Balanced hybrid", result.Dominance)
}

func TestVisualizationDedupsNodes(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewTreeService(repos.FamilyTrees, repos.Crosses, repos.Strains)
	user := newTestUser(t, repos, "grower")
	ctx := context.Background()

	p1 := newTestStrain(t, repos, user, "Haze", "sativa", nil)
	p2 := newTestStrain(t, repos, user, "Kush", "indica", nil)

	tree, err := svc.Create(ctx, user, "Garden", "", false)
	require.NoError(t, err)

	first, err := svc.CreateCross(ctx, user, tree.ID, CreateCrossInput{Parent1ID: p1.ID, Parent2ID: p2.ID, Generation: 1})
	require.NoError(t, err)
	// Backcross: the F1 offspring crossed with an original parent.
	_, err = svc.CreateCross(ctx, user, tree.ID, CreateCrossInput{
		Parent1ID:  first.Offspring.ID,
		Parent2ID:  p1.ID,
		Generation: 2,
	})
	require.NoError(t, err)

	viz, err := svc.Visualization(ctx, &user, tree.ID)
	require.NoError(t, err)
	assert.Equal(t, tree.ID, viz.TreeID)
	// Haze appears in both crosses but yields one node.
	assert.Len(t, viz.Nodes, 4)
	assert.Len(t, viz.Edges, 2)

	generationsByID := map[string]int{}
	for _, n := range viz.Nodes {
		generationsByID[n.ID] = n.Generation
	}
	assert.Equal(t, 0, generationsByID[p1.ID])
	assert.Equal(t, 1, generationsByID[first.Offspring.ID])
}

func TestAvailableStrainsSplit(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewTreeService(repos.FamilyTrees, repos.Crosses, repos.Strains)
	user := newTestUser(t, repos, "grower")
	ctx := context.Background()

	newTestStrain(t, repos, user, "Haze", "sativa", nil)
	newTestStrain(t, repos, user, "Haze x Kush (F1)", "hybrid", nil)
	cross := models.Strain{
		Name:        "Mystery",
		Description: "Cross between Haze and Kush (F1 offspring)",
		CreatedBy:   user.ID,
	}
	require.NoError(t, repos.Strains.Create(ctx, &cross))

	tree, err := svc.Create(ctx, user, "Garden", "", false)
	require.NoError(t, err)

	base, offspring, err := svc.AvailableStrains(ctx, user, tree.ID)
	require.NoError(t, err)
	require.Len(t, base, 1)
	assert.Equal(t, "Haze", base[0].Name)
	assert.Len(t, offspring, 2)
}
