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

func TestSafeFloat(t *testing.T) {
	assert.Equal(t, 18.5, *SafeFloat(18.5))
	assert.Equal(t, 18.5, *SafeFloat("18.5"))
	assert.Nil(t, SafeFloat(""))
	assert.Nil(t, SafeFloat("n/a"))
	assert.Nil(t, SafeFloat(nil))
	assert.Nil(t, SafeFloat(true))
}

func TestCreateStrain(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewStrainService(repos.Strains)
	user := newTestUser(t, repos, "grower")
	ctx := context.Background()

	strain, err := svc.Create(ctx, user, CreateStrainInput{
		Name:       "  Northern Lights ",
		StrainType: "indica",
		ThcContent: floatPtr(18),
	})
	require.NoError(t, err)
	assert.Equal(t, "Northern Lights", strain.Name)
	assert.NotEmpty(t, strain.ID)

	_, err = svc.Create(ctx, user, CreateStrainInput{Name: "Northern Lights"})
	require.Error(t, err)
	assert.Equal(t, "Strain with this name already exists", err.Error())

	_, err = svc.Create(ctx, user, CreateStrainInput{Name: "   "})
	require.Error(t, err)
	assert.Equal(t, "Strain name is required", err.Error())
}

func TestListOrderingAndPagination(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewStrainService(repos.Strains)
	user := newTestUser(t, repos, "grower")
	ctx := context.Background()

	a := newTestStrain(t, repos, user, "Alpha", "sativa", nil)
	b := newTestStrain(t, repos, user, "Beta", "indica", nil)
	c := newTestStrain(t, repos, user, "Gamma", "indica", nil)

	b.IsLabTested = true
	require.NoError(t, repos.Strains.Update(ctx, &b))
	c.IsVerified = true
	require.NoError(t, repos.Strains.Update(ctx, &c))

	// Lab-tested first, then verified, then the rest alphabetically.
	page, err := svc.List(ctx, models.StrainFilter{})
	require.NoError(t, err)
	require.Len(t, page.Strains, 3)
	assert.Equal(t, b.ID, page.Strains[0].ID)
	assert.Equal(t, c.ID, page.Strains[1].ID)
	assert.Equal(t, a.ID, page.Strains[2].ID)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Pages)

	page, err = svc.List(ctx, models.StrainFilter{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, page.Strains, 1)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, 2, page.CurrentPage)

	page, err = svc.List(ctx, models.StrainFilter{Type: "indica"})
	require.NoError(t, err)
	assert.Len(t, page.Strains, 2)
}

func TestSearch(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewStrainService(repos.Strains)
	user := newTestUser(t, repos, "grower")
	ctx := context.Background()

	newTestStrain(t, repos, user, "Northern Lights", "indica", nil)
	newTestStrain(t, repos, user, "Super Lemon Haze", "sativa", nil)

	results, err := svc.Search(ctx, "light")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Northern Lights", results[0].Name)

	results, err = svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpdateStrainOwnership(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewStrainService(repos.Strains)
	owner := newTestUser(t, repos, "owner")
	other := newTestUser(t, repos, "other")
	ctx := context.Background()

	strain := newTestStrain(t, repos, owner, "Haze", "sativa", nil)

	_, err := svc.Update(ctx, other, strain.ID, map[string]any{"name": "Stolen"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	updated, err := svc.Update(ctx, owner, strain.ID, map[string]any{
		"description": "classic",
		"thc_content": "22.5",
	})
	require.NoError(t, err)
	assert.Equal(t, "Haze", updated.Name)
	assert.Equal(t, "classic", updated.Description)
	require.NotNil(t, updated.ThcContent)
	assert.Equal(t, 22.5, *updated.ThcContent)

	_, err = svc.Update(ctx, owner, strain.ID, map[string]any{"name": ""})
	require.Error(t, err)
	assert.Equal(t, "Strain name cannot be empty", err.Error())
}

func TestSubmitVerification(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewStrainService(repos.Strains)
	owner := newTestUser(t, repos, "owner")
	other := newTestUser(t, repos, "other")
	ctx := context.Background()

	strain := newTestStrain(t, repos, owner, "Haze", "sativa", nil)

	_, err := svc.SubmitVerification(ctx, other, strain.ID, VerificationInput{LabName: "GreenLab"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	_, err = svc.SubmitVerification(ctx, owner, strain.ID, VerificationInput{})
	require.Error(t, err)
	assert.Equal(t, "Lab name is required", err.Error())

	updated, err := svc.SubmitVerification(ctx, owner, strain.ID, VerificationInput{
		LabName:     "GreenLab",
		VerifiedThc: floatPtr(19.2),
	})
	require.NoError(t, err)
	assert.True(t, updated.IsLabTested)
	assert.Equal(t, "GreenLab", updated.LabName)
	require.NotNil(t, updated.VerifiedAt)
	require.NotNil(t, updated.VerifiedBy)
	assert.Equal(t, owner.ID, *updated.VerifiedBy)
}

func TestVerify(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewStrainService(repos.Strains)
	owner := newTestUser(t, repos, "owner")
	verifier := newTestUser(t, repos, "verifier")
	ctx := context.Background()

	strain := newTestStrain(t, repos, owner, "Haze", "sativa", nil)

	// Any authenticated user may verify, not just the owner.
	updated, verificationType, err := svc.Verify(ctx, verifier, strain.ID, "", "looks right")
	require.NoError(t, err)
	assert.Equal(t, "community", verificationType)
	assert.True(t, updated.IsVerified)
	assert.False(t, updated.IsLabTested)

	updated, verificationType, err = svc.Verify(ctx, verifier, strain.ID, "lab", "")
	require.NoError(t, err)
	assert.Equal(t, "lab", verificationType)
	assert.True(t, updated.IsLabTested)

	_, _, err = svc.Verify(ctx, verifier, strain.ID, "official", "")
	require.Error(t, err)
	assert.Equal(t, "Invalid verification type", err.Error())
}

func TestGetDetailCountsUsage(t *testing.T) {
	repos := newTestRepos(t)
	strainSvc := NewStrainService(repos.Strains)
	treeSvc := NewTreeService(repos.FamilyTrees, repos.Crosses, repos.Strains)
	user := newTestUser(t, repos, "grower")
	ctx := context.Background()

	p1 := newTestStrain(t, repos, user, "Haze", "sativa", nil)
	p2 := newTestStrain(t, repos, user, "Kush", "indica", nil)

	tree, err := treeSvc.Create(ctx, user, "Garden", "", true)
	require.NoError(t, err)
	_, err = treeSvc.CreateCross(ctx, user, tree.ID, CreateCrossInput{Parent1ID: p1.ID, Parent2ID: p2.ID})
	require.NoError(t, err)

	detail, err := strainSvc.Get(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.UsageCount)
	require.Len(t, detail.FamilyTrees, 1)
	assert.Equal(t, tree.ID, detail.FamilyTrees[0].ID)
}
