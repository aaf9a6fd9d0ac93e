package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/straintree/straintree-backend/internal/apperror"
)

func TestPlans(t *testing.T) {
	repos := newTestRepos(t)
	svc := newTestExportService(t, repos, t.TempDir())

	plans := svc.Plans()
	require.Contains(t, plans, "basic")
	require.Contains(t, plans, "premium")
	assert.Equal(t, 2.99, plans["basic"].Price)
	assert.Equal(t, 9.99, plans["premium"].Price)
	assert.Greater(t, len(plans["premium"].Features), len(plans["basic"].Features))
}

func TestCreatePaymentIntent(t *testing.T) {
	repos := newTestRepos(t)
	exportSvc := newTestExportService(t, repos, t.TempDir())
	treeSvc := NewTreeService(repos.FamilyTrees, repos.Crosses, repos.Strains)
	owner := newTestUser(t, repos, "owner")
	other := newTestUser(t, repos, "other")
	ctx := context.Background()

	tree, err := treeSvc.Create(ctx, owner, "Garden", "", false)
	require.NoError(t, err)

	intent, err := exportSvc.CreatePaymentIntent(ctx, owner, tree.ID, "basic")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(intent.ID, "pi_"))
	assert.Equal(t, 299, intent.Amount)
	assert.Equal(t, "usd", intent.Currency)
	assert.Equal(t, "requires_payment_method", intent.Status)
	assert.Equal(t, tree.ID, intent.Metadata["family_tree_id"])

	_, err = exportSvc.CreatePaymentIntent(ctx, owner, tree.ID, "gold")
	require.Error(t, err)
	assert.Equal(t, "Invalid plan type", err.Error())

	_, err = exportSvc.CreatePaymentIntent(ctx, other, tree.ID, "basic")
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
}

func TestConfirmPaymentAndDownload(t *testing.T) {
	repos := newTestRepos(t)
	dir := t.TempDir()
	exportSvc := newTestExportService(t, repos, dir)
	treeSvc := NewTreeService(repos.FamilyTrees, repos.Crosses, repos.Strains)
	user := newTestUser(t, repos, "grower")
	ctx := context.Background()

	p1 := newTestStrain(t, repos, user, "Haze", "sativa", floatPtr(20))
	p2 := newTestStrain(t, repos, user, "Kush", "indica", floatPtr(10))
	tree, err := treeSvc.Create(ctx, user, "My Garden", "", false)
	require.NoError(t, err)
	_, err = treeSvc.CreateCross(ctx, user, tree.ID, CreateCrossInput{Parent1ID: p1.ID, Parent2ID: p2.ID})
	require.NoError(t, err)

	result, err := exportSvc.ConfirmPayment(ctx, user, tree.ID, "premium")
	require.NoError(t, err)
	assert.Equal(t, "premium", result.PlanType)
	assert.Greater(t, result.ExpiresIn, 0)
	require.True(t, strings.HasPrefix(result.DownloadURL, "/api/pdf/download/"))

	token := strings.TrimPrefix(result.DownloadURL, "/api/pdf/download/")
	download, err := exportSvc.Download(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "My_Garden_family_tree.pdf", download.Filename)

	data, err := os.ReadFile(download.Path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))

	// A deleted file turns the still-valid token into a 404.
	require.NoError(t, os.Remove(download.Path))
	_, err = exportSvc.Download(ctx, token)
	require.Error(t, err)
	assert.Equal(t, "PDF file not found", err.Error())
}

func TestDownloadRejectsGarbageToken(t *testing.T) {
	repos := newTestRepos(t)
	svc := newTestExportService(t, repos, t.TempDir())

	_, err := svc.Download(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
