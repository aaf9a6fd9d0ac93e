package pdf

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/straintree/straintree-backend/internal/models"
)

func testDoc(plan string) FamilyTreeDoc {
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	thc := 21.0
	return FamilyTreeDoc{
		Tree: models.FamilyTree{
			ID:            "t1",
			Name:          "Garden (2026)",
			Description:   "Backcross project",
			OwnerUsername: "grower",
			CreatedAt:     date,
			UpdatedAt:     date,
		},
		Crosses: []models.Cross{
			{ID: "c1", Generation: 1, Parent1Name: "Haze", Parent2Name: "Kush", OffspringName: "Haze x Kush (F1)", CreatedAt: date},
			{ID: "c2", Generation: 2, Parent1Name: "Haze x Kush (F1)", Parent2Name: "Haze", OffspringName: "BX1", CreatedAt: date.AddDate(0, 0, 14)},
		},
		Strains: []models.Strain{
			{Name: "Haze", StrainType: "sativa", ThcContent: &thc},
			{Name: "Kush", StrainType: "indica"},
		},
		Plan:        plan,
		GeneratedAt: date,
	}
}

func TestRenderFamilyTree(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderFamilyTree(&buf, testDoc("basic")))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "%PDF-1.4\n"))
	assert.True(t, strings.HasSuffix(out, "%%EOF\n"))
	// Parentheses in the tree name must be escaped in the content stream.
	assert.Contains(t, out, `Garden \(2026\)`)
	assert.NotContains(t, out, "Breeding Statistics")
}

func TestRenderPremiumStats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderFamilyTree(&buf, testDoc("premium")))

	out := buf.String()
	assert.Contains(t, out, "Breeding Statistics")
	assert.Contains(t, out, "Most used parent: Haze")
	assert.Contains(t, out, "Average generation: 1.5")
	assert.Contains(t, out, "Breeding timespan: 14 days")
}

func TestGenerationsSortedAndDeduped(t *testing.T) {
	crosses := []models.Cross{{Generation: 3}, {Generation: 1}, {Generation: 3}, {Generation: 2}}
	assert.Equal(t, []int{1, 2, 3}, generations(crosses))
}
