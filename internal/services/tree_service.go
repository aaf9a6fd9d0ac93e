package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/straintree/straintree-backend/internal/apperror"
	"github.com/straintree/straintree-backend/internal/api/httpx"
	"github.com/straintree/straintree-backend/internal/api/validate"
	"github.com/straintree/straintree-backend/internal/metrics"
	"github.com/straintree/straintree-backend/internal/models"
	repo "github.com/straintree/straintree-backend/internal/repository"
)

type TreeService struct {
	trees   repo.FamilyTrees
	crosses repo.Crosses
	strains repo.Strains
}

func NewTreeService(trees repo.FamilyTrees, crosses repo.Crosses, strains repo.Strains) *TreeService {
	return &TreeService{trees: trees, crosses: crosses, strains: strains}
}

type TreePage struct {
	FamilyTrees []models.FamilyTree `json:"family_trees"`
	Total       int                 `json:"total"`
	Pages       int                 `json:"pages"`
	CurrentPage int                 `json:"current_page"`
	PerPage     int                 `json:"per_page"`
}

func (s *TreeService) List(ctx context.Context, user models.User, page, perPage int) (TreePage, error) {
	page, perPage = normalizePaging(page, perPage, 10)
	items, total, err := s.trees.ListByOwner(ctx, user.ID, page, perPage)
	if err != nil {
		return TreePage{}, err
	}
	return treePage(items, total, page, perPage), nil
}

func (s *TreeService) Public(ctx context.Context, page, perPage int) (TreePage, error) {
	page, perPage = normalizePaging(page, perPage, 10)
	items, total, err := s.trees.ListPublic(ctx, page, perPage)
	if err != nil {
		return TreePage{}, err
	}
	return treePage(items, total, page, perPage), nil
}

func treePage(items []models.FamilyTree, total, page, perPage int) TreePage {
	if items == nil {
		items = []models.FamilyTree{}
	}
	return TreePage{
		FamilyTrees: items,
		Total:       total,
		Pages:       httpx.Pages(total, perPage),
		CurrentPage: page,
		PerPage:     perPage,
	}
}

func (s *TreeService) Create(ctx context.Context, user models.User, name, description string, isPublic bool) (models.FamilyTree, error) {
	name, err := validate.Required("Family tree name", name)
	if err != nil {
		return models.FamilyTree{}, err
	}
	tree := models.FamilyTree{
		Name:          name,
		Description:   strings.TrimSpace(description),
		OwnerID:       user.ID,
		IsPublic:      isPublic,
		ShareToken:    uuid.NewString(),
		OwnerUsername: user.Username,
	}
	if err := s.trees.Create(ctx, &tree); err != nil {
		return models.FamilyTree{}, err
	}
	return tree, nil
}

type TreeDetail struct {
	models.FamilyTree
	Crosses []models.Cross `json:"crosses"`
}

// Get returns a tree with its crosses. Private trees are visible to their
// owner only; public trees to anyone, authenticated or not.
func (s *TreeService) Get(ctx context.Context, viewer *models.User, id string) (TreeDetail, error) {
	tree, err := s.trees.GetByID(ctx, id)
	if err != nil {
		return TreeDetail{}, err
	}
	if !tree.IsPublic && (viewer == nil || viewer.ID != tree.OwnerID) {
		return TreeDetail{}, apperror.Forbidden("Permission denied")
	}
	return s.detail(ctx, tree)
}

// Shared resolves a tree by its share token. The token grants read access
// regardless of the tree's public flag.
func (s *TreeService) Shared(ctx context.Context, token string) (TreeDetail, error) {
	tree, err := s.trees.GetByShareToken(ctx, token)
	if err != nil {
		return TreeDetail{}, err
	}
	return s.detail(ctx, tree)
}

func (s *TreeService) detail(ctx context.Context, tree models.FamilyTree) (TreeDetail, error) {
	crosses, err := s.crosses.ListByTree(ctx, tree.ID)
	if err != nil {
		return TreeDetail{}, err
	}
	if crosses == nil {
		crosses = []models.Cross{}
	}
	tree.CrossesCount = len(crosses)
	return TreeDetail{FamilyTree: tree, Crosses: crosses}, nil
}

func (s *TreeService) Update(ctx context.Context, user models.User, id string, updates map[string]any) (models.FamilyTree, error) {
	tree, err := s.ownedTree(ctx, user, id)
	if err != nil {
		return models.FamilyTree{}, err
	}
	if v, ok := updates["name"]; ok {
		name := strings.TrimSpace(stringOf(v))
		if name == "" {
			return models.FamilyTree{}, apperror.Validation("Family tree name cannot be empty")
		}
		tree.Name = name
	}
	if v, ok := updates["description"]; ok {
		tree.Description = strings.TrimSpace(stringOf(v))
	}
	if v, ok := updates["is_public"]; ok {
		if b, isBool := v.(bool); isBool {
			tree.IsPublic = b
		}
	}
	if err := s.trees.Update(ctx, &tree); err != nil {
		return models.FamilyTree{}, err
	}
	return s.trees.GetByID(ctx, id)
}

// Delete removes the tree and, through the database cascade, its crosses.
func (s *TreeService) Delete(ctx context.Context, user models.User, id string) error {
	if _, err := s.ownedTree(ctx, user, id); err != nil {
		return err
	}
	return s.trees.Delete(ctx, id)
}

func (s *TreeService) ownedTree(ctx context.Context, user models.User, id string) (models.FamilyTree, error) {
	tree, err := s.trees.GetByID(ctx, id)
	if err != nil {
		return models.FamilyTree{}, err
	}
	if tree.OwnerID != user.ID {
		return models.FamilyTree{}, apperror.Forbidden("Permission denied")
	}
	return tree, nil
}

type CreateCrossInput struct {
	Parent1ID     string
	Parent2ID     string
	OffspringID   string
	OffspringName string
	Generation    int
	CrossDate     *time.Time
	Notes         string
	PositionX     float64
	PositionY     float64
}

type CrossResult struct {
	Cross       models.Cross
	Offspring   models.Strain
	AutoCreated bool
}

// CreateCross records a breeding event. When no offspring strain is given it
// derives one from the parents: a strain named "{p1} x {p2} (F{n})" with
// averaged cannabinoid content, reusing a previous auto-created strain of the
// same name by the same user if one exists.
func (s *TreeService) CreateCross(ctx context.Context, user models.User, treeID string, in CreateCrossInput) (CrossResult, error) {
	tree, err := s.ownedTree(ctx, user, treeID)
	if err != nil {
		return CrossResult{}, err
	}

	p1, err := s.strains.GetByID(ctx, in.Parent1ID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return CrossResult{}, apperror.Validation("Parent strain not found")
		}
		return CrossResult{}, err
	}
	p2, err := s.strains.GetByID(ctx, in.Parent2ID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return CrossResult{}, apperror.Validation("Parent strain not found")
		}
		return CrossResult{}, err
	}

	generation := in.Generation
	if generation < 1 {
		generation = 1
	}

	var offspring models.Strain
	autoCreated := false
	switch {
	case in.OffspringID != "":
		offspring, err = s.strains.GetByID(ctx, in.OffspringID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return CrossResult{}, apperror.Validation("Offspring strain not found")
			}
			return CrossResult{}, err
		}
	default:
		name := strings.TrimSpace(in.OffspringName)
		if name == "" {
			name = fmt.Sprintf("%s x %s (F%d)", p1.Name, p2.Name, generation)
		}
		offspring, autoCreated, err = s.resolveOffspring(ctx, user, name, p1, p2, generation)
		if err != nil {
			return CrossResult{}, err
		}
	}

	cross := models.Cross{
		Parent1ID:    p1.ID,
		Parent2ID:    p2.ID,
		OffspringID:  offspring.ID,
		Generation:   generation,
		CrossDate:    in.CrossDate,
		Notes:        strings.TrimSpace(in.Notes),
		FamilyTreeID: tree.ID,
		PositionX:    in.PositionX,
		PositionY:    in.PositionY,
	}
	if err := s.crosses.Create(ctx, &cross); err != nil {
		return CrossResult{}, err
	}
	if err := s.trees.Touch(ctx, tree.ID); err != nil {
		return CrossResult{}, err
	}
	metrics.CrossesCreated.Inc()

	// Re-fetch for the joined strain names.
	cross, err = s.crosses.GetByID(ctx, cross.ID)
	if err != nil {
		return CrossResult{}, err
	}
	return CrossResult{Cross: cross, Offspring: offspring, AutoCreated: autoCreated}, nil
}

// resolveOffspring reuses an existing strain of the same name by the same
// user, otherwise creates one with traits derived from the parents.
func (s *TreeService) resolveOffspring(ctx context.Context, user models.User, name string, p1, p2 models.Strain, generation int) (models.Strain, bool, error) {
	existing, err := s.strains.GetByNameAndCreator(ctx, name, user.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return models.Strain{}, false, err
	}

	offspring := models.Strain{
		Name:            name,
		Description:     fmt.Sprintf("Cross between %s and %s (F%d offspring)", p1.Name, p2.Name, generation),
		StrainType:      derivedType(p1, p2),
		ThcContent:      meanContent(p1.ThcContent, p2.ThcContent),
		CbdContent:      meanContent(p1.CbdContent, p2.CbdContent),
		CreatedBy:       user.ID,
		CreatorUsername: user.Username,
	}
	if err := s.strains.Create(ctx, &offspring); err != nil {
		return models.Strain{}, false, err
	}
	metrics.StrainsCreated.Inc()
	return offspring, true, nil
}

// derivedType keeps the parents' type when they agree, otherwise "Hybrid".
func derivedType(p1, p2 models.Strain) string {
	if p1.StrainType != "" && strings.EqualFold(p1.StrainType, p2.StrainType) {
		return p1.StrainType
	}
	return "Hybrid"
}

// meanContent averages the parents' values, falling back to whichever parent
// has one when the other does not.
func meanContent(a, b *float64) *float64 {
	switch {
	case a != nil && b != nil:
		m := (*a + *b) / 2
		return &m
	case a != nil:
		v := *a
		return &v
	case b != nil:
		v := *b
		return &v
	default:
		return nil
	}
}

type UpdateCrossInput struct {
	Generation *int
	CrossDate  *time.Time
	HasDate    bool
	Notes      *string
	PositionX  *float64
	PositionY  *float64
}

func (s *TreeService) UpdateCross(ctx context.Context, user models.User, treeID, crossID string, in UpdateCrossInput) (models.Cross, error) {
	cross, err := s.ownedCross(ctx, user, treeID, crossID)
	if err != nil {
		return models.Cross{}, err
	}
	if in.Generation != nil {
		cross.Generation = *in.Generation
	}
	if in.HasDate {
		cross.CrossDate = in.CrossDate
	}
	if in.Notes != nil {
		cross.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.PositionX != nil {
		cross.PositionX = *in.PositionX
	}
	if in.PositionY != nil {
		cross.PositionY = *in.PositionY
	}
	if err := s.crosses.Update(ctx, &cross); err != nil {
		return models.Cross{}, err
	}
	if err := s.trees.Touch(ctx, treeID); err != nil {
		return models.Cross{}, err
	}
	return s.crosses.GetByID(ctx, crossID)
}

func (s *TreeService) DeleteCross(ctx context.Context, user models.User, treeID, crossID string) error {
	if _, err := s.ownedCross(ctx, user, treeID, crossID); err != nil {
		return err
	}
	if err := s.crosses.Delete(ctx, crossID); err != nil {
		return err
	}
	return s.trees.Touch(ctx, treeID)
}

// ownedCross loads a cross and checks it belongs to the given tree and that
// the tree belongs to the user. A cross from another tree reads as not found.
func (s *TreeService) ownedCross(ctx context.Context, user models.User, treeID, crossID string) (models.Cross, error) {
	if _, err := s.ownedTree(ctx, user, treeID); err != nil {
		return models.Cross{}, err
	}
	cross, err := s.crosses.GetByID(ctx, crossID)
	if err != nil {
		return models.Cross{}, err
	}
	if cross.FamilyTreeID != treeID {
		return models.Cross{}, apperror.NotFound("Cross not found")
	}
	return cross, nil
}

type GenerateOffspringInput struct {
	Parent1Name string
	Parent2Name string
	Name        string
	Description string
	ThcContent  *float64
	CbdContent  *float64
	Generation  int
}

type GeneratedOffspring struct {
	Strain    models.Strain `json:"strain"`
	Dominance string        `json:"dominance"`
}

// GenerateOffspring creates a named offspring strain from two parents looked
// up by name, without recording a cross. Names are unique across all users
// here since the strain is user-visible immediately.
func (s *TreeService) GenerateOffspring(ctx context.Context, user models.User, treeID string, in GenerateOffspringInput) (GeneratedOffspring, error) {
	if _, err := s.ownedTree(ctx, user, treeID); err != nil {
		return GeneratedOffspring{}, err
	}

	name, err := validate.Required("Offspring name", in.Name)
	if err != nil {
		return GeneratedOffspring{}, err
	}
	if _, err := s.strains.GetByName(ctx, name); err == nil {
		return GeneratedOffspring{}, apperror.Validation("Strain with this name already exists")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return GeneratedOffspring{}, err
	}

	p1, p2, err := s.ParentStrains(ctx, in.Parent1Name, in.Parent2Name)
	if err != nil {
		return GeneratedOffspring{}, err
	}

	generation := in.Generation
	if generation < 1 {
		generation = 1
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = fmt.Sprintf("Cross between %s and %s (F%d offspring)", p1.Name, p2.Name, generation)
	}
	thc := in.ThcContent
	if thc == nil {
		thc = meanContent(p1.ThcContent, p2.ThcContent)
	}
	cbd := in.CbdContent
	if cbd == nil {
		cbd = meanContent(p1.CbdContent, p2.CbdContent)
	}

	offspring := models.Strain{
		Name:            name,
		Description:     description,
		StrainType:      derivedType(p1, p2),
		ThcContent:      thc,
		CbdContent:      cbd,
		CreatedBy:       user.ID,
		CreatorUsername: user.Username,
	}
	if err := s.strains.Create(ctx, &offspring); err != nil {
		return GeneratedOffspring{}, err
	}
	metrics.StrainsCreated.Inc()

	return GeneratedOffspring{Strain: offspring, Dominance: dominance(p1, p2)}, nil
}

// dominance matches on substrings so compound labels like
// "Sativa-dominant hybrid" still count toward their side.
func dominance(p1, p2 models.Strain) string {
	t1 := strings.ToLower(p1.StrainType)
	t2 := strings.ToLower(p2.StrainType)
	switch {
	case strings.Contains(t1, "sativa") && strings.Contains(t2, "sativa"):
		return "Sativa-dominant"
	case strings.Contains(t1, "indica") && strings.Contains(t2, "indica"):
		return "Indica-dominant"
	default:
		return "Balanced hybrid"
	}
}

// ParentStrains resolves two parent strains by exact name.
func (s *TreeService) ParentStrains(ctx context.Context, name1, name2 string) (models.Strain, models.Strain, error) {
	name1 = strings.TrimSpace(name1)
	name2 = strings.TrimSpace(name2)
	if name1 == "" || name2 == "" {
		return models.Strain{}, models.Strain{}, apperror.Validation("Both parent strain names are required")
	}
	p1, err := s.strains.GetByName(ctx, name1)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return models.Strain{}, models.Strain{}, apperror.NotFound("Parent strain not found")
		}
		return models.Strain{}, models.Strain{}, err
	}
	p2, err := s.strains.GetByName(ctx, name2)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return models.Strain{}, models.Strain{}, apperror.NotFound("Parent strain not found")
		}
		return models.Strain{}, models.Strain{}, err
	}
	return p1, p2, nil
}

// NextGeneration suggests the label after the tree's highest generation.
// Anyone who can view the tree may ask.
func (s *TreeService) NextGeneration(ctx context.Context, viewer *models.User, treeID string) (string, error) {
	tree, err := s.trees.GetByID(ctx, treeID)
	if err != nil {
		return "", err
	}
	if !tree.IsPublic && (viewer == nil || viewer.ID != tree.OwnerID) {
		return "", apperror.Forbidden("Permission denied")
	}
	crosses, err := s.crosses.ListByTree(ctx, treeID)
	if err != nil {
		return "", err
	}
	max := 0
	for _, c := range crosses {
		if c.Generation > max {
			max = c.Generation
		}
	}
	return fmt.Sprintf("F%d", max+1), nil
}

type VisualizationNode struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	StrainType string   `json:"strain_type"`
	ThcContent *float64 `json:"thc_content"`
	CbdContent *float64 `json:"cbd_content"`
	Generation int      `json:"generation,omitempty"`
	IsVerified bool     `json:"is_verified"`
}

type VisualizationEdge struct {
	CrossID     string `json:"cross_id"`
	Parent1ID   string `json:"parent1_id"`
	Parent2ID   string `json:"parent2_id"`
	OffspringID string `json:"offspring_id"`
	Generation  int    `json:"generation"`
}

type Visualization struct {
	TreeID   string              `json:"tree_id"`
	TreeName string              `json:"tree_name"`
	Nodes    []VisualizationNode `json:"nodes"`
	Edges    []VisualizationEdge `json:"edges"`
}

// Visualization flattens a tree's crosses into a node/edge graph. Each strain
// appears once no matter how many crosses reference it; its generation is set
// the first time it appears as an offspring.
func (s *TreeService) Visualization(ctx context.Context, viewer *models.User, treeID string) (Visualization, error) {
	detail, err := s.Get(ctx, viewer, treeID)
	if err != nil {
		return Visualization{}, err
	}

	viz := Visualization{
		TreeID:   detail.ID,
		TreeName: detail.Name,
		Nodes:    []VisualizationNode{},
		Edges:    []VisualizationEdge{},
	}
	index := map[string]int{}

	addNode := func(id string) (int, error) {
		if i, ok := index[id]; ok {
			return i, nil
		}
		strain, err := s.strains.GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		viz.Nodes = append(viz.Nodes, VisualizationNode{
			ID:         strain.ID,
			Name:       strain.Name,
			StrainType: strain.StrainType,
			ThcContent: strain.ThcContent,
			CbdContent: strain.CbdContent,
			IsVerified: strain.IsVerified,
		})
		index[id] = len(viz.Nodes) - 1
		return index[id], nil
	}

	for _, c := range detail.Crosses {
		if _, err := addNode(c.Parent1ID); err != nil {
			return Visualization{}, err
		}
		if _, err := addNode(c.Parent2ID); err != nil {
			return Visualization{}, err
		}
		i, err := addNode(c.OffspringID)
		if err != nil {
			return Visualization{}, err
		}
		if viz.Nodes[i].Generation == 0 {
			viz.Nodes[i].Generation = c.Generation
		}
		viz.Edges = append(viz.Edges, VisualizationEdge{
			CrossID:     c.ID,
			Parent1ID:   c.Parent1ID,
			Parent2ID:   c.Parent2ID,
			OffspringID: c.OffspringID,
			Generation:  c.Generation,
		})
	}
	return viz, nil
}

// AvailableStrains lists the user's strains split into base strains and ones
// that look like crosses, judged from the name and description. The tree only
// scopes access; the strain list is per user.
func (s *TreeService) AvailableStrains(ctx context.Context, user models.User, treeID string) (base, offspring []models.Strain, err error) {
	if _, err := s.ownedTree(ctx, user, treeID); err != nil {
		return nil, nil, err
	}
	strains, err := s.strains.ListByCreator(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	base = []models.Strain{}
	offspring = []models.Strain{}
	for _, strain := range strains {
		if looksLikeOffspring(strain) {
			offspring = append(offspring, strain)
		} else {
			base = append(base, strain)
		}
	}
	return base, offspring, nil
}

func looksLikeOffspring(s models.Strain) bool {
	if strings.Contains(s.Name, " x ") || strings.Contains(s.Name, "(F") {
		return true
	}
	for g := 1; g <= 5; g++ {
		if strings.Contains(s.Name, fmt.Sprintf("F%d", g)) {
			return true
		}
	}
	return strings.Contains(s.Description, "Cross between") && strings.Contains(s.Description, "offspring")
}
