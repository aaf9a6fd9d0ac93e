package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/straintree/straintree-backend/internal/apperror"
	"github.com/straintree/straintree-backend/internal/auth"
	"github.com/straintree/straintree-backend/internal/metrics"
	"github.com/straintree/straintree-backend/internal/models"
	"github.com/straintree/straintree-backend/internal/pdf"
	repo "github.com/straintree/straintree-backend/internal/repository"
	"github.com/straintree/straintree-backend/internal/worker"
)

// Plan describes one purchasable export tier. Prices are display values;
// payment is simulated end to end and no charge ever happens.
type Plan struct {
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Features []string `json:"features"`
}

var paymentPlans = map[string]Plan{
	"basic": {
		Name:  "Basic PDF Export",
		Price: 2.99,
		Features: []string{
			"PDF export of your family tree",
			"Basic formatting",
			"Strain details",
		},
	},
	"premium": {
		Name:  "Premium PDF Export",
		Price: 9.99,
		Features: []string{
			"PDF export of your family tree",
			"Professional formatting",
			"Breeder branding",
			"High-resolution graphics",
			"Custom watermark",
		},
	},
}

type ExportService struct {
	trees   repo.FamilyTrees
	crosses repo.Crosses
	strains repo.Strains
	pool    *worker.Pool
	tokens  *auth.TokenManager
	dir     string
}

func NewExportService(trees repo.FamilyTrees, crosses repo.Crosses, strains repo.Strains, pool *worker.Pool, tokens *auth.TokenManager, dir string) *ExportService {
	return &ExportService{trees: trees, crosses: crosses, strains: strains, pool: pool, tokens: tokens, dir: dir}
}

func (s *ExportService) Plans() map[string]Plan { return paymentPlans }

type PaymentIntent struct {
	ID           string         `json:"payment_intent_id"`
	ClientSecret string         `json:"client_secret"`
	Amount       int            `json:"amount"` // cents
	Currency     string         `json:"currency"`
	Status       string         `json:"status"`
	Metadata     map[string]any `json:"metadata"`
}

// CreatePaymentIntent starts a simulated checkout for exporting the given
// tree. The intent id mimics an external processor's format but is local.
func (s *ExportService) CreatePaymentIntent(ctx context.Context, user models.User, treeID, planType string) (PaymentIntent, error) {
	plan, ok := paymentPlans[planType]
	if !ok {
		return PaymentIntent{}, apperror.Validation("Invalid plan type")
	}
	tree, err := s.ownedTree(ctx, user, treeID)
	if err != nil {
		return PaymentIntent{}, err
	}

	id := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
	return PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		Amount:       int(plan.Price*100 + 0.5),
		Currency:     "usd",
		Status:       "requires_payment_method",
		Metadata: map[string]any{
			"family_tree_id":   tree.ID,
			"family_tree_name": tree.Name,
			"plan_type":        planType,
			"user_id":          user.ID,
		},
	}, nil
}

type ExportResult struct {
	DownloadURL string `json:"download_url"`
	ExpiresIn   int    `json:"expires_in"` // seconds
	PlanType    string `json:"plan_type"`
}

// ConfirmPayment treats the payment as settled, renders the PDF and returns
// a signed, time-limited download link. Rendering runs on the worker pool so
// concurrent exports stay bounded.
func (s *ExportService) ConfirmPayment(ctx context.Context, user models.User, treeID, planType string) (ExportResult, error) {
	if _, ok := paymentPlans[planType]; !ok {
		return ExportResult{}, apperror.Validation("Invalid plan type")
	}
	tree, err := s.ownedTree(ctx, user, treeID)
	if err != nil {
		return ExportResult{}, err
	}

	crosses, err := s.crosses.ListByTree(ctx, tree.ID)
	if err != nil {
		return ExportResult{}, err
	}
	strains, err := s.treeStrains(ctx, crosses)
	if err != nil {
		return ExportResult{}, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return ExportResult{}, err
	}
	filePath := filepath.Join(s.dir, fmt.Sprintf("%s_%s.pdf", tree.ID, uuid.NewString()))

	var renderErr error
	s.pool.SubmitWait(func() {
		f, err := os.Create(filePath)
		if err != nil {
			renderErr = err
			return
		}
		defer f.Close()
		renderErr = pdf.RenderFamilyTree(f, pdf.FamilyTreeDoc{
			Tree:        tree,
			Crosses:     crosses,
			Strains:     strains,
			Plan:        planType,
			GeneratedAt: time.Now().UTC(),
		})
	})
	if renderErr != nil {
		return ExportResult{}, renderErr
	}

	token, err := s.tokens.SignDownload(filePath, tree.ID, planType)
	if err != nil {
		return ExportResult{}, err
	}
	metrics.ExportsGenerated.WithLabelValues(planType).Inc()

	return ExportResult{
		DownloadURL: "/api/pdf/download/" + token,
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
		PlanType:    planType,
	}, nil
}

// treeStrains collects every strain the crosses reference, each once, in
// first-appearance order.
func (s *ExportService) treeStrains(ctx context.Context, crosses []models.Cross) ([]models.Strain, error) {
	seen := map[string]bool{}
	var strains []models.Strain
	for _, c := range crosses {
		for _, id := range []string{c.Parent1ID, c.Parent2ID, c.OffspringID} {
			if seen[id] {
				continue
			}
			seen[id] = true
			strain, err := s.strains.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			strains = append(strains, strain)
		}
	}
	return strains, nil
}

type Download struct {
	Path     string
	Filename string
}

// Download validates a download token and resolves it to the file on disk.
func (s *ExportService) Download(ctx context.Context, token string) (Download, error) {
	claims, err := s.tokens.ParseDownload(token)
	if err != nil {
		return Download{}, err
	}
	if _, err := os.Stat(claims.FilePath); err != nil {
		return Download{}, apperror.NotFound("PDF file not found")
	}

	filename := "family_tree.pdf"
	tree, err := s.trees.GetByID(ctx, claims.FamilyTreeID)
	if err == nil {
		filename = strings.ReplaceAll(tree.Name, " ", "_") + "_family_tree.pdf"
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return Download{}, err
	}
	return Download{Path: claims.FilePath, Filename: filename}, nil
}

func (s *ExportService) ownedTree(ctx context.Context, user models.User, id string) (models.FamilyTree, error) {
	tree, err := s.trees.GetByID(ctx, id)
	if err != nil {
		return models.FamilyTree{}, err
	}
	if tree.OwnerID != user.ID {
		return models.FamilyTree{}, apperror.Forbidden("Permission denied")
	}
	return tree, nil
}
