package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/straintree/straintree-backend/internal/apperror"
	"github.com/straintree/straintree-backend/internal/api/httpx"
	"github.com/straintree/straintree-backend/internal/api/validate"
	"github.com/straintree/straintree-backend/internal/metrics"
	"github.com/straintree/straintree-backend/internal/models"
	repo "github.com/straintree/straintree-backend/internal/repository"
)

type StrainService struct {
	strains repo.Strains
}

func NewStrainService(strains repo.Strains) *StrainService {
	return &StrainService{strains: strains}
}

// SafeFloat converts a lenient JSON value (number, numeric string, empty
// string, null) to a float pointer. Invalid input yields nil, never an error.
func SafeFloat(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return nil
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

type StrainPage struct {
	Strains     []models.Strain `json:"strains"`
	Total       int             `json:"total"`
	Pages       int             `json:"pages"`
	CurrentPage int             `json:"current_page"`
	PerPage     int             `json:"per_page"`
}

func normalizePaging(page, perPage, defPerPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defPerPage
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

func (s *StrainService) List(ctx context.Context, f models.StrainFilter) (StrainPage, error) {
	f.Page, f.PerPage = normalizePaging(f.Page, f.PerPage, 20)
	items, total, err := s.strains.List(ctx, f)
	if err != nil {
		return StrainPage{}, err
	}
	if items == nil {
		items = []models.Strain{}
	}
	return StrainPage{
		Strains:     items,
		Total:       total,
		Pages:       httpx.Pages(total, f.PerPage),
		CurrentPage: f.Page,
		PerPage:     f.PerPage,
	}, nil
}

func (s *StrainService) Verified(ctx context.Context, page, perPage int) (StrainPage, error) {
	page, perPage = normalizePaging(page, perPage, 20)
	items, total, err := s.strains.ListVerified(ctx, page, perPage)
	if err != nil {
		return StrainPage{}, err
	}
	if items == nil {
		items = []models.Strain{}
	}
	return StrainPage{
		Strains:     items,
		Total:       total,
		Pages:       httpx.Pages(total, perPage),
		CurrentPage: page,
		PerPage:     perPage,
	}, nil
}

func (s *StrainService) Search(ctx context.Context, q string) ([]models.Strain, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.Strain{}, nil
	}
	items, err := s.strains.Search(ctx, q, 10)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Strain{}
	}
	return items, nil
}

type CreateStrainInput struct {
	Name          string
	Description   string
	StrainType    string
	ThcContent    *float64
	CbdContent    *float64
	FloweringTime string
	YieldInfo     string
}

func (s *StrainService) Create(ctx context.Context, user models.User, in CreateStrainInput) (models.Strain, error) {
	name, err := validate.Required("Strain name", in.Name)
	if err != nil {
		return models.Strain{}, err
	}
	if _, err := s.strains.GetByName(ctx, name); err == nil {
		return models.Strain{}, apperror.Validation("Strain with this name already exists")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return models.Strain{}, err
	}

	strain := models.Strain{
		Name:            name,
		Description:     strings.TrimSpace(in.Description),
		StrainType:      strings.TrimSpace(in.StrainType),
		ThcContent:      in.ThcContent,
		CbdContent:      in.CbdContent,
		FloweringTime:   strings.TrimSpace(in.FloweringTime),
		YieldInfo:       strings.TrimSpace(in.YieldInfo),
		CreatedBy:       user.ID,
		CreatorUsername: user.Username,
	}
	if err := s.strains.Create(ctx, &strain); err != nil {
		return models.Strain{}, err
	}
	metrics.StrainsCreated.Inc()
	return strain, nil
}

// StrainDetail aggregates how the strain is used across public trees.
type StrainDetail struct {
	models.Strain
	UsageCount  int                 `json:"usage_count"`
	FamilyTrees []models.FamilyTree `json:"family_trees"`
}

func (s *StrainService) Get(ctx context.Context, id string) (StrainDetail, error) {
	strain, err := s.strains.GetByID(ctx, id)
	if err != nil {
		return StrainDetail{}, err
	}
	usage, err := s.strains.CountUsage(ctx, id)
	if err != nil {
		return StrainDetail{}, err
	}
	trees, err := s.strains.PublicTreesReferencing(ctx, id)
	if err != nil {
		return StrainDetail{}, err
	}
	if trees == nil {
		trees = []models.FamilyTree{}
	}
	return StrainDetail{Strain: strain, UsageCount: usage, FamilyTrees: trees}, nil
}

// Update applies a partial update: only keys present in updates change.
func (s *StrainService) Update(ctx context.Context, user models.User, id string, updates map[string]any) (models.Strain, error) {
	strain, err := s.strains.GetByID(ctx, id)
	if err != nil {
		return models.Strain{}, err
	}
	if strain.CreatedBy != user.ID {
		return models.Strain{}, apperror.Forbidden("Permission denied")
	}

	if v, ok := updates["name"]; ok {
		name := strings.TrimSpace(stringOf(v))
		if name == "" {
			return models.Strain{}, apperror.Validation("Strain name cannot be empty")
		}
		existing, err := s.strains.GetByName(ctx, name)
		if err == nil && existing.ID != id {
			return models.Strain{}, apperror.Validation("Strain with this name already exists")
		} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return models.Strain{}, err
		}
		strain.Name = name
	}
	if v, ok := updates["description"]; ok {
		strain.Description = strings.TrimSpace(stringOf(v))
	}
	if v, ok := updates["strain_type"]; ok {
		strain.StrainType = strings.TrimSpace(stringOf(v))
	}
	if v, ok := updates["thc_content"]; ok {
		strain.ThcContent = SafeFloat(v)
	}
	if v, ok := updates["cbd_content"]; ok {
		strain.CbdContent = SafeFloat(v)
	}
	if v, ok := updates["flowering_time"]; ok {
		strain.FloweringTime = strings.TrimSpace(stringOf(v))
	}
	if v, ok := updates["yield_info"]; ok {
		strain.YieldInfo = strings.TrimSpace(stringOf(v))
	}

	if err := s.strains.Update(ctx, &strain); err != nil {
		return models.Strain{}, err
	}
	return s.strains.GetByID(ctx, id)
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

type VerificationInput struct {
	LabName              string
	LabTestDate          *time.Time
	LabReportURL         string
	LabCertificateNumber string
	VerifiedThc          *float64
	VerifiedCbd          *float64
	VerifiedTerpenes     string
	VerificationNotes    string
}

// SubmitVerification records lab metadata and marks the strain lab-tested
// immediately; there is no separate approval step.
func (s *StrainService) SubmitVerification(ctx context.Context, user models.User, id string, in VerificationInput) (models.Strain, error) {
	strain, err := s.strains.GetByID(ctx, id)
	if err != nil {
		return models.Strain{}, err
	}
	if strain.CreatedBy != user.ID {
		return models.Strain{}, apperror.Forbidden("Permission denied")
	}
	labName := strings.TrimSpace(in.LabName)
	if labName == "" {
		return models.Strain{}, apperror.Validation("Lab name is required")
	}

	now := time.Now().UTC()
	strain.LabName = labName
	strain.LabTestDate = in.LabTestDate
	strain.LabReportURL = strings.TrimSpace(in.LabReportURL)
	strain.LabCertificateNumber = strings.TrimSpace(in.LabCertificateNumber)
	strain.VerifiedThc = in.VerifiedThc
	strain.VerifiedCbd = in.VerifiedCbd
	strain.VerifiedTerpenes = strings.TrimSpace(in.VerifiedTerpenes)
	strain.VerificationNotes = strings.TrimSpace(in.VerificationNotes)
	strain.IsLabTested = true
	strain.VerifiedAt = &now
	strain.VerifiedBy = &user.ID

	if err := s.strains.Update(ctx, &strain); err != nil {
		return models.Strain{}, err
	}
	return s.strains.GetByID(ctx, id)
}

// Verify marks a strain community- or lab-verified. Any authenticated user
// may call it; there is no admin restriction.
func (s *StrainService) Verify(ctx context.Context, user models.User, id, verificationType, notes string) (models.Strain, string, error) {
	strain, err := s.strains.GetByID(ctx, id)
	if err != nil {
		return models.Strain{}, "", err
	}

	if verificationType == "" {
		verificationType = "community"
	}
	switch verificationType {
	case "community":
		strain.IsVerified = true
	case "lab":
		strain.IsLabTested = true
	default:
		return models.Strain{}, "", apperror.Validation("Invalid verification type")
	}

	now := time.Now().UTC()
	strain.VerifiedAt = &now
	strain.VerifiedBy = &user.ID
	if notes = strings.TrimSpace(notes); notes != "" {
		strain.VerificationNotes = notes
	}

	if err := s.strains.Update(ctx, &strain); err != nil {
		return models.Strain{}, "", err
	}
	updated, err := s.strains.GetByID(ctx, id)
	return updated, verificationType, err
}
