package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/straintree/straintree-backend/internal/apperror"
	"github.com/straintree/straintree-backend/internal/models"
)

type strainsRepo struct{ pool *pgxpool.Pool }

const strainCols = `s.id, s.name, s.description, s.strain_type, s.thc_content, s.cbd_content,
	s.flowering_time, s.yield_info, s.created_by, s.is_verified, s.is_lab_tested,
	s.lab_name, s.lab_test_date, s.lab_report_url, s.lab_certificate_number,
	s.verified_thc, s.verified_cbd, s.verified_terpenes, s.verification_notes,
	s.verified_at, s.verified_by, s.created_at, cu.username`

const strainFrom = ` FROM strains s JOIN users cu ON cu.id = s.created_by`

// Lab-tested strains sort first, then community-verified, then by name.
const strainOrder = ` ORDER BY s.is_lab_tested DESC, s.is_verified DESC, s.name ASC`

func scanStrain(row pgx.Row) (models.Strain, error) {
	var s models.Strain
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.StrainType, &s.ThcContent, &s.CbdContent,
		&s.FloweringTime, &s.YieldInfo, &s.CreatedBy, &s.IsVerified, &s.IsLabTested,
		&s.LabName, &s.LabTestDate, &s.LabReportURL, &s.LabCertificateNumber,
		&s.VerifiedThc, &s.VerifiedCbd, &s.VerifiedTerpenes, &s.VerificationNotes,
		&s.VerifiedAt, &s.VerifiedBy, &s.CreatedAt, &s.CreatorUsername,
	)
	return s, err
}

func (r *strainsRepo) Create(ctx context.Context, s *models.Strain) error {
	s.ID = uuid.NewString()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO strains(id, name, description, strain_type, thc_content, cbd_content,
			flowering_time, yield_info, created_by)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 RETURNING created_at`,
		s.ID, s.Name, s.Description, s.StrainType, s.ThcContent, s.CbdContent,
		s.FloweringTime, s.YieldInfo, s.CreatedBy,
	)
	return row.Scan(&s.CreatedAt)
}

func (r *strainsRepo) GetByID(ctx context.Context, id string) (models.Strain, error) {
	s, err := scanStrain(r.pool.QueryRow(ctx,
		`SELECT `+strainCols+strainFrom+` WHERE s.id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Strain{}, apperror.NotFound("Strain not found")
	}
	if err != nil {
		return models.Strain{}, err
	}
	if s.VerifiedBy != nil {
		err = r.pool.QueryRow(ctx, `SELECT username FROM users WHERE id=$1`, *s.VerifiedBy).
			Scan(&s.VerifierUsername)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return models.Strain{}, err
		}
	}
	return s, nil
}

func (r *strainsRepo) GetByName(ctx context.Context, name string) (models.Strain, error) {
	s, err := scanStrain(r.pool.QueryRow(ctx,
		`SELECT `+strainCols+strainFrom+` WHERE s.name=$1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Strain{}, apperror.NotFound("Strain not found")
	}
	return s, err
}

func (r *strainsRepo) GetByNameAndCreator(ctx context.Context, name, userID string) (models.Strain, error) {
	s, err := scanStrain(r.pool.QueryRow(ctx,
		`SELECT `+strainCols+strainFrom+` WHERE s.name=$1 AND s.created_by=$2`, name, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Strain{}, apperror.NotFound("Strain not found")
	}
	return s, err
}

func (r *strainsRepo) List(ctx context.Context, f models.StrainFilter) ([]models.Strain, int, error) {
	var where []string
	var args []any
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(s.name ILIKE $%d OR s.description ILIKE $%d)", len(args), len(args)))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		where = append(where, fmt.Sprintf("s.strain_type = $%d", len(args)))
	}
	if f.VerifiedOnly {
		where = append(where, "s.is_verified")
	}
	if f.LabTestedOnly {
		where = append(where, "s.is_lab_tested")
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}
	return r.page(ctx, cond, args, f.Page, f.PerPage)
}

func (r *strainsRepo) ListVerified(ctx context.Context, page, perPage int) ([]models.Strain, int, error) {
	return r.page(ctx, " WHERE (s.is_verified OR s.is_lab_tested)", nil, page, perPage)
}

func (r *strainsRepo) page(ctx context.Context, cond string, args []any, page, perPage int) ([]models.Strain, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+strainFrom+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, perPage, (page-1)*perPage)
	rows, err := r.pool.Query(ctx,
		`SELECT `+strainCols+strainFrom+cond+strainOrder+
			fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := collectStrains(rows)
	return out, total, err
}

func (r *strainsRepo) Search(ctx context.Context, q string, limit int) ([]models.Strain, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+strainCols+strainFrom+` WHERE s.name ILIKE $1`+strainOrder+` LIMIT $2`,
		"%"+q+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrains(rows)
}

func (r *strainsRepo) ListByCreator(ctx context.Context, userID string) ([]models.Strain, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+strainCols+strainFrom+` WHERE s.created_by=$1 ORDER BY s.name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrains(rows)
}

func collectStrains(rows pgx.Rows) ([]models.Strain, error) {
	var out []models.Strain
	for rows.Next() {
		s, err := scanStrain(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *strainsRepo) Update(ctx context.Context, s *models.Strain) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE strains SET name=$2, description=$3, strain_type=$4, thc_content=$5,
			cbd_content=$6, flowering_time=$7, yield_info=$8, is_verified=$9,
			is_lab_tested=$10, lab_name=$11, lab_test_date=$12, lab_report_url=$13,
			lab_certificate_number=$14, verified_thc=$15, verified_cbd=$16,
			verified_terpenes=$17, verification_notes=$18, verified_at=$19, verified_by=$20
		 WHERE id=$1`,
		s.ID, s.Name, s.Description, s.StrainType, s.ThcContent, s.CbdContent,
		s.FloweringTime, s.YieldInfo, s.IsVerified, s.IsLabTested, s.LabName,
		s.LabTestDate, s.LabReportURL, s.LabCertificateNumber, s.VerifiedThc,
		s.VerifiedCbd, s.VerifiedTerpenes, s.VerificationNotes, s.VerifiedAt, s.VerifiedBy,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Strain not found")
	}
	return nil
}

func (r *strainsRepo) CountUsage(ctx context.Context, strainID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM crosses WHERE parent1_id=$1 OR parent2_id=$1 OR offspring_id=$1`,
		strainID,
	).Scan(&n)
	return n, err
}

func (r *strainsRepo) PublicTreesReferencing(ctx context.Context, strainID string) ([]models.FamilyTree, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+treeCols+treeFrom+`
		 WHERE t.is_public AND t.id IN (
			SELECT family_tree_id FROM crosses
			WHERE parent1_id=$1 OR parent2_id=$1 OR offspring_id=$1)
		 ORDER BY t.updated_at DESC`, strainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrees(rows)
}
