package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/straintree/straintree-backend/internal/apperror"
	"github.com/straintree/straintree-backend/internal/models"
)

type strainsRepo struct{ conn *sql.DB }

const strainCols = `s.id, s.name, s.description, s.strain_type, s.thc_content, s.cbd_content,
	s.flowering_time, s.yield_info, s.created_by, s.is_verified, s.is_lab_tested,
	s.lab_name, s.lab_test_date, s.lab_report_url, s.lab_certificate_number,
	s.verified_thc, s.verified_cbd, s.verified_terpenes, s.verification_notes,
	s.verified_at, s.verified_by, s.created_at, cu.username`

const strainFrom = ` FROM strains s JOIN users cu ON cu.id = s.created_by`

const strainOrder = ` ORDER BY s.is_lab_tested DESC, s.is_verified DESC, s.name ASC`

type rowScanner interface{ Scan(dest ...any) error }

func scanStrain(row rowScanner) (models.Strain, error) {
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
	s.CreatedAt = time.Now().UTC()
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO strains(id, name, description, strain_type, thc_content, cbd_content,
			flowering_time, yield_info, created_by, created_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?)`,
		s.ID, s.Name, s.Description, s.StrainType, s.ThcContent, s.CbdContent,
		s.FloweringTime, s.YieldInfo, s.CreatedBy, s.CreatedAt,
	)
	return err
}

func (r *strainsRepo) GetByID(ctx context.Context, id string) (models.Strain, error) {
	s, err := scanStrain(r.conn.QueryRowContext(ctx,
		`SELECT `+strainCols+strainFrom+` WHERE s.id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Strain{}, apperror.NotFound("Strain not found")
	}
	if err != nil {
		return models.Strain{}, err
	}
	if s.VerifiedBy != nil {
		err = r.conn.QueryRowContext(ctx, `SELECT username FROM users WHERE id=?`, *s.VerifiedBy).
			Scan(&s.VerifierUsername)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return models.Strain{}, err
		}
	}
	return s, nil
}

func (r *strainsRepo) GetByName(ctx context.Context, name string) (models.Strain, error) {
	s, err := scanStrain(r.conn.QueryRowContext(ctx,
		`SELECT `+strainCols+strainFrom+` WHERE s.name=?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Strain{}, apperror.NotFound("Strain not found")
	}
	return s, err
}

func (r *strainsRepo) GetByNameAndCreator(ctx context.Context, name, userID string) (models.Strain, error) {
	s, err := scanStrain(r.conn.QueryRowContext(ctx,
		`SELECT `+strainCols+strainFrom+` WHERE s.name=? AND s.created_by=?`, name, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Strain{}, apperror.NotFound("Strain not found")
	}
	return s, err
}

func (r *strainsRepo) List(ctx context.Context, f models.StrainFilter) ([]models.Strain, int, error) {
	var where []string
	var args []any
	if f.Search != "" {
		pat := "%" + strings.ToLower(f.Search) + "%"
		where = append(where, "(LOWER(s.name) LIKE ? OR LOWER(s.description) LIKE ?)")
		args = append(args, pat, pat)
	}
	if f.Type != "" {
		where = append(where, "s.strain_type = ?")
		args = append(args, f.Type)
	}
	if f.VerifiedOnly {
		where = append(where, "s.is_verified = 1")
	}
	if f.LabTestedOnly {
		where = append(where, "s.is_lab_tested = 1")
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}
	return r.page(ctx, cond, args, f.Page, f.PerPage)
}

func (r *strainsRepo) ListVerified(ctx context.Context, page, perPage int) ([]models.Strain, int, error) {
	return r.page(ctx, " WHERE (s.is_verified = 1 OR s.is_lab_tested = 1)", nil, page, perPage)
}

func (r *strainsRepo) page(ctx context.Context, cond string, args []any, page, perPage int) ([]models.Strain, int, error) {
	var total int
	if err := r.conn.QueryRowContext(ctx, `SELECT COUNT(*)`+strainFrom+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, perPage, (page-1)*perPage)
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+strainCols+strainFrom+cond+strainOrder+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := collectStrains(rows)
	return out, total, err
}

func (r *strainsRepo) Search(ctx context.Context, q string, limit int) ([]models.Strain, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+strainCols+strainFrom+` WHERE LOWER(s.name) LIKE ?`+strainOrder+` LIMIT ?`,
		"%"+strings.ToLower(q)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrains(rows)
}

func (r *strainsRepo) ListByCreator(ctx context.Context, userID string) ([]models.Strain, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+strainCols+strainFrom+` WHERE s.created_by=? ORDER BY s.name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrains(rows)
}

func collectStrains(rows *sql.Rows) ([]models.Strain, error) {
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
	res, err := r.conn.ExecContext(ctx,
		`UPDATE strains SET name=?, description=?, strain_type=?, thc_content=?,
			cbd_content=?, flowering_time=?, yield_info=?, is_verified=?,
			is_lab_tested=?, lab_name=?, lab_test_date=?, lab_report_url=?,
			lab_certificate_number=?, verified_thc=?, verified_cbd=?,
			verified_terpenes=?, verification_notes=?, verified_at=?, verified_by=?
		 WHERE id=?`,
		s.Name, s.Description, s.StrainType, s.ThcContent, s.CbdContent,
		s.FloweringTime, s.YieldInfo, s.IsVerified, s.IsLabTested, s.LabName,
		s.LabTestDate, s.LabReportURL, s.LabCertificateNumber, s.VerifiedThc,
		s.VerifiedCbd, s.VerifiedTerpenes, s.VerificationNotes, s.VerifiedAt, s.VerifiedBy,
		s.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("Strain not found")
	}
	return nil
}

func (r *strainsRepo) CountUsage(ctx context.Context, strainID string) (int, error) {
	var n int
	err := r.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM crosses WHERE parent1_id=? OR parent2_id=? OR offspring_id=?`,
		strainID, strainID, strainID,
	).Scan(&n)
	return n, err
}

func (r *strainsRepo) PublicTreesReferencing(ctx context.Context, strainID string) ([]models.FamilyTree, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+treeCols+treeFrom+`
		 WHERE t.is_public = 1 AND t.id IN (
			SELECT family_tree_id FROM crosses
			WHERE parent1_id=? OR parent2_id=? OR offspring_id=?)
		 ORDER BY t.updated_at DESC`, strainID, strainID, strainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrees(rows)
}
