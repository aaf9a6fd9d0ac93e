package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/straintree/straintree-backend/internal/apperror"
	"github.com/straintree/straintree-backend/internal/models"
)

type treesRepo struct{ pool *pgxpool.Pool }

const treeCols = `t.id, t.name, t.description, t.owner_id, t.is_public, t.share_token,
	t.created_at, t.updated_at, ou.username,
	(SELECT COUNT(*) FROM crosses c WHERE c.family_tree_id = t.id)`

const treeFrom = ` FROM family_trees t JOIN users ou ON ou.id = t.owner_id`

func scanTree(row pgx.Row) (models.FamilyTree, error) {
	var t models.FamilyTree
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.OwnerID, &t.IsPublic, &t.ShareToken,
		&t.CreatedAt, &t.UpdatedAt, &t.OwnerUsername, &t.CrossesCount,
	)
	return t, err
}

func collectTrees(rows pgx.Rows) ([]models.FamilyTree, error) {
	var out []models.FamilyTree
	for rows.Next() {
		t, err := scanTree(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *treesRepo) Create(ctx context.Context, t *models.FamilyTree) error {
	t.ID = uuid.NewString()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO family_trees(id, name, description, owner_id, is_public, share_token)
		 VALUES($1,$2,$3,$4,$5,$6)
		 RETURNING created_at, updated_at`,
		t.ID, t.Name, t.Description, t.OwnerID, t.IsPublic, t.ShareToken,
	)
	return row.Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *treesRepo) GetByID(ctx context.Context, id string) (models.FamilyTree, error) {
	t, err := scanTree(r.pool.QueryRow(ctx, `SELECT `+treeCols+treeFrom+` WHERE t.id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FamilyTree{}, apperror.NotFound("Family tree not found")
	}
	return t, err
}

func (r *treesRepo) GetByShareToken(ctx context.Context, token string) (models.FamilyTree, error) {
	t, err := scanTree(r.pool.QueryRow(ctx, `SELECT `+treeCols+treeFrom+` WHERE t.share_token=$1`, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FamilyTree{}, apperror.NotFound("Family tree not found")
	}
	return t, err
}

func (r *treesRepo) ListByOwner(ctx context.Context, ownerID string, page, perPage int) ([]models.FamilyTree, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM family_trees WHERE owner_id=$1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+treeCols+treeFrom+` WHERE t.owner_id=$1
		 ORDER BY t.updated_at DESC LIMIT $2 OFFSET $3`,
		ownerID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := collectTrees(rows)
	return out, total, err
}

func (r *treesRepo) ListPublic(ctx context.Context, page, perPage int) ([]models.FamilyTree, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM family_trees WHERE is_public`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+treeCols+treeFrom+` WHERE t.is_public
		 ORDER BY t.updated_at DESC LIMIT $1 OFFSET $2`,
		perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := collectTrees(rows)
	return out, total, err
}

func (r *treesRepo) Update(ctx context.Context, t *models.FamilyTree) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE family_trees SET name=$2, description=$3, is_public=$4, updated_at=now()
		 WHERE id=$1`,
		t.ID, t.Name, t.Description, t.IsPublic,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Family tree not found")
	}
	return nil
}

func (r *treesRepo) Touch(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE family_trees SET updated_at=now() WHERE id=$1`, id)
	return err
}

// Delete removes the tree; the crosses FK cascades.
func (r *treesRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM family_trees WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Family tree not found")
	}
	return nil
}
