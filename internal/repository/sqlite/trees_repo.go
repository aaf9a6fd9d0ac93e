package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/straintree/straintree-backend/internal/apperror"
	"github.com/straintree/straintree-backend/internal/models"
)

type treesRepo struct{ conn *sql.DB }

const treeCols = `t.id, t.name, t.description, t.owner_id, t.is_public, t.share_token,
	t.created_at, t.updated_at, ou.username,
	(SELECT COUNT(*) FROM crosses c WHERE c.family_tree_id = t.id)`

const treeFrom = ` FROM family_trees t JOIN users ou ON ou.id = t.owner_id`

func scanTree(row rowScanner) (models.FamilyTree, error) {
	var t models.FamilyTree
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.OwnerID, &t.IsPublic, &t.ShareToken,
		&t.CreatedAt, &t.UpdatedAt, &t.OwnerUsername, &t.CrossesCount,
	)
	return t, err
}

func collectTrees(rows *sql.Rows) ([]models.FamilyTree, error) {
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
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO family_trees(id, name, description, owner_id, is_public, share_token,
			created_at, updated_at)
		 VALUES(?,?,?,?,?,?,?,?)`,
		t.ID, t.Name, t.Description, t.OwnerID, t.IsPublic, t.ShareToken,
		t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (r *treesRepo) GetByID(ctx context.Context, id string) (models.FamilyTree, error) {
	t, err := scanTree(r.conn.QueryRowContext(ctx,
		`SELECT `+treeCols+treeFrom+` WHERE t.id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.FamilyTree{}, apperror.NotFound("Family tree not found")
	}
	return t, err
}

func (r *treesRepo) GetByShareToken(ctx context.Context, token string) (models.FamilyTree, error) {
	t, err := scanTree(r.conn.QueryRowContext(ctx,
		`SELECT `+treeCols+treeFrom+` WHERE t.share_token=?`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return models.FamilyTree{}, apperror.NotFound("Family tree not found")
	}
	return t, err
}

func (r *treesRepo) ListByOwner(ctx context.Context, ownerID string, page, perPage int) ([]models.FamilyTree, int, error) {
	var total int
	if err := r.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM family_trees WHERE owner_id=?`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+treeCols+treeFrom+` WHERE t.owner_id=?
		 ORDER BY t.updated_at DESC LIMIT ? OFFSET ?`,
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
	if err := r.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM family_trees WHERE is_public = 1`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+treeCols+treeFrom+` WHERE t.is_public = 1
		 ORDER BY t.updated_at DESC LIMIT ? OFFSET ?`,
		perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := collectTrees(rows)
	return out, total, err
}

func (r *treesRepo) Update(ctx context.Context, t *models.FamilyTree) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.conn.ExecContext(ctx,
		`UPDATE family_trees SET name=?, description=?, is_public=?, updated_at=?
		 WHERE id=?`,
		t.Name, t.Description, t.IsPublic, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("Family tree not found")
	}
	return nil
}

func (r *treesRepo) Touch(ctx context.Context, id string) error {
	_, err := r.conn.ExecContext(ctx,
		`UPDATE family_trees SET updated_at=? WHERE id=?`, time.Now().UTC(), id)
	return err
}

// Delete removes the tree; the crosses FK cascades (foreign_keys pragma is on).
func (r *treesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM family_trees WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("Family tree not found")
	}
	return nil
}
