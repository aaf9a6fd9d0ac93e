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

type crossesRepo struct{ conn *sql.DB }

const crossCols = `c.id, c.parent1_id, c.parent2_id, c.offspring_id, c.generation,
	c.cross_date, c.notes, c.family_tree_id, c.position_x, c.position_y, c.created_at,
	p1.name, p2.name, o.name`

const crossFrom = ` FROM crosses c
	JOIN strains p1 ON p1.id = c.parent1_id
	JOIN strains p2 ON p2.id = c.parent2_id
	JOIN strains o ON o.id = c.offspring_id`

func scanCross(row rowScanner) (models.Cross, error) {
	var c models.Cross
	err := row.Scan(
		&c.ID, &c.Parent1ID, &c.Parent2ID, &c.OffspringID, &c.Generation,
		&c.CrossDate, &c.Notes, &c.FamilyTreeID, &c.PositionX, &c.PositionY, &c.CreatedAt,
		&c.Parent1Name, &c.Parent2Name, &c.OffspringName,
	)
	return c, err
}

func (r *crossesRepo) Create(ctx context.Context, c *models.Cross) error {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO crosses(id, parent1_id, parent2_id, offspring_id, generation,
			cross_date, notes, family_tree_id, position_x, position_y, created_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.Parent1ID, c.Parent2ID, c.OffspringID, c.Generation,
		c.CrossDate, c.Notes, c.FamilyTreeID, c.PositionX, c.PositionY, c.CreatedAt,
	)
	return err
}

func (r *crossesRepo) GetByID(ctx context.Context, id string) (models.Cross, error) {
	c, err := scanCross(r.conn.QueryRowContext(ctx,
		`SELECT `+crossCols+crossFrom+` WHERE c.id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Cross{}, apperror.NotFound("Cross not found")
	}
	return c, err
}

func (r *crossesRepo) ListByTree(ctx context.Context, treeID string) ([]models.Cross, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+crossCols+crossFrom+` WHERE c.family_tree_id=?
		 ORDER BY c.generation ASC, c.created_at ASC`, treeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Cross
	for rows.Next() {
		c, err := scanCross(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *crossesRepo) Update(ctx context.Context, c *models.Cross) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE crosses SET generation=?, cross_date=?, notes=?, position_x=?, position_y=?
		 WHERE id=?`,
		c.Generation, c.CrossDate, c.Notes, c.PositionX, c.PositionY, c.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("Cross not found")
	}
	return nil
}

func (r *crossesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM crosses WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("Cross not found")
	}
	return nil
}
