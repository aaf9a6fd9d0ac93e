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

type crossesRepo struct{ pool *pgxpool.Pool }

const crossCols = `c.id, c.parent1_id, c.parent2_id, c.offspring_id, c.generation,
	c.cross_date, c.notes, c.family_tree_id, c.position_x, c.position_y, c.created_at,
	p1.name, p2.name, o.name`

const crossFrom = ` FROM crosses c
	JOIN strains p1 ON p1.id = c.parent1_id
	JOIN strains p2 ON p2.id = c.parent2_id
	JOIN strains o ON o.id = c.offspring_id`

func scanCross(row pgx.Row) (models.Cross, error) {
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
	row := r.pool.QueryRow(ctx,
		`INSERT INTO crosses(id, parent1_id, parent2_id, offspring_id, generation,
			cross_date, notes, family_tree_id, position_x, position_y)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING created_at`,
		c.ID, c.Parent1ID, c.Parent2ID, c.OffspringID, c.Generation,
		c.CrossDate, c.Notes, c.FamilyTreeID, c.PositionX, c.PositionY,
	)
	return row.Scan(&c.CreatedAt)
}

func (r *crossesRepo) GetByID(ctx context.Context, id string) (models.Cross, error) {
	c, err := scanCross(r.pool.QueryRow(ctx, `SELECT `+crossCols+crossFrom+` WHERE c.id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Cross{}, apperror.NotFound("Cross not found")
	}
	return c, err
}

func (r *crossesRepo) ListByTree(ctx context.Context, treeID string) ([]models.Cross, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+crossCols+crossFrom+` WHERE c.family_tree_id=$1
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
	tag, err := r.pool.Exec(ctx,
		`UPDATE crosses SET generation=$2, cross_date=$3, notes=$4, position_x=$5, position_y=$6
		 WHERE id=$1`,
		c.ID, c.Generation, c.CrossDate, c.Notes, c.PositionX, c.PositionY,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Cross not found")
	}
	return nil
}

func (r *crossesRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM crosses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Cross not found")
	}
	return nil
}
