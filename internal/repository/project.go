package repository

import (
	"context"
	"errors"

	"github.com/atlas-learn/atlasai/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO projects (id, user_id, name, group_label, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		project.ID, project.UserID, project.Name, nullableString(project.GroupLabel), project.CreatedAt, project.UpdatedAt,
	)
	return err
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	var groupLabel *string
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, group_label, created_at, updated_at FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.UserID, &p.Name, &groupLabel, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	if groupLabel != nil {
		p.GroupLabel = *groupLabel
	}
	return &p, nil
}

func (r *ProjectRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, name, group_label, created_at, updated_at
		 FROM projects WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		var p domain.Project
		var groupLabel *string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &groupLabel, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if groupLabel != nil {
			p.GroupLabel = *groupLabel
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE projects SET name = $1, group_label = $2, updated_at = $3 WHERE id = $4`,
		project.Name, nullableString(project.GroupLabel), project.UpdatedAt, project.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`DELETE FROM projects WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}
