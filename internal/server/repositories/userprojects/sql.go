package userprojects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Get(ctx context.Context, userID string, projectID int64) (*models.UserProject, error) {
	query :=
		`SELECT user_id, project_id, settings, state FROM user_projects
		 WHERE user_id = $1 AND project_id = $2`

	up := &models.UserProject{}
	err := r.db.QueryRowContext(ctx, query, userID, projectID).Scan(&up.UserID, &up.ProjectID, &up.Settings, &up.State)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return up, nil
}

func (r *SQLRepository) Put(ctx context.Context, up *models.UserProject) error {
	query :=
		`INSERT INTO user_projects (user_id, project_id, settings, state)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, project_id) DO UPDATE SET
			settings = EXCLUDED.settings,
			state = EXCLUDED.state`

	if _, err := r.db.ExecContext(ctx, query, up.UserID, up.ProjectID, up.Settings, int(up.State)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) ListByUser(ctx context.Context, userID string) ([]*models.UserProject, error) {
	query :=
		`SELECT user_id, project_id, settings, state FROM user_projects
		 WHERE user_id = $1 ORDER BY project_id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select user projects: %w", err)
	}
	defer rows.Close()

	var result []*models.UserProject
	for rows.Next() {
		var item models.UserProject
		if err := rows.Scan(&item.UserID, &item.ProjectID, &item.Settings, &item.State); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLRepository) Delete(ctx context.Context, userID string, projectID int64) error {
	query := `DELETE FROM user_projects WHERE user_id = $1 AND project_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, projectID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
