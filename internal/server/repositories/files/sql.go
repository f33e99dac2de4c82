package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/timex"
)

// SQLRepository implements file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db dbx.DBTX
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

const selectFile = `SELECT project_id, name, role, user_id, tier, content, locator, last_backup FROM files`

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*models.File, error) {
	f := &models.File{}
	var lastBackup int64
	if err := s.Scan(&f.ProjectID, &f.Name, &f.Role, &f.UserID, &f.Tier, &f.Content, &f.Locator, &lastBackup); err != nil {
		return nil, err
	}
	f.LastBackup = timex.FromMillis(lastBackup)
	return f, nil
}

// Get returns the file or common.ErrorNotFound.
func (r *SQLRepository) Get(ctx context.Context, projectID int64, name string) (*models.File, error) {
	query := selectFile + ` WHERE project_id = $1 AND name = $2`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, projectID, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return f, nil
}

// Put upserts the file by (project_id, name).
func (r *SQLRepository) Put(ctx context.Context, f *models.File) error {
	query := `
		INSERT INTO files (project_id, name, role, user_id, tier, content, locator, last_backup)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (project_id, name)
		DO UPDATE SET
			role = EXCLUDED.role,
			user_id = EXCLUDED.user_id,
			tier = EXCLUDED.tier,
			content = EXCLUDED.content,
			locator = EXCLUDED.locator,
			last_backup = EXCLUDED.last_backup`

	_, err := r.db.ExecContext(ctx, query, f.ProjectID, f.Name, int(f.Role), f.UserID, int(f.Tier),
		f.Content, f.Locator, timex.ToMillis(f.LastBackup))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) ListByProject(ctx context.Context, projectID int64) ([]*models.File, error) {
	query := selectFile + ` WHERE project_id = $1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLRepository) Delete(ctx context.Context, projectID int64, name string) error {
	query := `DELETE FROM files WHERE project_id = $1 AND name = $2`
	if _, err := r.db.ExecContext(ctx, query, projectID, name); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
