package userfiles

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

func (r *SQLRepository) Get(ctx context.Context, userID, name string) (*models.UserFile, error) {
	query := `SELECT user_id, name, content FROM user_files WHERE user_id = $1 AND name = $2`

	f := &models.UserFile{}
	if err := r.db.QueryRowContext(ctx, query, userID, name).Scan(&f.UserID, &f.Name, &f.Content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *SQLRepository) Put(ctx context.Context, f *models.UserFile) error {
	query :=
		`INSERT INTO user_files (user_id, name, content) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, name) DO UPDATE SET content = EXCLUDED.content`

	if _, err := r.db.ExecContext(ctx, query, f.UserID, f.Name, f.Content); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) ListByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM user_files WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select user files: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

func (r *SQLRepository) Delete(ctx context.Context, userID, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_files WHERE user_id = $1 AND name = $2`, userID, name); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
