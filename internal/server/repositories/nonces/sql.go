package nonces

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/timex"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Get(ctx context.Context, value string) (*models.Nonce, error) {
	query := `SELECT value, user_id, project_id, created FROM nonces WHERE value = $1`

	n := &models.Nonce{}
	var created int64
	if err := r.db.QueryRowContext(ctx, query, value).Scan(&n.Value, &n.UserID, &n.ProjectID, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	n.Created = timex.FromMillis(created)
	return n, nil
}

func (r *SQLRepository) Put(ctx context.Context, n *models.Nonce) error {
	query :=
		`INSERT INTO nonces (value, user_id, project_id, created) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (value) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			project_id = EXCLUDED.project_id,
			created = EXCLUDED.created`

	if _, err := r.db.ExecContext(ctx, query, n.Value, n.UserID, n.ProjectID, timex.ToMillis(n.Created)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, value string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM nonces WHERE value = $1`, value); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Nonce, error) {
	query :=
		`SELECT value, user_id, project_id, created FROM nonces
		 WHERE created < $1 ORDER BY created LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, timex.ToMillis(cutoff), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select nonces: %w", err)
	}
	defer rows.Close()

	var result []*models.Nonce
	for rows.Next() {
		var (
			n       models.Nonce
			created int64
		)
		if err := rows.Scan(&n.Value, &n.UserID, &n.ProjectID, &created); err != nil {
			return nil, err
		}
		n.Created = timex.FromMillis(created)
		result = append(result, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
