package records

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

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Get(ctx context.Context, kind, key string) (*models.Record, error) {
	query := `SELECT kind, key, value, updated FROM records WHERE kind = $1 AND key = $2`

	rec := &models.Record{}
	var updated int64
	if err := r.db.QueryRowContext(ctx, query, kind, key).Scan(&rec.Kind, &rec.Key, &rec.Value, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	rec.Updated = timex.FromMillis(updated)
	return rec, nil
}

func (r *SQLRepository) Put(ctx context.Context, rec *models.Record) error {
	query :=
		`INSERT INTO records (kind, key, value, updated) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (kind, key) DO UPDATE SET value = EXCLUDED.value, updated = EXCLUDED.updated`

	if _, err := r.db.ExecContext(ctx, query, rec.Kind, rec.Key, rec.Value, timex.ToMillis(rec.Updated)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, kind, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE kind = $1 AND key = $2`, kind, key); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
