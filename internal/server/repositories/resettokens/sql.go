package resettokens

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

func (r *SQLRepository) Get(ctx context.Context, id string) (*models.PasswordResetToken, error) {
	query := `SELECT id, email, created FROM password_reset_tokens WHERE id = $1`

	t := &models.PasswordResetToken{}
	var created int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Email, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.Created = timex.FromMillis(created)
	return t, nil
}

func (r *SQLRepository) Put(ctx context.Context, t *models.PasswordResetToken) error {
	query :=
		`INSERT INTO password_reset_tokens (id, email, created) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, created = EXCLUDED.created`

	if _, err := r.db.ExecContext(ctx, query, t.ID, t.Email, timex.ToMillis(t.Created)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.PasswordResetToken, error) {
	query :=
		`SELECT id, email, created FROM password_reset_tokens
		 WHERE created < $1 ORDER BY created LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, timex.ToMillis(cutoff), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select reset tokens: %w", err)
	}
	defer rows.Close()

	var result []*models.PasswordResetToken
	for rows.Next() {
		var (
			t       models.PasswordResetToken
			created int64
		)
		if err := rows.Scan(&t.ID, &t.Email, &created); err != nil {
			return nil, err
		}
		t.Created = timex.FromMillis(created)
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
