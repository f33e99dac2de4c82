package users

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

// SQLRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
// The statements are valid for both PostgreSQL and SQLite.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

const selectUser = `SELECT id, email, email_lower, name, tos_accepted, is_admin, session_id, password, settings, visited
		 FROM users`

func (r *SQLRepository) scan(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var visited int64
	err := row.Scan(&u.ID, &u.Email, &u.EmailLower, &u.Name, &u.TosAccepted, &u.IsAdmin,
		&u.SessionID, &u.Password, &u.Settings, &visited)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.Visited = timex.FromMillis(visited)
	return u, nil
}

func (r *SQLRepository) Get(ctx context.Context, id string) (*models.User, error) {
	query := selectUser + ` WHERE id = $1`
	return r.scan(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLRepository) FindByEmail(ctx context.Context, emailLower string) (*models.User, error) {
	query := selectUser + ` WHERE email_lower = $1 ORDER BY id LIMIT 1`
	return r.scan(r.db.QueryRowContext(ctx, query, emailLower))
}

func (r *SQLRepository) Put(ctx context.Context, u *models.User) error {
	query :=
		`INSERT INTO users (id, email, email_lower, name, tos_accepted, is_admin, session_id, password, settings, visited)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			email_lower = EXCLUDED.email_lower,
			name = EXCLUDED.name,
			tos_accepted = EXCLUDED.tos_accepted,
			is_admin = EXCLUDED.is_admin,
			session_id = EXCLUDED.session_id,
			password = EXCLUDED.password,
			settings = EXCLUDED.settings,
			visited = EXCLUDED.visited`

	_, err := r.db.ExecContext(ctx, query, u.ID, u.Email, u.EmailLower, u.Name, u.TosAccepted, u.IsAdmin,
		u.SessionID, u.Password, u.Settings, timex.ToMillis(u.Visited))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
