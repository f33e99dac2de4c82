package projects

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

func (r *SQLRepository) Create(ctx context.Context, p *models.Project) (int64, error) {
	query :=
		`INSERT INTO projects (name, type, settings, date_created, date_modified, date_built, trashed, history)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query, p.Name, p.Type, p.Settings,
		timex.ToMillis(p.DateCreated), timex.ToMillis(p.DateModified), timex.ToMillis(p.DateBuilt),
		p.Trashed, p.History).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	p.ID = id
	return id, nil
}

func (r *SQLRepository) Get(ctx context.Context, id int64) (*models.Project, error) {
	query :=
		`SELECT id, name, type, settings, date_created, date_modified, date_built, trashed, history
		 FROM projects WHERE id = $1`

	p := &models.Project{}
	var created, modified, built int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Type, &p.Settings,
		&created, &modified, &built, &p.Trashed, &p.History)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.DateCreated = timex.FromMillis(created)
	p.DateModified = timex.FromMillis(modified)
	p.DateBuilt = timex.FromMillis(built)
	return p, nil
}

// Put overwrites every column of an existing project. A missing project is
// reported as common.ErrorNotFound.
func (r *SQLRepository) Put(ctx context.Context, p *models.Project) error {
	query :=
		`UPDATE projects SET name = $2, type = $3, settings = $4, date_created = $5,
			date_modified = $6, date_built = $7, trashed = $8, history = $9
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.Type, p.Settings,
		timex.ToMillis(p.DateCreated), timex.ToMillis(p.DateModified), timex.ToMillis(p.DateBuilt),
		p.Trashed, p.History)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
