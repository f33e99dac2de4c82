package repomanager

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/corruption"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/files"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/nonces"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/projects"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/records"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/userfiles"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/userprojects"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// sqlSet binds every SQL repository to one DBTX.
type sqlSet struct {
	db dbx.DBTX
}

func (s sqlSet) Users() users.Repository { return users.NewSQLRepository(s.db) }

func (s sqlSet) Projects() projects.Repository { return projects.NewSQLRepository(s.db) }

func (s sqlSet) UserProjects() userprojects.Repository { return userprojects.NewSQLRepository(s.db) }

func (s sqlSet) Files() files.Repository { return files.NewSQLRepository(s.db) }

func (s sqlSet) UserFiles() userfiles.Repository { return userfiles.NewSQLRepository(s.db) }

func (s sqlSet) Nonces() nonces.Repository { return nonces.NewSQLRepository(s.db) }

func (s sqlSet) ResetTokens() resettokens.Repository { return resettokens.NewSQLRepository(s.db) }

func (s sqlSet) Records() records.Repository { return records.NewSQLRepository(s.db) }

func (s sqlSet) Corruption() corruption.Repository { return corruption.NewSQLRepository(s.db) }

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// SQLRepositoryManager runs units of work over database/sql. The dialect
// only matters for migrations and for recognising conflicts.
type SQLRepositoryManager struct {
	runner     *dbx.Runner
	dialect    string
	migrations fs.FS
}

func (m *SQLRepositoryManager) Run(ctx context.Context, fn func(ctx context.Context, repos repositories.Set) error) error {
	return m.runner.Direct(ctx, func(ctx context.Context, db dbx.DBTX) error {
		return fn(ctx, sqlSet{db: db})
	})
}

func (m *SQLRepositoryManager) RunInTx(ctx context.Context, fn func(ctx context.Context, repos repositories.Set) error) error {
	return m.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, sqlSet{db: tx})
	})
}

// RunMigrations sets up goose with the embedded migrations of the dialect
// and runs them against the database.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(m.migrations)
	if err := goose.SetDialect(m.dialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.runner.DB, "."); err != nil {
		return err
	}
	return nil
}

func (m *SQLRepositoryManager) Close() error {
	return m.runner.DB.Close()
}
