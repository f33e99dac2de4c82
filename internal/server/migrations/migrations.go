// Package migrations embeds the goose SQL migrations, one directory per
// dialect.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// Postgres returns the migrations for PostgreSQL rooted at ".".
func Postgres() fs.FS {
	return sub("postgres")
}

// SQLite returns the migrations for SQLite rooted at ".".
func SQLite() fs.FS {
	return sub("sqlite")
}

func sub(dir string) fs.FS {
	f, err := fs.Sub(Migrations, dir)
	if err != nil {
		// dir is one of the embedded directories.
		panic(err)
	}
	return f
}
