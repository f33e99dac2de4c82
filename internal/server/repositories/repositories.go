// Package repositories declares the set of entity repositories a unit of
// work exposes. Backends (repomanager for SQL, memory for tests and the
// console) bind every repository in the set to the same transaction.
package repositories

import (
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/corruption"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/files"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/nonces"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/projects"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/records"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/userfiles"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/userprojects"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/users"
)

// Set is the repositories bound to one unit of work.
type Set interface {
	Users() users.Repository
	Projects() projects.Repository
	UserProjects() userprojects.Repository
	Files() files.Repository
	UserFiles() userfiles.Repository
	Nonces() nonces.Repository
	ResetTokens() resettokens.Repository
	Records() records.Repository
	Corruption() corruption.Repository
}
