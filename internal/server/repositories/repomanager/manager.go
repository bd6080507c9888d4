// Package repomanager wires repository implementations to a database handle.
// Passing a dbx.DBTX at the call site lets services run the same repository
// code through *sql.DB or inside a transaction.
package repomanager

import (
	"github.com/sharenest/sharenest/internal/dbx"
	"github.com/sharenest/sharenest/internal/server/repositories/files"
	"github.com/sharenest/sharenest/internal/server/repositories/sharelinks"
)

type RepositoryManager interface {
	Files(db dbx.DBTX) files.Repository
	ShareLinks(db dbx.DBTX) sharelinks.Repository
}
