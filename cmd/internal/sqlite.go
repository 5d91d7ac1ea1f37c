package internal

import (
	"database/sql"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/envvar"
	"github.com/sanLimbu/tasksync/internal/sqlite"
)

const defaultSQLitePath = "tasksync.db"

// NewSQLite opens the SQLite database located at SQLITE_PATH.
func NewSQLite(conf *envvar.Configuration) (*sql.DB, error) {
	path, err := conf.GetDefault("SQLITE_PATH", defaultSQLitePath)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conf.Get SQLITE_PATH")
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "sqlite.Open")
	}

	return db, nil
}
