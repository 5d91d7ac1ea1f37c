package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/sanLimbu/tasksync/internal"
)

const otelName = "github.com/sanLimbu/tasksync/internal/sqlite"

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - tasks table
const currentSchemaVersion = 1

// Open creates or opens the SQLite database at path and applies the schema. The returned
// database uses a single connection, SQLite only supports one writer at a time.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "sql.Open")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "db.Ping")
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "exec %q", pragma)
		}
	}

	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "get user_version")
	}

	if version > currentSchemaVersion {
		return internal.NewErrorf(internal.ErrorCodeUnknown,
			"database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "execute schema")
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "set user_version")
	}

	return nil
}

func newDueDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}

	return sql.NullString{
		String: t.Format(time.RFC3339Nano),
		Valid:  true,
	}
}

func convertDueDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "time.Parse")
	}

	return &t, nil
}

func newOTELSpan(ctx context.Context, name string) trace.Span {
	_, span := otel.Tracer(otelName).Start(ctx, name)

	span.SetAttributes(semconv.DBSystemSqlite)

	return span
}
