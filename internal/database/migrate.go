package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema_mysql.sql
var mysqlSchema string

//go:embed schema_sqlite.sql
var sqliteSchema string

// Dialects understood by Migrate.
const (
	DialectMySQL  = "mysql"
	DialectSQLite = "sqlite"
)

// Migrate creates any missing tables.  Statements use IF NOT EXISTS so
// running it against an existing database is a no-op.
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	var schema string
	switch dialect {
	case DialectMySQL:
		schema = mysqlSchema
	case DialectSQLite:
		schema = sqliteSchema
	default:
		return fmt.Errorf("unknown dialect %q", dialect)
	}
	// the MySQL driver rejects multi-statement Exec unless the DSN opts in
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
