// Package dialects maps driver names from configuration to the concrete
// sqldb dialect implementations.
package dialects

import (
	"fmt"
	"strings"

	"github.com/dbchat/dbchat/internal/sqldb"
	"github.com/dbchat/dbchat/internal/sqldb/duckdb"
	"github.com/dbchat/dbchat/internal/sqldb/mysql"
	"github.com/dbchat/dbchat/internal/sqldb/postgres"
	"github.com/dbchat/dbchat/internal/sqldb/sqlite"
)

func ByName(name string) (sqldb.Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql":
		return postgres.Dialect{}, nil
	case "mysql":
		return mysql.Dialect{}, nil
	case "sqlite", "sqlite3":
		return sqlite.Dialect{}, nil
	case "duckdb":
		return duckdb.Dialect{}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", name)
	}
}
