package storage

import (
	"strings"

	"github.com/julianstephens/pillminder/internal/storage/postgres"
	"github.com/julianstephens/pillminder/internal/storage/sqlite"
	"github.com/julianstephens/pillminder/internal/utils"
)

// MemoryPath selects the process-local backend.
const MemoryPath = ":memory:"

// Open returns the backend for config without initializing or loading it.
// Postgres URLs and DSNs select PostgreSQL, a .json suffix selects the JSON
// file store, and anything else is treated as a SQLite database path.
func Open(config string) (Backend, error) {
	if config == MemoryPath {
		return NewMemoryStore(), nil
	}
	if postgres.IsConnString(config) || isDSN(config) {
		return postgres.New(config), nil
	}

	path, err := utils.ExpandHome(config)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return NewJSONStore(path), nil
	}
	return sqlite.NewStore(path), nil
}

// isDSN matches key=value style connection strings, e.g. "host=localhost dbname=meds".
func isDSN(config string) bool {
	return strings.Contains(config, "host=") || strings.Contains(config, "dbname=")
}
