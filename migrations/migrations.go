// Package migrations embeds the PostgreSQL schema. Files named
// NNNNNN_name.sql are applied in order; NNNNNN_name_rollback.sql undoes one.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.sql
var FS embed.FS

// Up returns the forward migration file names in apply order
func Up(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") || strings.HasSuffix(name, "_rollback.sql") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// RollbackName returns the rollback file name for a forward migration
func RollbackName(name string) string {
	return strings.TrimSuffix(name, ".sql") + "_rollback.sql"
}
