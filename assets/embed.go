package assets

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed sql/*.sql
var FS embed.FS

// Migration is one embedded schema file.
type Migration struct {
	Name string
	SQL  string
}

// Migrations returns the embedded sql/*.sql files in lexical order.
func Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(FS, "sql")
	if err != nil {
		return nil, err
	}
	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			continue
		}
		b, err := FS.ReadFile("sql/" + e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Name: "sql/" + e.Name(), SQL: string(b)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
