// Package migrate applies versioned migration files to a database and keeps
// the bookkeeping table that records which versions have run.
//
// A migration lives on disk as a pair of files in the migrations directory:
//
//	20240115093055_create_users.up.sql
//	20240115093055_create_users.down.sql
//
// Versions are lexically ordered, so timestamp prefixes apply oldest-first.
package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/koustreak/MigRi/internal/errs"
)

// fileNameRe captures version, name, and direction from a migration
// file name.
var fileNameRe = regexp.MustCompile(`^(\d+)_([A-Za-z0-9_\-]+)\.(up|down)\.sql$`)

// File is one migration discovered on disk: a version, a human-readable
// name, and the paths of its up and down halves.
type File struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

// LoadDir scans dir for migration file pairs and returns them sorted by
// version. A version must have an up file; a missing down file is an error
// here because every generated migration carries an exact inverse.
func LoadDir(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindNotFound, fmt.Sprintf("migrations directory %s", dir), err)
	}

	byVersion := make(map[string]*File)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := fileNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		version, name, direction := m[1], m[2], m[3]

		f := byVersion[version]
		if f == nil {
			f = &File{Version: version, Name: name}
			byVersion[version] = f
		}
		if f.Name != name {
			return nil, errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("version %s used by both %q and %q", version, f.Name, name))
		}
		path := filepath.Join(dir, e.Name())
		if direction == "up" {
			f.UpPath = path
		} else {
			f.DownPath = path
		}
	}

	files := make([]File, 0, len(byVersion))
	for _, f := range byVersion {
		if f.UpPath == "" {
			return nil, errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("migration %s_%s has a down file but no up file", f.Version, f.Name))
		}
		if f.DownPath == "" {
			return nil, errs.New(errs.ErrKindInvalidInput,
				fmt.Sprintf("migration %s_%s has an up file but no down file", f.Version, f.Name))
		}
		files = append(files, *f)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

// splitStatements breaks the content of a migration file into individually
// executable statements. Statements end at a line whose trimmed text ends
// with ";". Comment-only blocks (capability-gap placeholders and headers)
// are dropped — they carry no executable SQL.
func splitStatements(content string) []string {
	var stmts []string
	var buf []string

	flush := func() {
		if len(buf) == 0 {
			return
		}
		stmt := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = buf[:0]
		if stmt == "" {
			return
		}
		stmts = append(stmts, stmt)
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "" && len(buf) == 0:
			// blank between statements
		case strings.HasPrefix(trimmed, "--") && len(buf) == 0:
			// standalone comment line
		default:
			buf = append(buf, line)
			if strings.HasSuffix(trimmed, ";") {
				flush()
			}
		}
	}
	flush()

	return stmts
}
