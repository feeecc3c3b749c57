package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Issue is one problem found while linting a migrations directory.
type Issue struct {
	File    string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.File, i.Message)
}

// Validate lints every migration file pair in dir without touching a
// database. It reports broken pairs, versions used twice, files with no
// executable statements, and destructive up statements whose down half is
// empty. A nil slice means the directory is clean.
func Validate(dir string) ([]Issue, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	ups := make(map[string]string)   // version -> file name
	downs := make(map[string]string) // version -> file name
	names := make(map[string]string) // version -> migration name
	var issues []Issue

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := fileNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			if strings.HasSuffix(e.Name(), ".sql") {
				issues = append(issues, Issue{File: e.Name(), Message: "file name does not match <version>_<name>.(up|down).sql"})
			}
			continue
		}
		version, name, direction := m[1], m[2], m[3]

		if prev, ok := names[version]; ok && prev != name {
			issues = append(issues, Issue{File: e.Name(), Message: fmt.Sprintf("version %s already used by %q", version, prev)})
			continue
		}
		names[version] = name

		if direction == "up" {
			ups[version] = e.Name()
		} else {
			downs[version] = e.Name()
		}
	}

	versions := make([]string, 0, len(names))
	for v := range names {
		versions = append(versions, v)
	}
	sort.Strings(versions)

	for _, v := range versions {
		up, hasUp := ups[v]
		down, hasDown := downs[v]

		if !hasUp {
			issues = append(issues, Issue{File: down, Message: "down file has no matching up file"})
			continue
		}
		if !hasDown {
			issues = append(issues, Issue{File: up, Message: "up file has no matching down file"})
			continue
		}

		upStmts, err := readStatements(filepath.Join(dir, up))
		if err != nil {
			return nil, err
		}
		downStmts, err := readStatements(filepath.Join(dir, down))
		if err != nil {
			return nil, err
		}

		if len(upStmts) == 0 {
			issues = append(issues, Issue{File: up, Message: "contains no executable statements"})
		}
		if hasDestructive(upStmts) && len(downStmts) == 0 {
			issues = append(issues, Issue{File: up, Message: "drops schema objects but the down file cannot restore anything"})
		}
	}

	return issues, nil
}

// hasDestructive reports whether any statement drops a table or column.
func hasDestructive(stmts []string) bool {
	for _, s := range stmts {
		upper := strings.ToUpper(s)
		if strings.HasPrefix(upper, "DROP TABLE") {
			return true
		}
		if strings.HasPrefix(upper, "ALTER TABLE") && strings.Contains(upper, "DROP COLUMN") {
			return true
		}
	}
	return false
}
