package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/koustreak/MigRi/internal/errs"
	"github.com/koustreak/MigRi/internal/sqlgen"
)

// versionFormat is the timestamp layout used for new migration versions.
const versionFormat = "20060102150405"

var nameSanitizeRe = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)

// Writer persists generated migrations as up/down file pairs in a directory.
type Writer struct {
	dir string

	// now is overridable for tests.
	now func() time.Time
}

// NewWriter returns a Writer that creates files under dir, creating the
// directory itself if needed.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Write stores m as a version-stamped up/down pair named after name and
// returns both paths. Empty statement lists still produce a file, so the
// pair invariant holds for every version on disk.
func (w *Writer) Write(name string, m sqlgen.Migration) (upPath, downPath string, err error) {
	name = sanitizeName(name)
	if name == "" {
		return "", "", errs.New(errs.ErrKindInvalidInput, "migration name is empty after sanitizing")
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", "", errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("failed to create migrations directory %s", w.dir), err)
	}

	version := w.now().UTC().Format(versionFormat)
	upPath = filepath.Join(w.dir, fmt.Sprintf("%s_%s.up.sql", version, name))
	downPath = filepath.Join(w.dir, fmt.Sprintf("%s_%s.down.sql", version, name))

	if err := writeStatements(upPath, m.Up); err != nil {
		return "", "", err
	}
	if err := writeStatements(downPath, m.Down); err != nil {
		os.Remove(upPath)
		return "", "", err
	}
	return upPath, downPath, nil
}

// sanitizeName lowercases name and collapses anything outside
// [A-Za-z0-9_-] into single underscores.
func sanitizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = nameSanitizeRe.ReplaceAllString(name, "_")
	return strings.Trim(name, "_")
}

// writeStatements renders statements one per block, blank-line separated.
func writeStatements(path string, stmts []string) error {
	var content string
	if len(stmts) == 0 {
		content = "-- empty migration\n"
	} else {
		content = strings.Join(stmts, "\n\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}
