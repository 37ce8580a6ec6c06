package daemon

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// BackupName builds the destination path for one backup artifact: the
// source's relative path with _<integer-mtime> inserted between stem and
// extension. report.txt modified at 1700000000 becomes
// report_1700000000.txt in the same relative directory. Every distinct
// observed mtime therefore produces a distinct artifact.
func BackupName(rel string, mtime time.Time) string {
	dir, base := filepath.Split(rel)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		// Dotfiles like .bashrc have no extension, only a stem.
		stem, ext = base, ""
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, mtime.Unix(), ext))
}
