package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"fbd-go/internal/fsops"
)

// Enumerator produces the candidate set for one polling cycle: paths of
// regular files relative to the watch root, in deterministic order.
type Enumerator interface {
	Scan() ([]string, error)
}

// Flat yields the regular files directly inside the watch root. It creates
// no directory structure on the backup side.
type Flat struct {
	watchRoot string
	exclude   *ExclusionRule
}

// NewFlat creates a non-recursive enumerator over watchRoot.
func NewFlat(watchRoot string, exclude *ExclusionRule) *Flat {
	return &Flat{watchRoot: watchRoot, exclude: exclude}
}

// Scan returns the eligible file names sorted lexically (os.ReadDir order).
func (f *Flat) Scan() ([]string, error) {
	entries, err := os.ReadDir(f.watchRoot)
	if err != nil {
		return nil, fmt.Errorf("reading watch root: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if f.exclude.Excluded(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Recursive walks the whole watch root in lexical order. Every directory
// it visits gets a mirrored directory under the backup root, created
// lazily on first sight with the source directory's permission bits and
// timestamps. Mirroring happens once per directory; later metadata changes
// on the source are not re-synced. After each walk the watch root's own
// metadata is re-stamped onto the backup root, since mirroring a
// subdirectory updates the backup root's mtime.
type Recursive struct {
	watchRoot  string
	backupRoot string
	exclude    *ExclusionRule
	mirrored   map[string]bool
}

// NewRecursive creates a recursive enumerator that mirrors the directory
// skeleton of watchRoot under backupRoot.
func NewRecursive(watchRoot, backupRoot string, exclude *ExclusionRule) *Recursive {
	return &Recursive{
		watchRoot:  watchRoot,
		backupRoot: backupRoot,
		exclude:    exclude,
		mirrored:   make(map[string]bool),
	}
}

// Scan walks the tree, mirroring directories as it goes, and returns the
// eligible file paths relative to the watch root.
func (r *Recursive) Scan() ([]string, error) {
	var files []string

	err := filepath.WalkDir(r.watchRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(r.watchRoot, p)
		if err != nil {
			return fmt.Errorf("relativizing %s: %w", p, err)
		}

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			return r.mirror(rel, d)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if r.exclude.Excluded(d.Name()) {
			return nil
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking watch root: %w", err)
	}

	info, err := os.Stat(r.watchRoot)
	if err != nil {
		return nil, fmt.Errorf("stat watch root: %w", err)
	}
	if err := fsops.CopyMetadata(r.backupRoot, info); err != nil {
		return nil, fmt.Errorf("mirroring root metadata: %w", err)
	}

	return files, nil
}

// mirror creates the backup-side twin of one source directory.
func (r *Recursive) mirror(rel string, d fs.DirEntry) error {
	if r.mirrored[rel] {
		return nil
	}

	dst := filepath.Join(r.backupRoot, rel)
	if _, err := os.Stat(dst); err == nil {
		r.mirrored[rel] = true
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", dst, err)
	}

	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("stat %s: %w", rel, err)
	}
	if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if err := fsops.CopyMetadata(dst, info); err != nil {
		return fmt.Errorf("mirroring %s: %w", rel, err)
	}

	r.mirrored[rel] = true
	return nil
}

// Compile-time checks that both enumerators implement Enumerator.
var (
	_ Enumerator = (*Flat)(nil)
	_ Enumerator = (*Recursive)(nil)
)
