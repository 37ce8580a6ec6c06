package daemon

import (
	"fmt"
	"io"
	"os"
)

// Journal is the backup log: a once-per-invocation header followed by one
// tab-separated record per completed copy. Records are flushed as they are
// written, so the log retains everything up to a failure.
type Journal struct {
	w io.Writer
	f *os.File
}

// NewJournal wraps an arbitrary writer. Used for the discard default when
// no log path is configured, and in tests.
func NewJournal(w io.Writer) *Journal {
	return &Journal{w: w}
}

// OpenJournal opens the log file at path. With rewrite set the file is
// truncated; otherwise new records append, preceded by a blank line when
// the file already has content so sessions stay visually separated.
func OpenJournal(path string, rewrite bool) (*Journal, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if rewrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	if !rewrite {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("stat log file: %w", err)
		}
		if info.Size() > 0 {
			if _, err := fmt.Fprintln(f); err != nil {
				f.Close()
				return nil, fmt.Errorf("separating log sessions: %w", err)
			}
		}
	}

	return &Journal{w: f, f: f}, nil
}

// Header writes the session header naming both roots as absolute paths.
func (j *Journal) Header(watchRoot, backupRoot string) error {
	if _, err := fmt.Fprintf(j.w, "Source[%s]\tDestination[%s]\n", watchRoot, backupRoot); err != nil {
		return fmt.Errorf("writing log header: %w", err)
	}
	return nil
}

// Record appends one backup event: the source path relative to the watch
// root and the backup path relative to the backup root.
func (j *Journal) Record(srcRel, dstRel string) error {
	if _, err := fmt.Fprintf(j.w, "%s\t%s\n", srcRel, dstRel); err != nil {
		return fmt.Errorf("writing log record: %w", err)
	}
	return nil
}

// Close releases the underlying file, if any.
func (j *Journal) Close() error {
	if j.f == nil {
		return nil
	}
	return j.f.Close()
}
