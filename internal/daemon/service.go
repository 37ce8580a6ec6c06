package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fbd-go/internal/fsops"
	"fbd-go/internal/scan"
)

// Recorder receives each completed backup event. The sqlite catalog
// implements it; NopRecorder stands in when no catalog is configured.
type Recorder interface {
	RecordEvent(srcRel, dstRel string, mtime, capturedAt time.Time) error
}

// NopRecorder discards events.
type NopRecorder struct{}

func (NopRecorder) RecordEvent(string, string, time.Time, time.Time) error { return nil }

// Daemon runs the polling loop: enumerate candidates, back up the ones
// whose mtime advanced past the last recorded trigger, sleep for the
// refresh interval, repeat. All filesystem work is synchronous and
// single-threaded; the only suspension point is the sleep between cycles.
type Daemon struct {
	watchRoot  string
	backupRoot string
	interval   time.Duration
	enum       scan.Enumerator
	journal    *Journal
	recorder   Recorder
	tracker    *ModTimes
	logger     Logger
	clock      Clock
}

// New creates a Daemon with the provided dependencies. watchRoot and
// backupRoot must be absolute.
func New(watchRoot, backupRoot string, interval time.Duration, enum scan.Enumerator, journal *Journal, recorder Recorder, logger Logger, clock Clock) *Daemon {
	return &Daemon{
		watchRoot:  watchRoot,
		backupRoot: backupRoot,
		interval:   interval,
		enum:       enum,
		journal:    journal,
		recorder:   recorder,
		tracker:    NewModTimes(),
		logger:     logger,
		clock:      clock,
	}
}

// Run executes polling cycles until ctx is cancelled or an operation
// fails. Cancellation is observed at the sleep boundary and inside an
// in-flight copy; the context's error is returned so the caller can tell
// a requested stop from a failure. Any other I/O error terminates the
// loop immediately: the daemon never skips a backup to stay alive.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("watching", "watch_root", d.watchRoot, "backup_root", d.backupRoot, "interval", d.interval)

	for {
		if err := d.cycle(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.interval):
		}
	}
}

// cycle performs one enumerate-detect-copy pass over the candidate set.
func (d *Daemon) cycle(ctx context.Context) error {
	candidates, err := d.enum.Scan()
	if err != nil {
		return fmt.Errorf("enumerating candidates: %w", err)
	}

	for _, rel := range candidates {
		if err := d.detect(ctx, rel); err != nil {
			return err
		}
	}
	return nil
}

// detect backs up one candidate if its current mtime strictly exceeds the
// last recorded trigger time. Equal or older mtimes are ignored, which
// makes the check idempotent for unchanged files.
func (d *Daemon) detect(ctx context.Context, rel string) error {
	info, err := os.Stat(filepath.Join(d.watchRoot, rel))
	if err != nil {
		return fmt.Errorf("stat %s: %w", rel, err)
	}

	mtime := info.ModTime()
	if !mtime.After(d.tracker.Get(rel)) {
		return nil
	}

	captured := d.clock.Now()
	dstRel := BackupName(rel, mtime)

	if err := d.copyFile(ctx, rel, dstRel); err != nil {
		return fmt.Errorf("backing up %s: %w", rel, err)
	}

	// Bookkeeping stores the capture time, not the file's mtime. The next
	// comparison reads the mtime fresh from disk, so this only moves the
	// recorded trigger point forward.
	d.tracker.Set(rel, captured)

	if err := d.journal.Record(rel, dstRel); err != nil {
		return err
	}
	if err := d.recorder.RecordEvent(rel, dstRel, mtime, captured); err != nil {
		return fmt.Errorf("recording event: %w", err)
	}

	d.logger.Info("file backed up", "src", rel, "dst", dstRel)
	return nil
}

// copyFile copies one file into the backup tree with preservation
// semantics. A copy interrupted by cancellation is retried exactly once,
// synchronously and to completion, before the interruption propagates.
// This is the daemon's only retry policy; all other failures propagate
// immediately.
func (d *Daemon) copyFile(ctx context.Context, rel, dstRel string) error {
	src := filepath.Join(d.watchRoot, rel)
	dst := filepath.Join(d.backupRoot, dstRel)

	err := fsops.CopyFile(ctx, src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	d.logger.Warn("copy interrupted, retrying once", "src", rel)
	if rerr := fsops.CopyFile(context.Background(), src, dst); rerr != nil {
		return rerr
	}
	return err
}
