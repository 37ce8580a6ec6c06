package app_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fbd-go/internal/app"
)

func baseOptions(t *testing.T) app.Options {
	t.Helper()
	return app.Options{
		WatchDir:  t.TempDir(),
		BackupDir: filepath.Join(t.TempDir(), "backup"),
		Interval:  1,
		LogOutput: io.Discard,
	}
}

func TestNew_Validation(t *testing.T) {
	t.Run("rejects an existing backup directory", func(t *testing.T) {
		opts := baseOptions(t)
		if err := os.MkdirAll(opts.BackupDir, 0755); err != nil {
			t.Fatal(err)
		}

		_, err := app.New(opts)
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Errorf("New() error = %v, want already-exists error", err)
		}
	})

	t.Run("existing backup directory aborts before touching the log", func(t *testing.T) {
		opts := baseOptions(t)
		if err := os.MkdirAll(opts.BackupDir, 0755); err != nil {
			t.Fatal(err)
		}
		opts.LogPath = filepath.Join(t.TempDir(), "backup.log")
		if err := os.WriteFile(opts.LogPath, []byte("previous session\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := app.New(opts); err == nil {
			t.Fatal("New() error = nil, want validation failure")
		}

		got, err := os.ReadFile(opts.LogPath)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "previous session\n" {
			t.Errorf("log was modified during failed validation: %q", got)
		}
	})

	t.Run("rejects identical watch and backup directories", func(t *testing.T) {
		opts := baseOptions(t)
		opts.BackupDir = opts.WatchDir

		_, err := app.New(opts)
		if err == nil || !strings.Contains(err.Error(), "same location") {
			t.Errorf("New() error = %v, want same-location error", err)
		}
	})

	t.Run("rejects rewrite without an explicit log path", func(t *testing.T) {
		opts := baseOptions(t)
		opts.RewriteLog = true

		_, err := app.New(opts)
		if err == nil || !strings.Contains(err.Error(), "log path") {
			t.Errorf("New() error = %v, want log path error", err)
		}
	})

	t.Run("rejects a non-positive interval", func(t *testing.T) {
		opts := baseOptions(t)
		opts.Interval = 0

		if _, err := app.New(opts); err == nil {
			t.Error("New() error = nil, want interval error")
		}
	})

	t.Run("rejects a missing watch directory", func(t *testing.T) {
		opts := baseOptions(t)
		opts.WatchDir = filepath.Join(opts.WatchDir, "gone")

		if _, err := app.New(opts); err == nil {
			t.Error("New() error = nil, want stat failure")
		}
	})

	t.Run("rejects a bad exclude pattern", func(t *testing.T) {
		opts := baseOptions(t)
		opts.Exclude = []string{"["}

		if _, err := app.New(opts); err == nil {
			t.Error("New() error = nil, want compile error")
		}
	})
}

func TestNew_CreatesBackupRoot(t *testing.T) {
	opts := baseOptions(t)

	a, err := app.New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	info, err := os.Stat(a.BackupRoot())
	if err != nil {
		t.Fatalf("backup root missing: %v", err)
	}
	if !info.IsDir() {
		t.Error("backup root is not a directory")
	}
}

func TestApp_Run(t *testing.T) {
	t.Run("backs up a changed file end to end", func(t *testing.T) {
		opts := baseOptions(t)
		opts.Interval = 0.01
		opts.Recursive = true
		opts.LogPath = filepath.Join(t.TempDir(), "backup.log")
		opts.CatalogPath = filepath.Join(t.TempDir(), "catalog.db")

		sub := filepath.Join(opts.WatchDir, "docs")
		if err := os.MkdirAll(sub, 0755); err != nil {
			t.Fatal(err)
		}
		src := filepath.Join(sub, "report.txt")
		if err := os.WriteFile(src, []byte("hello"), 0644); err != nil {
			t.Fatal(err)
		}
		stamp := time.Unix(1700000000, 0)
		if err := os.Chtimes(src, stamp, stamp); err != nil {
			t.Fatal(err)
		}

		a, err := app.New(opts)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		if err := a.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Run() error = %v, want context.DeadlineExceeded", err)
		}

		backup := filepath.Join(a.BackupRoot(), "docs", "report_1700000000.txt")
		got, err := os.ReadFile(backup)
		if err != nil {
			t.Fatalf("backup artifact missing: %v", err)
		}
		if string(got) != "hello" {
			t.Errorf("backup content = %q, want %q", got, "hello")
		}

		log, err := os.ReadFile(opts.LogPath)
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimRight(string(log), "\n"), "\n")
		if len(lines) != 2 {
			t.Fatalf("log has %d lines, want header plus one record:\n%s", len(lines), log)
		}
		if !strings.HasPrefix(lines[0], "Source[") || !strings.Contains(lines[0], "\tDestination[") {
			t.Errorf("header = %q, want Source[..]\\tDestination[..]", lines[0])
		}
		wantRecord := filepath.Join("docs", "report.txt") + "\t" + filepath.Join("docs", "report_1700000000.txt")
		if lines[1] != wantRecord {
			t.Errorf("record = %q, want %q", lines[1], wantRecord)
		}
	})
}
