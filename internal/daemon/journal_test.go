package daemon

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestJournal_HeaderAndRecords(t *testing.T) {
	var buf bytes.Buffer
	j := NewJournal(&buf)

	if err := j.Header("/src", "/dst"); err != nil {
		t.Fatalf("Header() error = %v", err)
	}
	if err := j.Record("report.txt", "report_1700000000.txt"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := j.Record("a/b.txt", "a/b_1700000001.txt"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	want := "Source[/src]\tDestination[/dst]\n" +
		"report.txt\treport_1700000000.txt\n" +
		"a/b.txt\ta/b_1700000001.txt\n"
	if got := buf.String(); got != want {
		t.Errorf("journal output =\n%q\nwant:\n%q", got, want)
	}
}

func TestOpenJournal(t *testing.T) {
	t.Run("fresh file gets no separator", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "backup.log")

		j, err := OpenJournal(path, false)
		if err != nil {
			t.Fatalf("OpenJournal() error = %v", err)
		}
		defer j.Close()

		if err := j.Header("/w", "/b"); err != nil {
			t.Fatalf("Header() error = %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading log: %v", err)
		}
		if string(got) != "Source[/w]\tDestination[/b]\n" {
			t.Errorf("log = %q, want header only", got)
		}
	})

	t.Run("appending to a non-empty file inserts a blank line", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "backup.log")
		if err := os.WriteFile(path, []byte("old session\n"), 0644); err != nil {
			t.Fatal(err)
		}

		j, err := OpenJournal(path, false)
		if err != nil {
			t.Fatalf("OpenJournal() error = %v", err)
		}
		defer j.Close()

		if err := j.Header("/w", "/b"); err != nil {
			t.Fatalf("Header() error = %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading log: %v", err)
		}
		want := "old session\n\nSource[/w]\tDestination[/b]\n"
		if string(got) != want {
			t.Errorf("log = %q, want %q", got, want)
		}
	})

	t.Run("rewrite truncates existing content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "backup.log")
		if err := os.WriteFile(path, []byte("old session\n"), 0644); err != nil {
			t.Fatal(err)
		}

		j, err := OpenJournal(path, true)
		if err != nil {
			t.Fatalf("OpenJournal() error = %v", err)
		}
		defer j.Close()

		if err := j.Header("/w", "/b"); err != nil {
			t.Fatalf("Header() error = %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading log: %v", err)
		}
		if string(got) != "Source[/w]\tDestination[/b]\n" {
			t.Errorf("log = %q, want header only after rewrite", got)
		}
	})

	t.Run("close on a writer-only journal is a no-op", func(t *testing.T) {
		j := NewJournal(&bytes.Buffer{})
		if err := j.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
}
